package xsd

import "encoding/xml"

// AnyType is the root of the XML Schema type hierarchy. Elements
// declared without a type are implicitly of this type.
var AnyType = xml.Name{Space: schemaNS, Local: "anyType"}

// IsSchemaNS reports whether ns is the XML Schema namespace, in which
// all builtin datatypes live.
func IsSchemaNS(ns string) bool { return ns == schemaNS }

// IsAnyType reports whether name is xs:anyType or xs:anySimpleType.
// Such references carry no usable range information.
func IsAnyType(name xml.Name) bool {
	return name.Space == schemaNS &&
		(name.Local == "anyType" || name.Local == "anySimpleType")
}

// rdfDatatypes maps the local name of a builtin XML Schema datatype to
// the local name of the RDF datatype used as a property range. Most
// entries are the identity; xs:integer is narrowed to xsd:int.
// Builtins absent from the table (ID, NCName, NOTATION, ...) produce
// properties with no declared range.
var rdfDatatypes = map[string]string{
	"string":             "string",
	"boolean":            "boolean",
	"decimal":            "decimal",
	"float":              "float",
	"double":             "double",
	"duration":           "duration",
	"dateTime":           "dateTime",
	"time":               "time",
	"date":               "date",
	"gYearMonth":         "gYearMonth",
	"gYear":              "gYear",
	"gMonthDay":          "gMonthDay",
	"gDay":               "gDay",
	"gMonth":             "gMonth",
	"hexBinary":          "hexBinary",
	"base64Binary":       "base64Binary",
	"anyURI":             "anyURI",
	"integer":            "int",
	"int":                "int",
	"long":               "long",
	"short":              "short",
	"byte":               "byte",
	"nonNegativeInteger": "nonNegativeInteger",
	"nonPositiveInteger": "nonPositiveInteger",
	"negativeInteger":    "negativeInteger",
	"positiveInteger":    "positiveInteger",
	"unsignedLong":       "unsignedLong",
	"unsignedInt":        "unsignedInt",
	"unsignedShort":      "unsignedShort",
	"unsignedByte":       "unsignedByte",
	"normalizedString":   "normalizedString",
	"token":              "token",
	"language":           "language",
}

// DatatypeIRI returns the RDF datatype IRI for a builtin XML Schema
// type. It returns ok=false both for names outside the schema
// namespace and for builtins with no RDF counterpart.
func DatatypeIRI(name xml.Name) (string, bool) {
	if name.Space != schemaNS {
		return "", false
	}
	local, ok := rdfDatatypes[name.Local]
	if !ok {
		return "", false
	}
	return schemaNS + "#" + local, true
}

// IsBuiltin reports whether name refers to any builtin XML Schema
// type, including ones DatatypeIRI has no mapping for.
func IsBuiltin(name xml.Name) bool {
	return name.Space == schemaNS
}
