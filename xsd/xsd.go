// Package xsd loads XML Schema documents and models the declarations
// they contain.
//
// The package covers the subset of XML Schema needed to derive an
// ontology from a schema: named and anonymous complex and simple
// types, type derivation by extension and restriction, sequence and
// choice content models with occurrence bounds, named model groups,
// and global element and attribute declarations. It is not a
// validator; facets beyond enumerations are recorded but otherwise
// unused.
//
// Documents are retrieved through a Store, which normalizes and
// deduplicates locations and can keep a local cache of remote schemas.
// A Resolver chases import and include references from a root document
// until the set of reachable schemas is closed, and merges the result
// into one declaration pool per target namespace.
package xsd

import "encoding/xml"

const (
	schemaNS         = "http://www.w3.org/2001/XMLSchema"
	schemaInstanceNS = "http://www.w3.org/2001/XMLSchema-instance"
)

// A Document is the parsed form of a single schema document. Documents
// are created by the Store and never modified afterwards.
type Document struct {
	// Normalized location the document was loaded from. Two documents
	// are the same if and only if their locations are equal.
	Location string
	// The target namespace, or "" for schemas that declare none.
	TargetNS string
	// Import and include declarations, in document order.
	Refs []Ref
	// Top-level declarations.
	ComplexTypes map[xml.Name]*ComplexType
	SimpleTypes  map[xml.Name]*SimpleType
	Elements     map[xml.Name]*Element
	Attributes   map[xml.Name]*Attribute
	Groups       map[xml.Name]*Group
	// Top-level schema annotation, if any.
	Doc string
}

// A Ref is an <xs:import> or <xs:include> declaration. Imports carry
// the target namespace of the imported schema and, optionally, a
// location; includes carry the including document's own namespace.
type Ref struct {
	Namespace string
	Location  string
	Include   bool
}

// Occurs holds the occurrence bounds of a particle. Max is -1 for
// maxOccurs="unbounded".
type Occurs struct {
	Min, Max int
}

// Unbounded reports whether the particle may repeat without limit.
func (o Occurs) Unbounded() bool { return o.Max < 0 }

// Within folds the bounds of an enclosing group into o: a particle of
// an optional group may be absent and a particle of a repeating group
// may repeat, whatever its own bounds say.
func (o Occurs) Within(outer Occurs) Occurs {
	c := Occurs{Min: o.Min * outer.Min}
	if o.Unbounded() || outer.Unbounded() {
		c.Max = -1
	} else {
		c.Max = o.Max * outer.Max
	}
	return c
}

// A ComplexType declares an element content model: child elements,
// attributes, and an optional base type the content derives from.
type ComplexType struct {
	Name xml.Name
	Doc  string
	// Base type reference; the zero Name means the type has no base.
	Base xml.Name
	// Derivation mode when Base is set: extension if true, otherwise
	// restriction.
	Extension bool
	// True when the type has simple content: character data plus
	// attributes, with Base naming the content's datatype.
	SimpleContent bool
	Mixed         bool
	Abstract      bool
	// True for inline types named after their enclosing declaration.
	Anonymous bool
	// The content model, nil when the type declares no children.
	Content    *Group
	Attributes []Attribute
}

// A Group is a sequence or choice of particles. Named top-level groups
// appear in Document.Groups; anonymous groups form the content models
// of complex types.
type Group struct {
	Name   xml.Name // set for named top-level groups only
	Kind   GroupKind
	Occurs Occurs
	// The members of the group, in document order.
	Particles []Particle
	Doc       string
}

// GroupKind discriminates the composition of a Group.
type GroupKind int

const (
	Sequence GroupKind = iota
	Choice
	All
)

func (k GroupKind) String() string {
	switch k {
	case Sequence:
		return "sequence"
	case Choice:
		return "choice"
	case All:
		return "all"
	}
	return "unknown"
}

// A Particle is one member of a content model: an element declaration,
// a nested group, or a reference to a named group. Exactly one of
// Element, Group and GroupRef is set.
type Particle struct {
	Occurs   Occurs
	Element  *Element
	Group    *Group
	GroupRef xml.Name
}

// An Element declares an XML element. Elements inside content models
// are wrapped in a Particle carrying their occurrence bounds; global
// elements stand alone.
type Element struct {
	Name xml.Name
	// The declared type. A zero Name means no type was declared,
	// which XML Schema interprets as xs:anyType.
	Type xml.Name
	// True when this is a reference (<xs:element ref="..."/>) to a
	// global element declaration rather than a declaration itself.
	Ref      bool
	Nillable bool
	Abstract bool
	Doc      string
}

// An Attribute declares a key="value" pair allowed on an element. Use
// is folded into Optional: use="required" clears it, anything else
// sets it.
type Attribute struct {
	Name     xml.Name
	Type     xml.Name
	Optional bool
	Doc      string
}

// A SimpleType declares a character-data type derived from a builtin
// or another simple type.
type SimpleType struct {
	Name xml.Name
	Doc  string
	// The base (or item type, for lists) the type restricts.
	Base xml.Name
	// True if values are whitespace-separated lists of Base.
	List bool
	// Member types, when the type is a union.
	Union       []xml.Name
	Restriction Restriction
	Anonymous   bool
}

// A Restriction records the facets constraining a simple type. Only
// Enum influences the generated ontology; the remaining facets are
// kept for diagnostics.
type Restriction struct {
	Enum                 []string
	Pattern              string
	MinLength, MaxLength int
	Doc                  string
}
