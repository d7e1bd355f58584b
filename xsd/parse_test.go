package xsd

import (
	"encoding/xml"
	"errors"
	"testing"
)

const shippingSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           xmlns:tns="urn:example:shipping"
           xmlns:addr="urn:example:address"
           targetNamespace="urn:example:shipping">
  <xs:annotation>
    <xs:documentation>
      Shipping vocabulary.
    </xs:documentation>
  </xs:annotation>
  <xs:import namespace="urn:example:address" schemaLocation="address.xsd"/>
  <xs:include schemaLocation="extras.xsd"/>

  <xs:complexType name="Shipment">
    <xs:annotation>
      <xs:documentation>A single shipment
        with its items.</xs:documentation>
    </xs:annotation>
    <xs:sequence>
      <xs:element name="trackingNumber" type="xs:string"/>
      <xs:element name="destination" type="addr:Address" minOccurs="0"/>
      <xs:element name="item" maxOccurs="unbounded">
        <xs:complexType>
          <xs:sequence>
            <xs:element name="sku" type="xs:string"/>
          </xs:sequence>
        </xs:complexType>
      </xs:element>
    </xs:sequence>
    <xs:attribute name="priority" type="xs:int" use="required"/>
    <xs:attribute name="note" type="xs:string"/>
  </xs:complexType>

  <xs:complexType name="ExpressShipment">
    <xs:complexContent>
      <xs:extension base="tns:Shipment">
        <xs:sequence>
          <xs:element name="courier" type="xs:string"/>
        </xs:sequence>
      </xs:extension>
    </xs:complexContent>
  </xs:complexType>

  <xs:simpleType name="Status">
    <xs:restriction base="xs:string">
      <xs:enumeration value="PENDING"/>
      <xs:enumeration value="IN_TRANSIT"/>
      <xs:enumeration value="DELIVERED"/>
    </xs:restriction>
  </xs:simpleType>

  <xs:element name="shipment" type="tns:Shipment"/>
</xs:schema>`

func parseTestDoc(t *testing.T, data string) *Document {
	t.Helper()
	doc, err := ParseDocument([]byte(data), "test.xsd")
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestParseDocument(t *testing.T) {
	doc := parseTestDoc(t, shippingSchema)

	if doc.TargetNS != "urn:example:shipping" {
		t.Errorf("targetNamespace = %q", doc.TargetNS)
	}
	if doc.Doc != "Shipping vocabulary." {
		t.Errorf("schema annotation = %q", doc.Doc)
	}
	if len(doc.Refs) != 2 {
		t.Fatalf("got %d refs, want 2", len(doc.Refs))
	}
	if doc.Refs[0].Include || doc.Refs[0].Namespace != "urn:example:address" {
		t.Errorf("first ref = %+v, want import of urn:example:address", doc.Refs[0])
	}
	if !doc.Refs[1].Include || doc.Refs[1].Location != "extras.xsd" {
		t.Errorf("second ref = %+v, want include of extras.xsd", doc.Refs[1])
	}
}

func TestParseComplexType(t *testing.T) {
	doc := parseTestDoc(t, shippingSchema)
	name := xml.Name{Space: "urn:example:shipping", Local: "Shipment"}
	ct := doc.ComplexTypes[name]
	if ct == nil {
		t.Fatal("Shipment not declared")
	}
	if ct.Doc != "A single shipment with its items." {
		t.Errorf("annotation whitespace not collapsed: %q", ct.Doc)
	}
	if ct.Content == nil || ct.Content.Kind != Sequence {
		t.Fatal("Shipment content is not a sequence")
	}
	if len(ct.Content.Particles) != 3 {
		t.Fatalf("got %d particles, want 3", len(ct.Content.Particles))
	}

	tracking := ct.Content.Particles[0]
	if tracking.Element.Name.Local != "trackingNumber" {
		t.Errorf("first particle is %q", tracking.Element.Name.Local)
	}
	if tracking.Occurs != (Occurs{Min: 1, Max: 1}) {
		t.Errorf("trackingNumber occurs = %+v, want 1..1", tracking.Occurs)
	}
	if want := (xml.Name{Space: schemaNS, Local: "string"}); tracking.Element.Type != want {
		t.Errorf("trackingNumber type = %v", tracking.Element.Type)
	}

	dest := ct.Content.Particles[1]
	if dest.Occurs != (Occurs{Min: 0, Max: 1}) {
		t.Errorf("destination occurs = %+v, want 0..1", dest.Occurs)
	}
	if dest.Element.Type.Space != "urn:example:address" {
		t.Errorf("destination type namespace = %q", dest.Element.Type.Space)
	}

	item := ct.Content.Particles[2]
	if !item.Occurs.Unbounded() {
		t.Errorf("item occurs = %+v, want unbounded", item.Occurs)
	}

	if len(ct.Attributes) != 2 {
		t.Fatalf("got %d attributes, want 2", len(ct.Attributes))
	}
	if ct.Attributes[0].Name.Local != "priority" || ct.Attributes[0].Optional {
		t.Errorf("priority = %+v, want required", ct.Attributes[0])
	}
	if !ct.Attributes[1].Optional {
		t.Errorf("note should be optional")
	}
}

func TestParseAnonymousType(t *testing.T) {
	doc := parseTestDoc(t, shippingSchema)
	name := xml.Name{Space: "urn:example:shipping", Local: "Item_Type"}
	ct := doc.ComplexTypes[name]
	if ct == nil {
		t.Fatal("inline type of element item was not declared as Item_Type")
	}
	if !ct.Anonymous {
		t.Error("Item_Type not marked anonymous")
	}

	shipment := doc.ComplexTypes[xml.Name{Space: "urn:example:shipping", Local: "Shipment"}]
	if got := shipment.Content.Particles[2].Element.Type; got != name {
		t.Errorf("item element type = %v, want %v", got, name)
	}
}

func TestParseExtension(t *testing.T) {
	doc := parseTestDoc(t, shippingSchema)
	ct := doc.ComplexTypes[xml.Name{Space: "urn:example:shipping", Local: "ExpressShipment"}]
	if ct == nil {
		t.Fatal("ExpressShipment not declared")
	}
	if !ct.Extension {
		t.Error("ExpressShipment not marked as extension")
	}
	if want := (xml.Name{Space: "urn:example:shipping", Local: "Shipment"}); ct.Base != want {
		t.Errorf("base = %v, want %v", ct.Base, want)
	}
	if ct.Content == nil || len(ct.Content.Particles) != 1 {
		t.Error("extension content model missing")
	}
}

func TestParseEnumeration(t *testing.T) {
	doc := parseTestDoc(t, shippingSchema)
	st := doc.SimpleTypes[xml.Name{Space: "urn:example:shipping", Local: "Status"}]
	if st == nil {
		t.Fatal("Status not declared")
	}
	want := []string{"PENDING", "IN_TRANSIT", "DELIVERED"}
	if len(st.Restriction.Enum) != len(want) {
		t.Fatalf("got %d enum values, want %d", len(st.Restriction.Enum), len(want))
	}
	for i, v := range want {
		if st.Restriction.Enum[i] != v {
			t.Errorf("enum[%d] = %q, want %q", i, st.Restriction.Enum[i], v)
		}
	}
	if want := (xml.Name{Space: schemaNS, Local: "string"}); st.Base != want {
		t.Errorf("base = %v", st.Base)
	}
}

func TestParseChoice(t *testing.T) {
	doc := parseTestDoc(t, `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
      targetNamespace="urn:example:pay">
    <xs:complexType name="Payment">
      <xs:choice>
        <xs:element name="card" type="xs:string"/>
        <xs:element name="iban" type="xs:string"/>
      </xs:choice>
    </xs:complexType>
  </xs:schema>`)
	ct := doc.ComplexTypes[xml.Name{Space: "urn:example:pay", Local: "Payment"}]
	if ct.Content.Kind != Choice {
		t.Fatalf("content kind = %v, want choice", ct.Content.Kind)
	}
	if len(ct.Content.Particles) != 2 {
		t.Errorf("got %d alternatives, want 2", len(ct.Content.Particles))
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"not xml", "junk"},
		{"wrong root", "<html></html>"},
		{"duplicate type", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
			<xs:complexType name="A"/>
			<xs:complexType name="A"/>
		</xs:schema>`},
		{"duplicate attribute", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
			<xs:attribute name="a" type="xs:string"/>
			<xs:attribute name="a" type="xs:string"/>
		</xs:schema>`},
		{"bad occurs", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
			<xs:complexType name="A">
				<xs:sequence>
					<xs:element name="x" type="xs:string" minOccurs="many"/>
				</xs:sequence>
			</xs:complexType>
		</xs:schema>`},
	}
	for _, c := range cases {
		_, err := ParseDocument([]byte(c.doc), "bad.xsd")
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%s: error is %T, not *ParseError", c.name, err)
		}
	}
}

// A type and an element may share a name; only same-space duplicates
// conflict.
func TestSymbolSpaces(t *testing.T) {
	doc := parseTestDoc(t, `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
      xmlns:tns="urn:x" targetNamespace="urn:x">
    <xs:complexType name="order"/>
    <xs:element name="order" type="tns:order"/>
  </xs:schema>`)
	name := xml.Name{Space: "urn:x", Local: "order"}
	if doc.ComplexTypes[name] == nil {
		t.Error("type order missing")
	}
	if doc.Elements[name] == nil {
		t.Error("element order missing")
	}
}

func TestTopLevelAttributeQualified(t *testing.T) {
	doc := parseTestDoc(t, `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
      targetNamespace="urn:x">
    <xs:attribute name="lang" type="xs:language"/>
  </xs:schema>`)
	if doc.Attributes[xml.Name{Space: "urn:x", Local: "lang"}] == nil {
		t.Error("top-level attribute not qualified by target namespace")
	}
}

func TestProhibitedAttribute(t *testing.T) {
	doc := parseTestDoc(t, `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
      targetNamespace="urn:x">
    <xs:complexType name="A">
      <xs:attribute name="gone" type="xs:string" use="prohibited"/>
      <xs:attribute name="kept" type="xs:string"/>
    </xs:complexType>
  </xs:schema>`)
	ct := doc.ComplexTypes[xml.Name{Space: "urn:x", Local: "A"}]
	if len(ct.Attributes) != 1 || ct.Attributes[0].Name.Local != "kept" {
		t.Errorf("attributes = %+v, want only kept", ct.Attributes)
	}
}

func TestSimpleContent(t *testing.T) {
	doc := parseTestDoc(t, `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
      targetNamespace="urn:x">
    <xs:complexType name="Price">
      <xs:simpleContent>
        <xs:extension base="xs:decimal">
          <xs:attribute name="currency" type="xs:string" use="required"/>
        </xs:extension>
      </xs:simpleContent>
    </xs:complexType>
  </xs:schema>`)
	ct := doc.ComplexTypes[xml.Name{Space: "urn:x", Local: "Price"}]
	if !ct.SimpleContent || !ct.Extension {
		t.Errorf("Price = %+v, want simple content extension", ct)
	}
	if want := (xml.Name{Space: schemaNS, Local: "decimal"}); ct.Base != want {
		t.Errorf("base = %v", ct.Base)
	}
	if len(ct.Attributes) != 1 {
		t.Errorf("got %d attributes, want 1", len(ct.Attributes))
	}
}

func TestOccursWithin(t *testing.T) {
	cases := []struct{ inner, outer, want Occurs }{
		{Occurs{Min: 1, Max: 1}, Occurs{Min: 1, Max: 1}, Occurs{Min: 1, Max: 1}},
		{Occurs{Min: 1, Max: 1}, Occurs{Min: 0, Max: 1}, Occurs{Min: 0, Max: 1}},
		{Occurs{Min: 1, Max: 3}, Occurs{Min: 2, Max: 2}, Occurs{Min: 2, Max: 6}},
		{Occurs{Min: 1, Max: 1}, Occurs{Min: 1, Max: -1}, Occurs{Min: 1, Max: -1}},
		{Occurs{Min: 0, Max: -1}, Occurs{Min: 1, Max: 1}, Occurs{Min: 0, Max: -1}},
	}
	for _, c := range cases {
		if got := c.inner.Within(c.outer); got != c.want {
			t.Errorf("%+v within %+v = %+v, want %+v", c.inner, c.outer, got, c.want)
		}
	}
}

// A group wrapper inside a complex type must carry 1..1 bounds so it
// never loosens the bounds of the referenced group's members.
func TestGroupWrapperBounds(t *testing.T) {
	doc := parseTestDoc(t, `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
      xmlns:tns="urn:x" targetNamespace="urn:x">
    <xs:group name="idFields">
      <xs:sequence>
        <xs:element name="id" type="xs:string"/>
      </xs:sequence>
    </xs:group>
    <xs:complexType name="Record">
      <xs:group ref="tns:idFields" minOccurs="0"/>
    </xs:complexType>
  </xs:schema>`)
	ct := doc.ComplexTypes[xml.Name{Space: "urn:x", Local: "Record"}]
	if ct.Content.Occurs != (Occurs{Min: 1, Max: 1}) {
		t.Errorf("wrapper occurs = %+v, want 1..1", ct.Content.Occurs)
	}
	if got := ct.Content.Particles[0].Occurs; got != (Occurs{Min: 0, Max: 1}) {
		t.Errorf("group reference occurs = %+v, want 0..1", got)
	}
}
