package xsd

import (
	"context"
	"encoding/xml"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ecodata/xsd2owl/internal/ordered"
)

func resolveFiles(t *testing.T, files map[string]string, root string) (*ResolvedSet, error) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeSchema(t, dir, name, content)
	}
	r := NewResolver(NewStore())
	return r.Resolve(context.Background(), filepath.Join(dir, root))
}

func TestResolveImports(t *testing.T) {
	set, err := resolveFiles(t, map[string]string{
		"a.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
			xmlns:b="urn:b" targetNamespace="urn:a">
			<xs:import namespace="urn:b" schemaLocation="b.xsd"/>
			<xs:complexType name="A">
				<xs:sequence>
					<xs:element name="other" type="b:B"/>
				</xs:sequence>
			</xs:complexType>
		</xs:schema>`,
		"b.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
			targetNamespace="urn:b">
			<xs:complexType name="B"/>
		</xs:schema>`,
	}, "a.xsd")
	if err != nil {
		t.Fatal(err)
	}

	if got := set.NamespaceNames(); !reflect.DeepEqual(got, []string{"urn:a", "urn:b"}) {
		t.Fatalf("namespaces = %v", got)
	}
	if _, ok := set.ComplexType(xml.Name{Space: "urn:b", Local: "B"}); !ok {
		t.Error("imported type urn:b B not visible")
	}
}

func TestResolveCycle(t *testing.T) {
	set, err := resolveFiles(t, map[string]string{
		"a.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
			targetNamespace="urn:a">
			<xs:import namespace="urn:b" schemaLocation="b.xsd"/>
			<xs:complexType name="A"/>
		</xs:schema>`,
		"b.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
			targetNamespace="urn:b">
			<xs:import namespace="urn:a" schemaLocation="a.xsd"/>
			<xs:complexType name="B"/>
		</xs:schema>`,
	}, "a.xsd")
	if err != nil {
		t.Fatal(err)
	}
	for _, ns := range []string{"urn:a", "urn:b"} {
		view := set.View(ns)
		if view == nil {
			t.Fatalf("namespace %s missing", ns)
		}
		if len(view.Documents) != 1 {
			t.Errorf("namespace %s resolved from %d documents, want 1", ns, len(view.Documents))
		}
	}
}

// Two parts of one namespace must merge to the same declaration set no
// matter which include is listed first.
func TestIncludeOrderIndependence(t *testing.T) {
	part1 := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		targetNamespace="urn:parts">
		<xs:complexType name="Wheel"/>
	</xs:schema>`
	part2 := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		targetNamespace="urn:parts">
		<xs:complexType name="Axle"/>
		<xs:element name="axle" type="xs:string"/>
	</xs:schema>`
	root12 := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		targetNamespace="urn:parts">
		<xs:include schemaLocation="p1.xsd"/>
		<xs:include schemaLocation="p2.xsd"/>
	</xs:schema>`
	root21 := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		targetNamespace="urn:parts">
		<xs:include schemaLocation="p2.xsd"/>
		<xs:include schemaLocation="p1.xsd"/>
	</xs:schema>`

	declNames := func(root string) [][]xml.Name {
		set, err := resolveFiles(t, map[string]string{
			"p1.xsd": part1, "p2.xsd": part2, "root.xsd": root,
		}, "root.xsd")
		if err != nil {
			t.Fatal(err)
		}
		view := set.View("urn:parts")
		return [][]xml.Name{
			ordered.XMLNames(view.ComplexTypes),
			ordered.XMLNames(view.Elements),
		}
	}

	if a, b := declNames(root12), declNames(root21); !reflect.DeepEqual(a, b) {
		t.Errorf("include order changed the merged declarations:\n%v\n%v", a, b)
	}
}

func TestResolveConflict(t *testing.T) {
	_, err := resolveFiles(t, map[string]string{
		"root.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
			targetNamespace="urn:parts">
			<xs:include schemaLocation="p1.xsd"/>
			<xs:include schemaLocation="p2.xsd"/>
		</xs:schema>`,
		"p1.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
			targetNamespace="urn:parts">
			<xs:complexType name="Wheel"/>
		</xs:schema>`,
		"p2.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
			targetNamespace="urn:parts">
			<xs:complexType name="Wheel"/>
		</xs:schema>`,
	}, "root.xsd")
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("error is %T (%v), not *ConflictError", err, err)
	}
	if ce.Name.Local != "Wheel" || ce.Namespace != "urn:parts" {
		t.Errorf("conflict = %+v", ce)
	}
}

// Two included documents may each hold an element named item with an
// inline type; both mint Item_Type, and the later one is re-suffixed
// at merge time instead of failing the set.
func TestResolveAnonymousTypeNameCollision(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "root.xsd", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		targetNamespace="urn:parts">
		<xs:include schemaLocation="p1.xsd"/>
		<xs:include schemaLocation="p2.xsd"/>
	</xs:schema>`)
	writeSchema(t, dir, "p1.xsd", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		targetNamespace="urn:parts">
		<xs:complexType name="Widget">
			<xs:sequence>
				<xs:element name="item">
					<xs:complexType>
						<xs:sequence><xs:element name="sku" type="xs:string"/></xs:sequence>
					</xs:complexType>
				</xs:element>
			</xs:sequence>
		</xs:complexType>
	</xs:schema>`)
	p2 := writeSchema(t, dir, "p2.xsd", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		targetNamespace="urn:parts">
		<xs:complexType name="Gadget">
			<xs:sequence>
				<xs:element name="item">
					<xs:complexType>
						<xs:sequence><xs:element name="mass" type="xs:decimal"/></xs:sequence>
					</xs:complexType>
				</xs:element>
			</xs:sequence>
		</xs:complexType>
	</xs:schema>`)

	store := NewStore()
	set, err := NewResolver(store).Resolve(context.Background(), filepath.Join(dir, "root.xsd"))
	if err != nil {
		t.Fatalf("colliding anonymous type names must merge, not fail: %v", err)
	}
	view := set.View("urn:parts")
	first := xml.Name{Space: "urn:parts", Local: "Item_Type"}
	second := xml.Name{Space: "urn:parts", Local: "Item_Type2"}
	if _, ok := view.ComplexTypes[first]; !ok {
		t.Fatalf("Item_Type missing; types = %v", ordered.XMLNames(view.ComplexTypes))
	}
	if _, ok := view.ComplexTypes[second]; !ok {
		t.Fatalf("Item_Type2 missing; types = %v", ordered.XMLNames(view.ComplexTypes))
	}

	// Each enclosing type must still reference its own inline type.
	memberType := func(local string) xml.Name {
		ct, ok := set.ComplexType(xml.Name{Space: "urn:parts", Local: local})
		if !ok {
			t.Fatalf("type %s missing", local)
		}
		return ct.Content.Particles[0].Element.Type
	}
	if got := memberType("Widget"); got != first {
		t.Errorf("Widget member type = %v, want %v", got, first)
	}
	if got := memberType("Gadget"); got != second {
		t.Errorf("Gadget member type = %v, want %v", got, second)
	}

	// The rename operates on a copy; the cached parse keeps its
	// original names.
	cached, err := store.Fetch(context.Background(), p2)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cached.ComplexTypes[first]; !ok {
		t.Error("merge renamed the cached document in place")
	}
}

// A type and an element sharing a local name is not a conflict.
func TestResolveNoConflictAcrossSymbolSpaces(t *testing.T) {
	_, err := resolveFiles(t, map[string]string{
		"root.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
			xmlns:tns="urn:x" targetNamespace="urn:x">
			<xs:complexType name="order"/>
			<xs:element name="order" type="tns:order"/>
		</xs:schema>`,
	}, "root.xsd")
	if err != nil {
		t.Fatal(err)
	}
}

func TestResolveMissingImport(t *testing.T) {
	set, err := resolveFiles(t, map[string]string{
		"a.xsd": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
			targetNamespace="urn:a">
			<xs:import namespace="urn:gone" schemaLocation="gone.xsd"/>
			<xs:complexType name="A"/>
		</xs:schema>`,
	}, "a.xsd")
	if err != nil {
		t.Fatalf("missing import should warn, not fail: %v", err)
	}
	if set.View("urn:gone") != nil {
		t.Error("unfetchable namespace should be absent from the set")
	}
}

func TestResolveMissingRoot(t *testing.T) {
	r := NewResolver(NewStore())
	_, err := r.Resolve(context.Background(), filepath.Join(t.TempDir(), "nope.xsd"))
	if err == nil {
		t.Fatal("missing root must be fatal")
	}
}
