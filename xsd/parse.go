package xsd

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ecodata/xsd2owl/xmltree"
)

// ParseDocument parses a single schema document fetched from location.
// The location is recorded on the document and used in error messages;
// it does not have to be resolvable.
func ParseDocument(data []byte, location string) (*Document, error) {
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, &ParseError{Location: location, Err: err}
	}
	if (root.Name != xml.Name{Space: schemaNS, Local: "schema"}) {
		return nil, &ParseError{
			Location: location,
			Err:      fmt.Errorf("root element is <%s>, not an XML Schema", root.Prefix(root.Name)),
		}
	}
	doc := &Document{
		Location:     location,
		TargetNS:     root.Attr("", "targetNamespace"),
		ComplexTypes: make(map[xml.Name]*ComplexType),
		SimpleTypes:  make(map[xml.Name]*SimpleType),
		Elements:     make(map[xml.Name]*Element),
		Attributes:   make(map[xml.Name]*Attribute),
		Groups:       make(map[xml.Name]*Group),
	}
	p := &parser{doc: doc}
	if err := p.parse(root); err != nil {
		return nil, &ParseError{Location: location, Err: err}
	}
	return doc, nil
}

type parser struct {
	doc *Document
}

// stop aborts parsing with a message. Parse methods are deeply nested;
// rather than threading an error through every level, errors are
// raised as panics and recovered at the top.
func stop(msg string) {
	panic(parseError{msg})
}

func stopf(format string, v ...interface{}) {
	panic(parseError{fmt.Sprintf(format, v...)})
}

type parseError struct{ message string }

func catchParseError(err *error) {
	if r := recover(); r != nil {
		pe, ok := r.(parseError)
		if !ok {
			panic(r)
		}
		*err = errors.New(pe.message)
	}
}

func (p *parser) parse(root *xmltree.Element) (err error) {
	defer catchParseError(&err)

	var doc []string
	for i := range root.Children {
		el := &root.Children[i]
		if el.Name.Space != schemaNS {
			continue
		}
		switch el.Name.Local {
		case "import":
			p.doc.Refs = append(p.doc.Refs, Ref{
				Namespace: el.Attr("", "namespace"),
				Location:  el.Attr("", "schemaLocation"),
			})
		case "include":
			p.doc.Refs = append(p.doc.Refs, Ref{
				Namespace: p.doc.TargetNS,
				Location:  el.Attr("", "schemaLocation"),
				Include:   true,
			})
		case "annotation":
			if s := parseAnnotation(el); s != "" {
				doc = append(doc, s)
			}
		case "complexType":
			name := el.ResolveDefault(el.Attr("", "name"), p.doc.TargetNS)
			p.declareComplexType(p.parseComplexType(el, name, false))
		case "simpleType":
			name := el.ResolveDefault(el.Attr("", "name"), p.doc.TargetNS)
			p.declareSimpleType(p.parseSimpleType(el, name, false))
		case "element":
			e, _ := p.parseElement(el)
			if e == nil {
				continue
			}
			if _, dup := p.doc.Elements[e.Name]; dup {
				stopf("duplicate top-level element %s", e.Name.Local)
			}
			p.doc.Elements[e.Name] = e
		case "attribute":
			a := p.parseAttribute(el)
			if a == nil {
				continue
			}
			if a.Name.Space == "" {
				// Top-level attributes are qualified by the target
				// namespace even without a prefix.
				a.Name.Space = p.doc.TargetNS
			}
			if _, dup := p.doc.Attributes[a.Name]; dup {
				stopf("duplicate top-level attribute %s", a.Name.Local)
			}
			p.doc.Attributes[a.Name] = a
		case "group":
			g := p.parseNamedGroup(el)
			if _, dup := p.doc.Groups[g.Name]; dup {
				stopf("duplicate top-level group %s", g.Name.Local)
			}
			p.doc.Groups[g.Name] = g
		case "attributeGroup", "notation", "redefine":
			// Not modeled; attribute groups are uncommon in the
			// vocabularies this tool targets.
		}
	}
	p.doc.Doc = strings.Join(doc, "\n\n")
	return nil
}

func (p *parser) declareComplexType(t *ComplexType) {
	if _, dup := p.doc.ComplexTypes[t.Name]; dup {
		stopf("duplicate type declaration %s", t.Name.Local)
	}
	if _, dup := p.doc.SimpleTypes[t.Name]; dup {
		stopf("duplicate type declaration %s", t.Name.Local)
	}
	p.doc.ComplexTypes[t.Name] = t
}

func (p *parser) declareSimpleType(t *SimpleType) {
	if _, dup := p.doc.SimpleTypes[t.Name]; dup {
		stopf("duplicate type declaration %s", t.Name.Local)
	}
	if _, dup := p.doc.ComplexTypes[t.Name]; dup {
		stopf("duplicate type declaration %s", t.Name.Local)
	}
	p.doc.SimpleTypes[t.Name] = t
}

// anonName synthesizes a stable name for an inline type from its
// enclosing declaration, so repeated runs over the same schema set
// mint the same term. Collisions with named declarations get a
// numeric suffix, in document order.
func (p *parser) anonName(enclosing string) xml.Name {
	base := upperFirst(enclosing) + "_Type"
	name := xml.Name{Space: p.doc.TargetNS, Local: base}
	for n := 2; p.nameTaken(name); n++ {
		name.Local = fmt.Sprintf("%s%d", base, n)
	}
	return name
}

func (p *parser) nameTaken(name xml.Name) bool {
	if _, ok := p.doc.ComplexTypes[name]; ok {
		return true
	}
	_, ok := p.doc.SimpleTypes[name]
	return ok
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (p *parser) parseComplexType(root *xmltree.Element, name xml.Name, anonymous bool) *ComplexType {
	t := &ComplexType{
		Name:      name,
		Anonymous: anonymous,
		Abstract:  parseBool(root.Attr("", "abstract")),
		Mixed:     parseBool(root.Attr("", "mixed")),
	}
	var doc []string
	for i := range root.Children {
		el := &root.Children[i]
		if el.Name.Space != schemaNS {
			continue
		}
		switch el.Name.Local {
		case "annotation":
			if s := parseAnnotation(el); s != "" {
				doc = append(doc, s)
			}
		case "simpleContent":
			p.parseSimpleContent(t, el)
		case "complexContent":
			p.parseComplexContent(t, el)
		case "sequence", "choice", "all":
			t.Content = p.parseModelGroup(el)
		case "group":
			t.Content = &Group{
				Kind:   Sequence,
				Occurs: Occurs{Min: 1, Max: 1},
				Particles: []Particle{{
					Occurs:   parseOccurs(el),
					GroupRef: el.Resolve(el.Attr("", "ref")),
				}},
			}
		case "attribute":
			if a := p.parseAttribute(el); a != nil {
				t.Attributes = append(t.Attributes, *a)
			}
		}
	}
	t.Doc = strings.Join(doc, "\n\n")
	return t
}

// simpleContent: character data plus attributes. The base names the
// datatype of the content.
func (p *parser) parseSimpleContent(t *ComplexType, root *xmltree.Element) {
	t.SimpleContent = true
	for i := range root.Children {
		el := &root.Children[i]
		switch el.Name.Local {
		case "extension":
			t.Extension = true
			fallthrough
		case "restriction":
			t.Base = el.Resolve(el.Attr("", "base"))
			for _, a := range el.Search(schemaNS, "attribute") {
				if attr := p.parseAttribute(a); attr != nil {
					t.Attributes = append(t.Attributes, *attr)
				}
			}
		case "annotation":
			if s := parseAnnotation(el); s != "" {
				t.Doc = join2(t.Doc, s)
			}
		}
	}
}

// complexContent: the type extends or restricts the content model of
// another complex type.
func (p *parser) parseComplexContent(t *ComplexType, root *xmltree.Element) {
	for i := range root.Children {
		el := &root.Children[i]
		switch el.Name.Local {
		case "extension":
			t.Extension = true
			fallthrough
		case "restriction":
			t.Base = el.Resolve(el.Attr("", "base"))
			for j := range el.Children {
				child := &el.Children[j]
				if child.Name.Space != schemaNS {
					continue
				}
				switch child.Name.Local {
				case "sequence", "choice", "all":
					t.Content = p.parseModelGroup(child)
				case "group":
					t.Content = &Group{
						Kind:   Sequence,
						Occurs: Occurs{Min: 1, Max: 1},
						Particles: []Particle{{
							Occurs:   parseOccurs(child),
							GroupRef: child.Resolve(child.Attr("", "ref")),
						}},
					}
				case "attribute":
					if a := p.parseAttribute(child); a != nil {
						t.Attributes = append(t.Attributes, *a)
					}
				}
			}
		case "annotation":
			if s := parseAnnotation(el); s != "" {
				t.Doc = join2(t.Doc, s)
			}
		}
	}
}

func groupKind(local string) GroupKind {
	switch local {
	case "sequence":
		return Sequence
	case "choice":
		return Choice
	case "all":
		return All
	}
	stop("unexpected model group <" + local + ">")
	return Sequence
}

func (p *parser) parseModelGroup(root *xmltree.Element) *Group {
	g := &Group{
		Kind:   groupKind(root.Name.Local),
		Occurs: parseOccurs(root),
	}
	for i := range root.Children {
		el := &root.Children[i]
		if el.Name.Space != schemaNS {
			continue
		}
		switch el.Name.Local {
		case "element":
			e, occurs := p.parseElement(el)
			if e == nil {
				continue
			}
			g.Particles = append(g.Particles, Particle{Occurs: occurs, Element: e})
		case "sequence", "choice", "all":
			nested := p.parseModelGroup(el)
			g.Particles = append(g.Particles, Particle{Occurs: nested.Occurs, Group: nested})
		case "group":
			g.Particles = append(g.Particles, Particle{
				Occurs:   parseOccurs(el),
				GroupRef: el.Resolve(el.Attr("", "ref")),
			})
		case "any":
			// Wildcards carry no name to derive a property from.
		case "annotation":
			if s := parseAnnotation(el); s != "" {
				g.Doc = join2(g.Doc, s)
			}
		}
	}
	return g
}

func (p *parser) parseNamedGroup(root *xmltree.Element) *Group {
	name := root.ResolveDefault(root.Attr("", "name"), p.doc.TargetNS)
	for i := range root.Children {
		el := &root.Children[i]
		switch el.Name.Local {
		case "sequence", "choice", "all":
			g := p.parseModelGroup(el)
			g.Name = name
			return g
		}
	}
	stopf("group %s has no sequence, choice or all", name.Local)
	return nil
}

// parseElement parses an element declaration or reference, returning
// the element and its occurrence bounds. Abstract placeholder
// declarations return nil.
func (p *parser) parseElement(root *xmltree.Element) (*Element, Occurs) {
	occurs := parseOccurs(root)
	if ref := root.Attr("", "ref"); ref != "" {
		return &Element{Name: root.Resolve(ref), Ref: true}, occurs
	}
	e := &Element{
		Name:     root.ResolveDefault(root.Attr("", "name"), p.doc.TargetNS),
		Nillable: parseBool(root.Attr("", "nillable")),
		Abstract: parseBool(root.Attr("", "abstract")),
	}
	if e.Name.Local == "" {
		stop("element with neither name nor ref")
	}
	if typ := root.Attr("", "type"); typ != "" {
		e.Type = root.Resolve(typ)
	}
	var doc []string
	for i := range root.Children {
		el := &root.Children[i]
		if el.Name.Space != schemaNS {
			continue
		}
		switch el.Name.Local {
		case "annotation":
			if s := parseAnnotation(el); s != "" {
				doc = append(doc, s)
			}
		case "complexType":
			if e.Type != (xml.Name{}) {
				stopf("element %s has both a type attribute and an inline type", e.Name.Local)
			}
			name := p.anonName(e.Name.Local)
			p.declareComplexType(p.parseComplexType(el, name, true))
			e.Type = name
		case "simpleType":
			if e.Type != (xml.Name{}) {
				stopf("element %s has both a type attribute and an inline type", e.Name.Local)
			}
			name := p.anonName(e.Name.Local)
			p.declareSimpleType(p.parseSimpleType(el, name, true))
			e.Type = name
		}
	}
	e.Doc = strings.Join(doc, "\n\n")
	return e, occurs
}

// parseAttribute parses an attribute declaration. Attributes with
// use="prohibited" return nil. Unqualified attribute names keep an
// empty namespace; the translator falls back to the enclosing type's
// namespace when minting a property for them.
func (p *parser) parseAttribute(root *xmltree.Element) *Attribute {
	if root.Attr("", "use") == "prohibited" {
		return nil
	}
	a := &Attribute{
		Optional: root.Attr("", "use") != "required",
	}
	if ref := root.Attr("", "ref"); ref != "" {
		a.Name = root.Resolve(ref)
		return a
	}
	if name := root.Attr("", "name"); strings.Contains(name, ":") {
		a.Name = root.Resolve(name)
	} else {
		a.Name.Local = root.Attr("", "name")
	}
	if typ := root.Attr("", "type"); typ != "" {
		a.Type = root.Resolve(typ)
	}
	var doc []string
	for i := range root.Children {
		el := &root.Children[i]
		if el.Name.Space != schemaNS {
			continue
		}
		switch el.Name.Local {
		case "annotation":
			if s := parseAnnotation(el); s != "" {
				doc = append(doc, s)
			}
		case "simpleType":
			if a.Type != (xml.Name{}) {
				stopf("attribute %s has both a type attribute and an inline type", a.Name.Local)
			}
			name := p.anonName(a.Name.Local)
			p.declareSimpleType(p.parseSimpleType(el, name, true))
			a.Type = name
		}
	}
	a.Doc = strings.Join(doc, "\n\n")
	return a
}

func (p *parser) parseSimpleType(root *xmltree.Element, name xml.Name, anonymous bool) *SimpleType {
	t := &SimpleType{Name: name, Anonymous: anonymous}
	var doc []string
	for i := range root.Children {
		el := &root.Children[i]
		if el.Name.Space != schemaNS {
			continue
		}
		switch el.Name.Local {
		case "restriction":
			t.Base = el.Resolve(el.Attr("", "base"))
			t.Restriction = parseRestriction(el)
		case "list":
			t.List = true
			if item := el.Attr("", "itemType"); item != "" {
				t.Base = el.Resolve(item)
			}
		case "union":
			for _, member := range strings.Fields(el.Attr("", "memberTypes")) {
				t.Union = append(t.Union, el.Resolve(member))
			}
		case "annotation":
			if s := parseAnnotation(el); s != "" {
				doc = append(doc, s)
			}
		}
	}
	t.Doc = strings.Join(doc, "\n\n")
	return t
}

// parseRestriction records facets. The ontology only consumes
// enumerations; other facets are kept so callers can report them.
func parseRestriction(root *xmltree.Element) Restriction {
	var r Restriction
	for i := range root.Children {
		el := &root.Children[i]
		if el.Name.Space != schemaNS {
			continue
		}
		switch el.Name.Local {
		case "enumeration":
			r.Enum = append(r.Enum, el.Attr("", "value"))
		case "pattern":
			if r.Pattern != "" {
				r.Pattern += "|"
			}
			r.Pattern += el.Attr("", "value")
		case "length":
			r.MinLength = parseInt(el.Attr("", "value"))
			r.MaxLength = r.MinLength
		case "minLength":
			r.MinLength = parseInt(el.Attr("", "value"))
		case "maxLength":
			r.MaxLength = parseInt(el.Attr("", "value"))
		case "annotation":
			if s := parseAnnotation(el); s != "" {
				r.Doc = join2(r.Doc, s)
			}
		}
	}
	return r
}

// parseAnnotation joins the text of every <xs:documentation> child,
// collapsing runs of whitespace so annotations serialize as one line.
func parseAnnotation(root *xmltree.Element) string {
	var parts []string
	for _, el := range root.Search(schemaNS, "documentation") {
		if s := cleanString(string(el.Content)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func cleanString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func join2(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n\n" + b
}

func parseOccurs(el *xmltree.Element) Occurs {
	o := Occurs{Min: 1, Max: 1}
	if v := el.Attr("", "minOccurs"); v != "" {
		o.Min = parseInt(v)
	}
	if v := el.Attr("", "maxOccurs"); v != "" {
		if v == "unbounded" {
			o.Max = -1
		} else {
			o.Max = parseInt(v)
		}
	}
	return o
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		stop(err.Error())
	}
	return n
}

func parseBool(s string) bool {
	switch s {
	case "", "0", "false":
		return false
	case "1", "true":
		return true
	}
	stop("invalid boolean value " + s)
	return false
}
