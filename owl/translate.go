package owl

import (
	"encoding/xml"
	"fmt"
	"hash/fnv"
	"io"
	"log"
	"strings"

	"github.com/ecodata/xsd2owl/internal/ordered"
	"github.com/ecodata/xsd2owl/rdf"
	"github.com/ecodata/xsd2owl/xsd"
)

// A Config holds the translation settings. The zero value is usable;
// it logs nothing and renders enumerations as datatypes.
type Config struct {
	logger          xsd.Logger
	loglevel        int
	enumIndividuals bool
}

// An Option adjusts a Config and returns an Option restoring the
// previous setting.
type Option func(*Config) Option

// Option applies opts to cfg, returning an Option that reverts the
// last one applied.
func (cfg *Config) Option(opts ...Option) (previous Option) {
	for _, opt := range opts {
		previous = opt(cfg)
	}
	return previous
}

// LogOutput sets the destination for log messages.
func LogOutput(dest io.Writer) Option {
	return LogWriter(log.New(dest, "", 0))
}

// LogWriter sets an existing logger as the destination for log
// messages.
func LogWriter(l xsd.Logger) Option {
	return func(cfg *Config) Option {
		prev := cfg.logger
		cfg.logger = l
		return LogWriter(prev)
	}
}

// LogLevel sets the verbosity of log messages. Level 0 logs warnings
// only; higher levels add progressively more detail about individual
// declarations.
func LogLevel(level int) Option {
	return func(cfg *Config) Option {
		prev := cfg.loglevel
		cfg.loglevel = level
		return LogLevel(prev)
	}
}

// EnumIndividuals selects how enumerated simple types are rendered.
// When set, an enumeration becomes an owl:Class whose members are
// named individuals; otherwise it becomes an rdfs:Datatype with a
// closed lexical space.
func EnumIndividuals(on bool) Option {
	return func(cfg *Config) Option {
		prev := cfg.enumIndividuals
		cfg.enumIndividuals = on
		return EnumIndividuals(prev)
	}
}

func (cfg *Config) logf(format string, v ...interface{}) {
	if cfg.logger != nil {
		cfg.logger.Printf(format, v...)
	}
}

func (cfg *Config) debugf(format string, v ...interface{}) {
	if cfg.loglevel > 0 {
		cfg.logf(format, v...)
	}
}

// typeInfo is the memoized outcome of resolving a type reference. A
// nil term means the type contributes no range axiom.
type typeInfo struct {
	term   rdf.Term
	object bool
}

type translator struct {
	*Config
	set    *xsd.ResolvedSet
	policy *Policy
	graph  *rdf.Graph
	// Memoized type resolutions, keyed by qualified name. An entry is
	// registered before its declaration is walked, so mutually
	// recursive types terminate.
	types map[xml.Name]typeInfo
	// Guards simple type base chains, which have no natural
	// pre-registration point.
	walking map[xml.Name]bool
}

// Translate derives an ontology graph from a resolved schema set under
// the given namespace policy. Namespaces the policy classifies as
// external contribute no axioms; references into them become plain
// IRIs. A reference to a name that is neither declared in the set nor
// externally mapped returns an *UnresolvedReferenceError.
func (cfg *Config) Translate(set *xsd.ResolvedSet, policy *Policy) (*rdf.Graph, error) {
	t := &translator{
		Config:  cfg,
		set:     set,
		policy:  policy,
		graph:   rdf.New(),
		types:   make(map[xml.Name]typeInfo),
		walking: make(map[xml.Name]bool),
	}
	t.bindPrefixes()

	for _, ns := range set.NamespaceNames() {
		entry := policy.Classify(ns)
		if entry.Mode != Generate {
			t.debugf("namespace %s is external, skipping its declarations", ns)
			continue
		}
		view := set.View(ns)
		for _, name := range ordered.XMLNames(view.ComplexTypes) {
			if err := t.defineComplexType(name, view.ComplexTypes[name]); err != nil {
				return nil, err
			}
		}
		for _, name := range ordered.XMLNames(view.SimpleTypes) {
			st := view.SimpleTypes[name]
			if len(st.Restriction.Enum) > 0 {
				t.defineEnum(name, st)
			}
		}
		for _, name := range ordered.XMLNames(view.Elements) {
			if err := t.defineGlobalElement(name, view.Elements[name]); err != nil {
				return nil, err
			}
		}
		for _, name := range ordered.XMLNames(view.Attributes) {
			if err := t.defineGlobalAttribute(name, view.Attributes[name]); err != nil {
				return nil, err
			}
		}
	}
	return t.graph, nil
}

// bindPrefixes declares a prefix for every namespace the policy names.
// User bindings win; remaining namespaces get synthesized ns1, ns2...
// prefixes in sorted namespace order. The empty prefix is reserved for
// the default base IRI unless the user rebinds it.
func (t *translator) bindPrefixes() {
	bound := map[string]bool{
		rdf.RDFNS: true, rdf.RDFSNS: true, rdf.OWLNS: true, rdf.XSDNS: true,
	}
	ordered.Range(t.policy.Prefixes, func(prefix, iri string) {
		t.graph.Bind(prefix, iri)
		bound[iri] = true
	})
	if base := NamespaceIRI(t.policy.DefaultBaseIRI); base != "" && !bound[base] {
		if _, taken := t.policy.Prefixes[""]; !taken {
			t.graph.Bind("", base)
			bound[base] = true
		}
	}
	// Only generated namespaces get synthesized prefixes; citations of
	// external vocabularies stay in full IRI form unless the user binds
	// a prefix for them.
	n := 0
	ordered.Range(t.policy.Entries, func(ns string, e Entry) {
		if e.Mode != Generate {
			return
		}
		iri := NamespaceIRI(e.BaseIRI)
		if iri == "" {
			iri = NamespaceIRI(ns)
		}
		if bound[iri] {
			return
		}
		n++
		t.graph.Bind(fmt.Sprintf("ns%d", n), iri)
		bound[iri] = true
	})
}

func (t *translator) defineComplexType(name xml.Name, ct *xsd.ComplexType) error {
	if ct.SimpleContent {
		// Character data with attributes. The content collapses to a
		// datatype wherever the type is referenced; the attributes
		// have no class to hang on.
		if len(ct.Attributes) > 0 {
			t.logf("warning: complexType %s: attributes on simple content are not translated", name.Local)
		}
		return nil
	}
	iri := rdf.IRI(t.policy.TermIRI(name))
	t.types[name] = typeInfo{term: iri, object: true}
	t.debugf("complexType %s -> class %s", name.Local, iri)

	t.graph.Add(iri, rdf.RDFType, rdf.OWLClass)
	t.annotate(iri, classLabel(name.Local), ct.Doc)

	if !isZero(ct.Base) && !xsd.IsAnyType(ct.Base) {
		referrer := "complexType " + name.Local
		base, object, err := t.typeTerm(ct.Base, referrer)
		if err != nil {
			return err
		}
		if object && base != nil {
			t.graph.Add(iri, rdf.RDFSSubClassOf, base)
		} else {
			t.debugf("%s: base %s is a datatype, no subclass axiom", referrer, ct.Base.Local)
		}
	}
	if err := t.contentGroup(iri, name, ct.Content, xsd.Occurs{Min: 1, Max: 1}); err != nil {
		return err
	}
	for i := range ct.Attributes {
		a := &ct.Attributes[i]
		occurs := xsd.Occurs{Min: 1, Max: 1}
		if a.Optional {
			occurs.Min = 0
		}
		referrer := fmt.Sprintf("attribute %s in complexType %s", a.Name.Local, name.Local)
		if _, err := t.property(iri, name, a.Name, a.Type, a.Doc, occurs, true, referrer); err != nil {
			return err
		}
	}
	return nil
}

// contentGroup walks a content model, deriving one property per
// element member. Choice groups additionally assert that the class is
// a subclass of the union of per-alternative restrictions; nested
// groups are flattened. outer carries the occurrence bounds of the
// enclosing context, so a member of an optional or repeating group is
// never given a tighter cardinality than the group allows.
func (t *translator) contentGroup(class rdf.IRI, className xml.Name, g *xsd.Group, outer xsd.Occurs) error {
	if g == nil {
		return nil
	}
	bounds := g.Occurs.Within(outer)
	choice := g.Kind == xsd.Choice && bounds.Max == 1
	if g.Kind == xsd.Choice && !choice {
		t.debugf("complexType %s: repeating choice constrains nothing, translating members only", className.Local)
	}
	var alternatives []rdf.IRI

	for _, p := range g.Particles {
		switch {
		case p.Element != nil:
			occurs := p.Occurs.Within(bounds)
			if g.Kind == xsd.Choice {
				// Another alternative may be chosen instead.
				occurs.Min = 0
			}
			prop, err := t.memberProperty(class, className, p, occurs, !choice)
			if err != nil {
				return err
			}
			if choice {
				alternatives = append(alternatives, prop)
			}
		case p.Group != nil:
			// p.Occurs mirrors the nested group's own bounds; the
			// recursion folds them in.
			if err := t.contentGroup(class, className, p.Group, bounds); err != nil {
				return err
			}
		default:
			ref, ok := t.set.Group(p.GroupRef)
			if !ok {
				if t.policy.Classify(p.GroupRef.Space).Mode == Generate {
					return &UnresolvedReferenceError{
						Referrer: "complexType " + className.Local,
						Name:     p.GroupRef,
					}
				}
				t.logf("warning: complexType %s: group reference %s points into an external namespace, skipping",
					className.Local, p.GroupRef.Local)
				continue
			}
			if err := t.contentGroup(class, className, ref, p.Occurs.Within(bounds)); err != nil {
				return err
			}
		}
	}
	if choice && len(alternatives) > 0 {
		t.choiceUnion(class, className, bounds, alternatives)
	}
	return nil
}

// choiceUnion marks a class as a subclass of the union of one
// restriction per choice alternative. A required choice pins exactly
// one alternative; an optional one allows at most one.
func (t *translator) choiceUnion(class rdf.IRI, className xml.Name, bounds xsd.Occurs, props []rdf.IRI) {
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = string(p)
	}
	base := fmt.Sprintf("%s_choice_%s", sanitizeLocal(className.Local),
		shortHash(string(class), strings.Join(parts, " ")))

	members := make(rdf.Collection, len(props))
	for i, prop := range props {
		r := rdf.Blank(fmt.Sprintf("%s_%d", base, i+1))
		t.graph.Add(r, rdf.RDFType, rdf.OWLRestriction)
		t.graph.Add(r, rdf.OWLOnProperty, prop)
		if bounds.Min >= 1 {
			t.graph.Add(r, rdf.OWLCardinality, rdf.Integer(1))
		} else {
			t.graph.Add(r, rdf.OWLMaxCardinality, rdf.Integer(1))
		}
		members[i] = r
	}
	union := rdf.Blank(base)
	t.graph.Add(union, rdf.RDFType, rdf.OWLClass)
	t.graph.Add(union, rdf.OWLUnionOf, members)
	t.graph.Add(class, rdf.RDFSSubClassOf, union)
}

// memberProperty derives a property from one element particle of a
// content model. occurs carries the particle's bounds composed with
// those of every enclosing group.
func (t *translator) memberProperty(class rdf.IRI, className xml.Name, p xsd.Particle, occurs xsd.Occurs, withCardinality bool) (rdf.IRI, error) {
	decl := p.Element
	if decl.Ref {
		ref, ok := t.set.Element(decl.Name)
		if !ok {
			if t.policy.Classify(decl.Name.Space).Mode == Generate {
				return "", &UnresolvedReferenceError{
					Referrer: "complexType " + className.Local,
					Name:     decl.Name,
				}
			}
			// A reference into an external vocabulary is cited as-is;
			// there is no declaration to derive axioms from.
			prop := rdf.IRI(t.policy.TermIRI(decl.Name))
			if withCardinality {
				t.cardinality(class, className, prop, occurs)
			}
			return prop, nil
		}
		decl = ref
	}
	propName := decl.Name
	if propName.Space == "" {
		propName.Space = className.Space
	}
	referrer := fmt.Sprintf("element %s in complexType %s", propName.Local, className.Local)
	return t.property(class, className, propName, decl.Type, decl.Doc, occurs, withCardinality, referrer)
}

// property emits the axioms for one property of a class: its kind,
// domain, range, annotations and occurrence restrictions. Properties
// in external namespaces get restrictions only.
func (t *translator) property(class rdf.IRI, className, propName, typ xml.Name, doc string, occurs xsd.Occurs, withCardinality bool, referrer string) (rdf.IRI, error) {
	ns := propName.Space
	if ns == "" {
		ns = className.Space
	}
	prop := rdf.IRI(t.policy.TermIRI(xml.Name{Space: ns, Local: propName.Local}))

	rng, object, err := t.typeTerm(typ, referrer)
	if err != nil {
		return "", err
	}
	if t.policy.Classify(ns).Mode == Generate {
		kind := rdf.OWLDatatypeProperty
		if object {
			kind = rdf.OWLObjectProperty
		}
		t.graph.Add(prop, rdf.RDFType, kind)
		t.graph.Add(prop, rdf.RDFSDomain, class)
		if rng != nil {
			t.graph.Add(prop, rdf.RDFSRange, rng)
		}
		t.annotate(prop, splitCamel(propName.Local), doc)
	}
	if withCardinality {
		t.cardinality(class, className, prop, occurs)
	}
	return prop, nil
}

// cardinality asserts occurrence bounds as restriction superclasses.
// minOccurs 0 and an unbounded maximum each suppress their side.
func (t *translator) cardinality(class rdf.IRI, className xml.Name, prop rdf.IRI, occurs xsd.Occurs) {
	base := fmt.Sprintf("%s_%s_%s", sanitizeLocal(className.Local),
		sanitizeLocal(localOf(prop)), shortHash(string(class), string(prop)))
	if occurs.Min >= 1 {
		r := rdf.Blank(base + "_min")
		t.graph.Add(r, rdf.RDFType, rdf.OWLRestriction)
		t.graph.Add(r, rdf.OWLOnProperty, prop)
		t.graph.Add(r, rdf.OWLMinCardinality, rdf.Integer(occurs.Min))
		t.graph.Add(class, rdf.RDFSSubClassOf, r)
	}
	if !occurs.Unbounded() {
		r := rdf.Blank(base + "_max")
		t.graph.Add(r, rdf.RDFType, rdf.OWLRestriction)
		t.graph.Add(r, rdf.OWLOnProperty, prop)
		t.graph.Add(r, rdf.OWLMaxCardinality, rdf.Integer(occurs.Max))
		t.graph.Add(class, rdf.RDFSSubClassOf, r)
	}
}

// typeTerm resolves a type reference to the term usable as a property
// range. The bool result reports whether the term names a class. A nil
// term with a nil error means the reference constrains nothing, as
// with xs:anyType.
func (t *translator) typeTerm(name xml.Name, referrer string) (rdf.Term, bool, error) {
	if isZero(name) || xsd.IsAnyType(name) {
		return nil, false, nil
	}
	if iri, ok := xsd.DatatypeIRI(name); ok {
		return rdf.IRI(iri), false, nil
	}
	if xsd.IsBuiltin(name) {
		t.logf("warning: %s: no datatype mapping for builtin %s", referrer, name.Local)
		return nil, false, nil
	}
	if info, ok := t.types[name]; ok {
		return info.term, info.object, nil
	}
	if t.policy.Classify(name.Space).Mode == External {
		return rdf.IRI(t.policy.TermIRI(name)), true, nil
	}
	if t.walking[name] {
		t.logf("warning: %s: circular simple type derivation through %s", referrer, name.Local)
		return nil, false, nil
	}
	if ct, ok := t.set.ComplexType(name); ok {
		return t.complexTypeTerm(name, ct, referrer)
	}
	if st, ok := t.set.SimpleType(name); ok {
		return t.simpleTypeTerm(name, st, referrer)
	}
	return nil, false, &UnresolvedReferenceError{Referrer: referrer, Name: name}
}

// complexTypeTerm resolves a reference to a complex type before its
// own definition pass has reached it. Simple content collapses to the
// underlying datatype; everything else is the class IRI.
func (t *translator) complexTypeTerm(name xml.Name, ct *xsd.ComplexType, referrer string) (rdf.Term, bool, error) {
	if !ct.SimpleContent {
		iri := rdf.IRI(t.policy.TermIRI(name))
		t.types[name] = typeInfo{term: iri, object: true}
		return iri, true, nil
	}
	t.walking[name] = true
	defer delete(t.walking, name)
	term, object, err := t.typeTerm(ct.Base, referrer)
	if err != nil {
		return nil, false, err
	}
	t.types[name] = typeInfo{term: term, object: object}
	return term, object, nil
}

// simpleTypeTerm resolves a reference to a simple type: enumerations
// get their own term, lists and unions degrade to their item or first
// member type, and plain restrictions chain to their base.
func (t *translator) simpleTypeTerm(name xml.Name, st *xsd.SimpleType, referrer string) (rdf.Term, bool, error) {
	if len(st.Restriction.Enum) > 0 {
		term, object := t.defineEnum(name, st)
		return term, object, nil
	}
	t.walking[name] = true
	defer delete(t.walking, name)
	base := st.Base
	if len(st.Union) > 0 {
		// No union datatype in the output vocabulary; the first
		// member stands in for the whole.
		base = st.Union[0]
	}
	term, object, err := t.typeTerm(base, referrer)
	if err != nil {
		return nil, false, err
	}
	t.types[name] = typeInfo{term: term, object: object}
	return term, object, nil
}

// defineEnum emits an enumerated simple type, either as a datatype
// with a closed lexical space or as a class of named individuals.
func (t *translator) defineEnum(name xml.Name, st *xsd.SimpleType) (rdf.Term, bool) {
	if info, ok := t.types[name]; ok {
		return info.term, info.object
	}
	iri := rdf.IRI(t.policy.TermIRI(name))
	t.debugf("simpleType %s -> enumeration %s", name.Local, iri)

	if t.enumIndividuals {
		t.types[name] = typeInfo{term: iri, object: true}
		t.graph.Add(iri, rdf.RDFType, rdf.OWLClass)
		members := make(rdf.Collection, len(st.Restriction.Enum))
		for i, value := range st.Restriction.Enum {
			m := rdf.IRI(string(iri) + "_" + sanitizeLocal(value))
			t.graph.Add(m, rdf.RDFType, rdf.OWLNamedIndividual)
			t.graph.Add(m, rdf.RDFSLabel, rdf.Text(strings.ToLower(splitCamel(value))))
			members[i] = m
		}
		t.graph.Add(iri, rdf.OWLOneOf, members)
	} else {
		t.types[name] = typeInfo{term: iri, object: false}
		t.graph.Add(iri, rdf.RDFType, rdf.RDFSDatatype)
		members := make(rdf.Collection, len(st.Restriction.Enum))
		for i, value := range st.Restriction.Enum {
			members[i] = rdf.Text(value)
		}
		t.graph.Add(iri, rdf.OWLOneOf, members)
	}
	t.annotate(iri, classLabel(name.Local), st.Doc)
	info := t.types[name]
	return info.term, info.object
}

// defineGlobalElement emits a domainless property for a top-level
// element declaration.
func (t *translator) defineGlobalElement(name xml.Name, e *xsd.Element) error {
	prop := rdf.IRI(t.policy.TermIRI(name))
	referrer := "element " + name.Local
	rng, object, err := t.typeTerm(e.Type, referrer)
	if err != nil {
		return err
	}
	kind := rdf.OWLDatatypeProperty
	if object {
		kind = rdf.OWLObjectProperty
	}
	t.graph.Add(prop, rdf.RDFType, kind)
	if rng != nil {
		t.graph.Add(prop, rdf.RDFSRange, rng)
	}
	t.annotate(prop, splitCamel(name.Local), e.Doc)
	return nil
}

// defineGlobalAttribute emits a domainless datatype property for a
// top-level attribute declaration.
func (t *translator) defineGlobalAttribute(name xml.Name, a *xsd.Attribute) error {
	prop := rdf.IRI(t.policy.TermIRI(name))
	referrer := "attribute " + name.Local
	rng, object, err := t.typeTerm(a.Type, referrer)
	if err != nil {
		return err
	}
	kind := rdf.OWLDatatypeProperty
	if object {
		kind = rdf.OWLObjectProperty
	}
	t.graph.Add(prop, rdf.RDFType, kind)
	if rng != nil {
		t.graph.Add(prop, rdf.RDFSRange, rng)
	}
	t.annotate(prop, splitCamel(name.Local), a.Doc)
	return nil
}

// annotate attaches a label and, when present, a documentation
// comment.
func (t *translator) annotate(subject rdf.IRI, label, doc string) {
	if label != "" {
		t.graph.Add(subject, rdf.RDFSLabel, rdf.Text(label))
	}
	if doc != "" {
		t.graph.Add(subject, rdf.RDFSComment, rdf.Text(doc))
	}
}

func isZero(name xml.Name) bool { return name.Local == "" }

func localOf(iri rdf.IRI) string {
	s := string(iri)
	if i := strings.LastIndexAny(s, "#/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// classLabel derives a human-readable label from a type's local name,
// dropping the synthesized suffix of anonymous types.
func classLabel(local string) string {
	return splitCamel(strings.TrimSuffix(local, "_Type"))
}

// splitCamel inserts spaces at case boundaries: "shippingAddress"
// becomes "shipping Address" and "HTTPStatus" becomes "HTTP Status".
func splitCamel(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || (isUpper(runes[i-1]) && nextLower) {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

// sanitizeLocal maps an arbitrary string onto characters safe in IRI
// local names and blank node labels.
func sanitizeLocal(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func shortHash(parts ...string) string {
	h := fnv.New32a()
	for _, p := range parts {
		io.WriteString(h, p)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%08x", h.Sum32())
}
