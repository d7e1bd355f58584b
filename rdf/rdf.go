// Package rdf accumulates RDF triples and serializes them as Turtle.
//
// The graph is a set: adding the same triple twice is a no-op, and
// serialization order is a pure function of the triple set, never of
// insertion order. Running the translator twice over the same schemas
// therefore produces byte-identical output, which keeps ontology
// diffs meaningful across schema revisions.
package rdf

import (
	"fmt"
	"strings"
)

// A Term is a node in the graph: an IRI, a blank node, a literal, or
// an RDF collection.
type Term interface {
	// key returns the canonical encoding of the term, used for
	// deduplication and ordering.
	key() string
	isTerm()
}

// An IRI identifies a resource.
type IRI string

func (i IRI) key() string { return "<" + string(i) + ">" }
func (IRI) isTerm()       {}

// A Blank is a labeled blank node. Labels must be stable across runs;
// the translator derives them from the terms they connect.
type Blank string

func (b Blank) key() string { return "_:" + string(b) }
func (Blank) isTerm()       {}

// A Literal is a string value with an optional datatype or language
// tag (at most one of the two).
type Literal struct {
	Value    string
	Datatype IRI
	Lang     string
}

func (l Literal) key() string {
	s := quoteLiteral(l.Value)
	if l.Lang != "" {
		return s + "@" + l.Lang
	}
	if l.Datatype != "" && l.Datatype != XSDString {
		return s + "^^" + l.Datatype.key()
	}
	return s
}
func (Literal) isTerm() {}

// Text returns a plain string literal.
func Text(s string) Literal { return Literal{Value: s} }

// Integer returns an xsd:nonNegativeInteger literal, as used in
// cardinality restrictions.
func Integer(n int) Literal {
	return Literal{Value: fmt.Sprintf("%d", n), Datatype: XSDNonNegativeInteger}
}

// A Collection is an ordered RDF collection, serialized with Turtle's
// ( ... ) syntax. Order is preserved as given.
type Collection []Term

func (c Collection) key() string {
	parts := make([]string, len(c))
	for i, t := range c {
		parts[i] = t.key()
	}
	return "(" + strings.Join(parts, " ") + ")"
}
func (Collection) isTerm() {}

// A Triple is a single statement.
type Triple struct {
	Subject   Term // IRI or Blank
	Predicate IRI
	Object    Term
}

func (t Triple) key() string {
	return t.Subject.key() + " " + t.Predicate.key() + " " + t.Object.key()
}

// A Graph is a deduplicated set of triples plus prefix bindings.
type Graph struct {
	triples  map[string]Triple
	prefixes map[string]string
}

// New returns a graph with the rdf, rdfs, owl and xsd prefixes bound.
func New() *Graph {
	g := &Graph{
		triples:  make(map[string]Triple),
		prefixes: make(map[string]string),
	}
	g.Bind("rdf", RDFNS)
	g.Bind("rdfs", RDFSNS)
	g.Bind("owl", OWLNS)
	g.Bind("xsd", XSDNS)
	return g
}

// Bind associates a prefix with a namespace IRI for serialization.
// Binding a prefix again replaces it.
func (g *Graph) Bind(prefix, ns string) {
	g.prefixes[prefix] = ns
}

// Prefixes returns a copy of the graph's prefix table.
func (g *Graph) Prefixes() map[string]string {
	out := make(map[string]string, len(g.prefixes))
	for k, v := range g.prefixes {
		out[k] = v
	}
	return out
}

// Add inserts a triple. Duplicate triples are ignored. The subject
// must be an IRI or a blank node.
func (g *Graph) Add(subject Term, predicate IRI, object Term) {
	switch subject.(type) {
	case IRI, Blank:
	default:
		panic(fmt.Sprintf("rdf: invalid subject %T", subject))
	}
	if object == nil {
		panic("rdf: nil object")
	}
	t := Triple{Subject: subject, Predicate: predicate, Object: object}
	g.triples[t.key()] = t
}

// Has reports whether the exact triple is present.
func (g *Graph) Has(subject Term, predicate IRI, object Term) bool {
	t := Triple{Subject: subject, Predicate: predicate, Object: object}
	_, ok := g.triples[t.key()]
	return ok
}

// HasSubject reports whether any triple has the given subject and
// predicate.
func (g *Graph) HasSubject(subject Term, predicate IRI) bool {
	prefix := subject.key() + " " + predicate.key() + " "
	for k := range g.triples {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// Len returns the number of distinct triples.
func (g *Graph) Len() int { return len(g.triples) }

func quoteLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				// Remaining control characters have no short escape
				// in Turtle and are invalid unescaped.
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
