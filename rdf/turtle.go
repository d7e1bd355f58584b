package rdf

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/ecodata/xsd2owl/internal/ordered"
)

// predicateRank fixes the order of predicates within a subject block:
// the type comes first, then the axioms that position the term in the
// hierarchy, then annotations, then everything else lexicographically.
var predicateRank = map[IRI]int{
	RDFType:           0,
	RDFSSubClassOf:    1,
	RDFSSubPropertyOf: 2,
	RDFSDomain:        3,
	RDFSRange:         4,
	RDFSLabel:         5,
	RDFSComment:       6,
}

// Serialize writes the graph as Turtle. The output is canonical:
// prefixes sorted by name, subjects sorted with IRIs before blank
// nodes, predicates in the fixed rank order, and objects sorted by
// their encoding. Identical graphs serialize to identical bytes.
func (g *Graph) Serialize(w io.Writer) error {
	buf := bufio.NewWriter(w)

	ordered.Range(g.prefixes, func(prefix, ns string) {
		buf.WriteString("@prefix ")
		buf.WriteString(prefix)
		buf.WriteString(": <")
		buf.WriteString(ns)
		buf.WriteString("> .\n")
	})

	// Group triples by subject. Subject keys order IRIs ("<") before
	// blank nodes ("_") by construction.
	bySubject := make(map[string][]Triple)
	for _, t := range g.triples {
		k := t.Subject.key()
		bySubject[k] = append(bySubject[k], t)
	}

	for _, subjKey := range ordered.Keys(bySubject) {
		triples := bySubject[subjKey]
		buf.WriteString("\n")
		buf.WriteString(g.format(triples[0].Subject))

		byPredicate := make(map[IRI][]Term)
		for _, t := range triples {
			byPredicate[t.Predicate] = append(byPredicate[t.Predicate], t.Object)
		}
		predicates := make([]IRI, 0, len(byPredicate))
		for p := range byPredicate {
			predicates = append(predicates, p)
		}
		sort.Slice(predicates, func(i, j int) bool {
			ri, iok := predicateRank[predicates[i]]
			rj, jok := predicateRank[predicates[j]]
			switch {
			case iok && jok:
				return ri < rj
			case iok:
				return true
			case jok:
				return false
			}
			return predicates[i] < predicates[j]
		})

		for i, p := range predicates {
			if i == 0 {
				buf.WriteString(" ")
			} else {
				buf.WriteString(" ;\n\t")
			}
			if p == RDFType {
				buf.WriteString("a")
			} else {
				buf.WriteString(g.format(p))
			}
			objects := byPredicate[p]
			sort.Slice(objects, func(i, j int) bool {
				return objects[i].key() < objects[j].key()
			})
			for j, o := range objects {
				if j == 0 {
					buf.WriteString(" ")
				} else {
					buf.WriteString(", ")
				}
				buf.WriteString(g.format(o))
			}
		}
		buf.WriteString(" .\n")
	}
	return buf.Flush()
}

// String returns the Turtle serialization of the graph.
func (g *Graph) String() string {
	var b strings.Builder
	g.Serialize(&b)
	return b.String()
}

func (g *Graph) format(t Term) string {
	switch t := t.(type) {
	case IRI:
		if qname, ok := g.qname(t); ok {
			return qname
		}
		return "<" + string(t) + ">"
	case Blank:
		return "_:" + string(t)
	case Literal:
		s := quoteLiteral(t.Value)
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" && t.Datatype != XSDString {
			return s + "^^" + g.format(t.Datatype)
		}
		return s
	case Collection:
		parts := make([]string, len(t))
		for i, m := range t {
			parts[i] = g.format(m)
		}
		return "( " + strings.Join(parts, " ") + " )"
	}
	panic("rdf: unknown term type")
}

// qname shortens an IRI through the prefix table, picking the longest
// matching namespace whose remainder is a safe Turtle local name.
func (g *Graph) qname(iri IRI) (string, bool) {
	var bestPrefix, bestNS string
	found := false
	ordered.Range(g.prefixes, func(prefix, ns string) {
		if !strings.HasPrefix(string(iri), ns) {
			return
		}
		if !found || len(ns) > len(bestNS) {
			bestPrefix, bestNS = prefix, ns
			found = true
		}
	})
	if !found {
		return "", false
	}
	local := string(iri[len(bestNS):])
	if !validLocal(local) {
		return "", false
	}
	return bestPrefix + ":" + local, true
}

// validLocal is a conservative approximation of Turtle's PN_LOCAL:
// names that fail fall back to the full <IRI> form.
func validLocal(s string) bool {
	if s == "" {
		return true
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case (r >= '0' && r <= '9') && i > 0:
		case (r == '-' || r == '.') && i > 0:
		default:
			return false
		}
	}
	return !strings.HasSuffix(s, ".")
}
