// Package owl translates a resolved set of XML Schema documents into
// an OWL ontology.
//
// Which schema namespaces become newly authored ontology terms and
// which are cited as existing vocabularies is decided by a Policy.
// The translation itself is driven by a Config, mirroring how the
// schemas were written: complex types become classes, their members
// become properties with domains, ranges and cardinality restrictions,
// and enumerated simple types become closed value spaces.
package owl

import (
	"encoding/xml"
	"strings"
)

// Mode says how terms of a namespace are rendered.
type Mode int

const (
	// External namespaces are cited, never defined: references into
	// them become plain IRIs with no axioms attached.
	External Mode = iota
	// Generate namespaces get newly authored classes and properties.
	Generate
)

func (m Mode) String() string {
	if m == Generate {
		return "generate"
	}
	return "external"
}

// An Entry is the policy for a single namespace.
type Entry struct {
	Mode Mode
	// IRI prefix for generated terms. Must end in "#" or "/".
	BaseIRI string
	// IRI prefix for externally cited terms; empty means terms are
	// built from the schema namespace itself.
	Vocabulary string
	// Per-term overrides for external namespaces: local name to the
	// full IRI to cite instead.
	Terms map[string]string
}

// A Policy is the complete namespace table. It is a plain value so the
// same translator code can run against different policies without
// shared state.
type Policy struct {
	// Base IRI for terms of schemas that declare no target namespace.
	DefaultBaseIRI string
	// Explicit per-namespace entries.
	Entries map[string]Entry
	// Prefix bindings to declare in the output, prefix to IRI.
	Prefixes map[string]string
	// When set, namespaces missing from Entries are generated under
	// their own URI instead of being treated as external. Used when
	// running without a configuration file.
	GenerateUnlisted bool
}

// NamespaceIRI turns an XML namespace into an IRI prefix for terms,
// appending "#" unless the namespace already ends in a separator.
func NamespaceIRI(ns string) string {
	if ns == "" {
		return ns
	}
	if strings.HasSuffix(ns, "/") || strings.HasSuffix(ns, "#") {
		return ns
	}
	return ns + "#"
}

// Classify returns the effective policy entry for a namespace. An
// empty namespace is generated under DefaultBaseIRI. Namespaces absent
// from the table are external with no mapping, unless
// GenerateUnlisted is set.
func (p *Policy) Classify(ns string) Entry {
	if ns == "" {
		return Entry{Mode: Generate, BaseIRI: NamespaceIRI(p.DefaultBaseIRI)}
	}
	if e, ok := p.Entries[ns]; ok {
		if e.Mode == Generate && e.BaseIRI == "" {
			e.BaseIRI = NamespaceIRI(ns)
		}
		return e
	}
	if p.GenerateUnlisted {
		return Entry{Mode: Generate, BaseIRI: NamespaceIRI(ns)}
	}
	return Entry{Mode: External}
}

// TermIRI builds the IRI a qualified name maps to under the policy.
func (p *Policy) TermIRI(name xml.Name) string {
	e := p.Classify(name.Space)
	switch {
	case e.Mode == Generate:
		return NamespaceIRI(e.BaseIRI) + name.Local
	case e.Terms[name.Local] != "":
		return e.Terms[name.Local]
	case e.Vocabulary != "":
		return NamespaceIRI(e.Vocabulary) + name.Local
	}
	return NamespaceIRI(name.Space) + name.Local
}
