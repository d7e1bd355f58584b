package xsd

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/ecodata/xsd2owl/internal/ordered"
)

// A Resolver chases import and include declarations from a root
// schema until the reachable set is closed, fetching each document
// through its Store.
type Resolver struct {
	store *Store
}

// NewResolver returns a Resolver fetching through store. Diagnostics
// go to the store's logger.
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// A ResolvedSet is the closed set of schema documents reachable from a
// root, merged into one view per target namespace.
type ResolvedSet struct {
	// The location of the root schema the set was resolved from.
	Root string
	// Merged declarations, keyed by target namespace ("" for schemas
	// that declare none).
	Namespaces map[string]*NamespaceView
}

// A NamespaceView merges the top-level declarations of every document
// sharing one target namespace.
type NamespaceView struct {
	Name         string
	ComplexTypes map[xml.Name]*ComplexType
	SimpleTypes  map[xml.Name]*SimpleType
	Elements     map[xml.Name]*Element
	Attributes   map[xml.Name]*Attribute
	Groups       map[xml.Name]*Group
	// The documents contributing to this namespace, in traversal
	// order.
	Documents []*Document
}

// View returns the merged view for a namespace, or nil if no resolved
// document declares it.
func (rs *ResolvedSet) View(ns string) *NamespaceView {
	return rs.Namespaces[ns]
}

// NamespaceNames returns the resolved target namespaces in sorted
// order.
func (rs *ResolvedSet) NamespaceNames() []string {
	return ordered.Keys(rs.Namespaces)
}

// ComplexType looks up a complex type declaration anywhere in the set.
func (rs *ResolvedSet) ComplexType(name xml.Name) (*ComplexType, bool) {
	if v := rs.Namespaces[name.Space]; v != nil {
		if t, ok := v.ComplexTypes[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// SimpleType looks up a simple type declaration anywhere in the set.
func (rs *ResolvedSet) SimpleType(name xml.Name) (*SimpleType, bool) {
	if v := rs.Namespaces[name.Space]; v != nil {
		if t, ok := v.SimpleTypes[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// Element looks up a global element declaration anywhere in the set.
func (rs *ResolvedSet) Element(name xml.Name) (*Element, bool) {
	if v := rs.Namespaces[name.Space]; v != nil {
		if e, ok := v.Elements[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// Group looks up a named model group anywhere in the set.
func (rs *ResolvedSet) Group(name xml.Name) (*Group, bool) {
	if v := rs.Namespaces[name.Space]; v != nil {
		if g, ok := v.Groups[name]; ok {
			return g, true
		}
	}
	return nil, false
}

// Resolve fetches the root schema and every schema transitively
// reachable through import and include declarations, breadth first.
// A location already visited is never fetched again, so import cycles
// terminate. Failure to fetch or parse the root is fatal; failures on
// imported documents are logged and their namespaces left out of the
// set. Duplicate top-level names within one merged namespace return a
// *ConflictError.
func (r *Resolver) Resolve(ctx context.Context, root string) (*ResolvedSet, error) {
	rootDoc, err := r.store.Fetch(ctx, root)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{rootDoc.Location: true}
	queue := []*Document{rootDoc}
	docs := []*Document{rootDoc}

	for len(queue) > 0 {
		doc := queue[0]
		queue = queue[1:]
		for _, ref := range doc.Refs {
			if ref.Location == "" {
				// Imports of well-known namespaces often omit a
				// location; the namespace policy decides how
				// references into them are rendered.
				r.store.debugf("%s: import of %s has no location, skipping",
					doc.Location, ref.Namespace)
				continue
			}
			loc, err := resolveReference(doc.Location, ref.Location)
			if err == nil {
				loc, err = NormalizeLocation(loc)
			}
			if err != nil {
				r.store.logf("warning: %s: cannot resolve reference %q: %v",
					doc.Location, ref.Location, err)
				continue
			}
			if visited[loc] {
				continue
			}
			visited[loc] = true
			child, err := r.store.Fetch(ctx, loc)
			if err != nil {
				r.store.logf("warning: skipping schema referenced by %s: %v",
					doc.Location, err)
				continue
			}
			docs = append(docs, child)
			queue = append(queue, child)
		}
	}

	set := &ResolvedSet{
		Root:       rootDoc.Location,
		Namespaces: make(map[string]*NamespaceView),
	}
	for _, doc := range docs {
		if err := set.merge(doc); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// resolveReference resolves a possibly-relative schemaLocation against
// the location of the referencing document.
func resolveReference(base, ref string) (string, error) {
	if IsRemote(ref) || filepath.IsAbs(ref) {
		return ref, nil
	}
	if IsRemote(base) {
		b, err := url.Parse(base)
		if err != nil {
			return "", err
		}
		rel, err := url.Parse(ref)
		if err != nil {
			return "", err
		}
		return b.ResolveReference(rel).String(), nil
	}
	return filepath.Join(filepath.Dir(base), ref), nil
}

func (set *ResolvedSet) merge(doc *Document) error {
	view := set.Namespaces[doc.TargetNS]
	if view == nil {
		view = &NamespaceView{
			Name:         doc.TargetNS,
			ComplexTypes: make(map[xml.Name]*ComplexType),
			SimpleTypes:  make(map[xml.Name]*SimpleType),
			Elements:     make(map[xml.Name]*Element),
			Attributes:   make(map[xml.Name]*Attribute),
			Groups:       make(map[xml.Name]*Group),
		}
		set.Namespaces[doc.TargetNS] = view
	}
	doc = view.renameAnonCollisions(doc)
	view.Documents = append(view.Documents, doc)

	// Merge each symbol space separately: a type and an element may
	// legitimately share a name. Within one symbol space a duplicate
	// is a conflict regardless of which document is merged first.
	origin := func(name xml.Name) string {
		for _, d := range view.Documents[:len(view.Documents)-1] {
			if _, ok := d.ComplexTypes[name]; ok {
				return d.Location
			}
			if _, ok := d.SimpleTypes[name]; ok {
				return d.Location
			}
			if _, ok := d.Elements[name]; ok {
				return d.Location
			}
			if _, ok := d.Attributes[name]; ok {
				return d.Location
			}
			if _, ok := d.Groups[name]; ok {
				return d.Location
			}
		}
		return "unknown"
	}
	conflict := func(name xml.Name) error {
		return &ConflictError{
			Namespace: doc.TargetNS,
			Name:      name,
			Locations: [2]string{origin(name), doc.Location},
		}
	}

	for _, name := range ordered.XMLNames(doc.ComplexTypes) {
		if _, dup := view.ComplexTypes[name]; dup {
			return conflict(name)
		}
		if _, dup := view.SimpleTypes[name]; dup {
			return conflict(name)
		}
		view.ComplexTypes[name] = doc.ComplexTypes[name]
	}
	for _, name := range ordered.XMLNames(doc.SimpleTypes) {
		if _, dup := view.SimpleTypes[name]; dup {
			return conflict(name)
		}
		if _, dup := view.ComplexTypes[name]; dup {
			return conflict(name)
		}
		view.SimpleTypes[name] = doc.SimpleTypes[name]
	}
	for _, name := range ordered.XMLNames(doc.Elements) {
		if _, dup := view.Elements[name]; dup {
			return conflict(name)
		}
		view.Elements[name] = doc.Elements[name]
	}
	for _, name := range ordered.XMLNames(doc.Attributes) {
		if _, dup := view.Attributes[name]; dup {
			return conflict(name)
		}
		view.Attributes[name] = doc.Attributes[name]
	}
	for _, name := range ordered.XMLNames(doc.Groups) {
		if _, dup := view.Groups[name]; dup {
			return conflict(name)
		}
		view.Groups[name] = doc.Groups[name]
	}
	return nil
}

// renameAnonCollisions re-suffixes synthesized anonymous type names
// that collide with types merged from earlier documents of the same
// namespace. Two included documents may each declare an element named
// item with an inline type, and both mint Item_Type; the later one is
// renamed, in traversal order, rather than rejected. Collisions
// between named types stay conflicts. The document is copied before
// rewriting so the store's cached parse is never modified.
func (view *NamespaceView) renameAnonCollisions(doc *Document) *Document {
	renames := make(map[xml.Name]xml.Name)
	taken := func(name xml.Name) bool {
		if _, ok := view.ComplexTypes[name]; ok {
			return true
		}
		if _, ok := view.SimpleTypes[name]; ok {
			return true
		}
		if _, ok := doc.ComplexTypes[name]; ok {
			return true
		}
		_, ok := doc.SimpleTypes[name]
		return ok
	}
	assigned := make(map[xml.Name]bool)
	fresh := func(name xml.Name) xml.Name {
		stem := strings.TrimRight(name.Local, "0123456789")
		for n := 2; ; n++ {
			c := xml.Name{Space: name.Space, Local: fmt.Sprintf("%s%d", stem, n)}
			if !taken(c) && !assigned[c] {
				assigned[c] = true
				return c
			}
		}
	}
	inView := func(name xml.Name) bool {
		if _, ok := view.ComplexTypes[name]; ok {
			return true
		}
		_, ok := view.SimpleTypes[name]
		return ok
	}
	for _, name := range ordered.XMLNames(doc.ComplexTypes) {
		if inView(name) && doc.ComplexTypes[name].Anonymous {
			renames[name] = fresh(name)
		}
	}
	for _, name := range ordered.XMLNames(doc.SimpleTypes) {
		if inView(name) && doc.SimpleTypes[name].Anonymous {
			renames[name] = fresh(name)
		}
	}
	if len(renames) == 0 {
		return doc
	}
	return renameTypes(doc, renames)
}

// renameTypes returns a copy of doc with every occurrence of the given
// type names substituted: the declarations themselves and all
// references from elements, attributes, base types and union members.
// Group names are a separate symbol space and pass through untouched.
func renameTypes(doc *Document, renames map[xml.Name]xml.Name) *Document {
	sub := func(name xml.Name) xml.Name {
		if n, ok := renames[name]; ok {
			return n
		}
		return name
	}
	out := &Document{
		Location:     doc.Location,
		TargetNS:     doc.TargetNS,
		Refs:         doc.Refs,
		Doc:          doc.Doc,
		ComplexTypes: make(map[xml.Name]*ComplexType, len(doc.ComplexTypes)),
		SimpleTypes:  make(map[xml.Name]*SimpleType, len(doc.SimpleTypes)),
		Elements:     make(map[xml.Name]*Element, len(doc.Elements)),
		Attributes:   make(map[xml.Name]*Attribute, len(doc.Attributes)),
		Groups:       make(map[xml.Name]*Group, len(doc.Groups)),
	}
	for name, t := range doc.ComplexTypes {
		out.ComplexTypes[sub(name)] = renameComplexType(t, sub)
	}
	for name, t := range doc.SimpleTypes {
		out.SimpleTypes[sub(name)] = renameSimpleType(t, sub)
	}
	for name, e := range doc.Elements {
		c := *e
		c.Type = sub(e.Type)
		out.Elements[name] = &c
	}
	for name, a := range doc.Attributes {
		c := *a
		c.Type = sub(a.Type)
		out.Attributes[name] = &c
	}
	for name, g := range doc.Groups {
		out.Groups[name] = renameGroup(g, sub)
	}
	return out
}

func renameComplexType(t *ComplexType, sub func(xml.Name) xml.Name) *ComplexType {
	c := *t
	c.Name = sub(t.Name)
	c.Base = sub(t.Base)
	c.Content = renameGroup(t.Content, sub)
	if len(t.Attributes) > 0 {
		c.Attributes = make([]Attribute, len(t.Attributes))
		for i, a := range t.Attributes {
			a.Type = sub(a.Type)
			c.Attributes[i] = a
		}
	}
	return &c
}

func renameSimpleType(t *SimpleType, sub func(xml.Name) xml.Name) *SimpleType {
	c := *t
	c.Name = sub(t.Name)
	c.Base = sub(t.Base)
	if len(t.Union) > 0 {
		c.Union = make([]xml.Name, len(t.Union))
		for i, m := range t.Union {
			c.Union[i] = sub(m)
		}
	}
	return &c
}

func renameGroup(g *Group, sub func(xml.Name) xml.Name) *Group {
	if g == nil {
		return nil
	}
	c := *g
	if len(g.Particles) > 0 {
		c.Particles = make([]Particle, len(g.Particles))
		for i, p := range g.Particles {
			if p.Element != nil {
				e := *p.Element
				e.Type = sub(e.Type)
				p.Element = &e
			}
			p.Group = renameGroup(p.Group, sub)
			c.Particles[i] = p
		}
	}
	return &c
}
