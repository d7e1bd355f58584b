package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Marshal produces the XML encoding of an Element as a self-contained
// document. Namespace declarations inherited from enclosing scopes are
// re-declared on the element so the output stands alone.
func Marshal(el *Element) []byte {
	var buf bytes.Buffer
	if err := Encode(&buf, el); err != nil {
		// bytes.Buffer does not return write errors
		panic(err)
	}
	return buf.Bytes()
}

// MarshalIndent is like Marshal, but with each child element placed on
// its own line, indented by depth.
func MarshalIndent(el *Element, prefix, indent string) []byte {
	var buf bytes.Buffer
	enc := encoder{w: &buf, prefix: prefix, indent: indent, pretty: true}
	if err := enc.encode(el, nil, 0); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Encode writes the XML encoding of the Element to w, returning any
// error encountered writing to w.
func Encode(w io.Writer, el *Element) error {
	enc := encoder{w: w}
	return enc.encode(el, nil, 0)
}

func (el *Element) String() string {
	return string(Marshal(el))
}

type encoder struct {
	w              io.Writer
	prefix, indent string
	pretty         bool
}

func (e *encoder) encode(el, parent *Element, depth int) error {
	if depth > recursionLimit {
		return nil
	}
	if e.pretty {
		if _, err := fmt.Fprint(e.w, e.prefix); err != nil {
			return err
		}
		for i := 0; i < depth; i++ {
			if _, err := fmt.Fprint(e.w, e.indent); err != nil {
				return err
			}
		}
	}
	if err := e.openTag(el, diffScope(parent, el)); err != nil {
		return err
	}
	if len(el.Children) == 0 {
		if len(bytes.TrimSpace(el.Content)) > 0 {
			if _, err := e.w.Write(bytes.TrimSpace(el.Content)); err != nil {
				return err
			}
		}
	} else {
		if e.pretty {
			if _, err := fmt.Fprintln(e.w); err != nil {
				return err
			}
		}
		for i := range el.Children {
			if err := e.encode(&el.Children[i], el, depth+1); err != nil {
				return err
			}
		}
		if e.pretty {
			if _, err := fmt.Fprint(e.w, e.prefix); err != nil {
				return err
			}
			for i := 0; i < depth; i++ {
				if _, err := fmt.Fprint(e.w, e.indent); err != nil {
					return err
				}
			}
		}
	}
	if _, err := fmt.Fprintf(e.w, "</%s>", el.Prefix(el.Name)); err != nil {
		return err
	}
	if e.pretty {
		_, err := fmt.Fprintln(e.w)
		return err
	}
	return nil
}

// diffScope returns the namespace declarations in the child's scope
// that are not already declared by the parent.
func diffScope(parent, child *Element) []xml.Name {
	if parent == nil {
		return child.Scope
	}
	scope := child.Scope
	common := parent.Scope
	for len(common) > 0 && len(scope) > 0 && scope[0] == common[0] {
		scope, common = scope[1:], common[1:]
	}
	return scope
}

func (e *encoder) openTag(el *Element, scope []xml.Name) error {
	if _, err := fmt.Fprintf(e.w, "<%s", el.Prefix(el.Name)); err != nil {
		return err
	}
	for _, attr := range el.StartElement.Attr {
		if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
			continue
		}
		name := attr.Name.Local
		if attr.Name.Space != "" {
			// The decoder resolved the attribute's prefix to a
			// namespace URI; map it back through the scope.
			name = el.Prefix(attr.Name)
		}
		if _, err := fmt.Fprintf(e.w, " %s=%q", name, attr.Value); err != nil {
			return err
		}
	}
	for _, ns := range scope {
		name := "xmlns"
		if ns.Local != "" {
			name += ":" + ns.Local
		}
		if _, err := fmt.Fprintf(e.w, " %s=%q", name, ns.Space); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(e.w, ">")
	return err
}
