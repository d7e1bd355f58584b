// Package xmltree parses XML documents into a tree of elements that
// remember their namespace scope.
//
// XML Schema documents put qualified names in attribute values
// (type="tns:PersonType"), so any code walking a schema needs to
// resolve namespace prefixes at arbitrary points in the document.
// The xmltree package keeps the prefix declarations in effect for
// every element, and provides lookup and search helpers on top of
// encoding/xml.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
)

const recursionLimit = 3000

var errDeepXML = errors.New("xmltree: xml document too deeply nested")

// An Element is a single element in an XML document, along with its
// children and the namespace prefixes in scope. The Content slice
// aliases the document passed to Parse and must not be modified.
type Element struct {
	xml.StartElement
	Content  []byte
	Children []Element
	// Namespace declarations visible to this element, from least to
	// most specific. Space is the namespace URI and Local the prefix.
	Scope []xml.Name
}

// Parse reads a complete XML document with a single root element and
// returns its tree. Documents in legacy encodings are transcoded as
// declared by their <?xml?> header.
func Parse(doc []byte) (*Element, error) {
	d := xml.NewDecoder(bytes.NewReader(doc))
	d.CharsetReader = charset.NewReaderLabel
	scanner := scanner{Decoder: d}
	root := new(Element)

	for scanner.scan() {
		if start, ok := scanner.tok.(xml.StartElement); ok {
			root.StartElement = start
			break
		}
	}
	if scanner.err != nil {
		return nil, scanner.err
	}
	if root.Name.Local == "" {
		return nil, errors.New("xmltree: no root element")
	}
	if err := root.parse(&scanner, doc, 0); err != nil {
		return nil, err
	}
	return root, nil
}

type scanner struct {
	*xml.Decoder
	tok xml.Token
	err error
}

func (s *scanner) scan() bool {
	if s.err != nil {
		return false
	}
	s.tok, s.err = s.Token()
	return s.err == nil
}

func (el *Element) parse(scanner *scanner, data []byte, depth int) error {
	if depth > recursionLimit {
		return errDeepXML
	}
	el.pushNS(el.StartElement)

	begin := scanner.InputOffset()
	end := begin
walk:
	for scanner.scan() {
		switch tok := scanner.tok.(type) {
		case xml.StartElement:
			child := Element{StartElement: tok.Copy(), Scope: el.Scope}
			if err := child.parse(scanner, data, depth+1); err != nil {
				return err
			}
			el.Children = append(el.Children, child)
		case xml.EndElement:
			if tok.Name != el.Name {
				return fmt.Errorf("expecting </%s>, got </%s>",
					el.Prefix(el.Name), el.Prefix(tok.Name))
			}
			el.Content = data[int(begin):int(end)]
			break walk
		}
		end = scanner.InputOffset()
	}
	return scanner.err
}

func (el *Element) pushNS(tag xml.StartElement) {
	var scope []xml.Name
	for _, attr := range tag.Attr {
		if attr.Name.Space == "xmlns" {
			scope = append(scope, xml.Name{Space: attr.Value, Local: attr.Name.Local})
		} else if attr.Name.Local == "xmlns" {
			scope = append(scope, xml.Name{Space: attr.Value, Local: ""})
		}
	}
	if len(scope) > 0 {
		el.Scope = append(el.Scope, scope...)
		// New backing array, so children cannot clobber a sibling's
		// scope during parsing.
		el.Scope = el.Scope[:len(el.Scope):len(el.Scope)]
	}
}

// Attr returns the value of the first attribute matching space and
// local, or "" if there is none. An empty space matches any namespace.
func (el *Element) Attr(space, local string) string {
	for _, v := range el.StartElement.Attr {
		if v.Name.Local != local {
			continue
		}
		if space == "" || space == v.Name.Space {
			return v.Value
		}
	}
	return ""
}

// SetAttr sets an attribute on the element, replacing an existing
// attribute of the same name.
func (el *Element) SetAttr(space, local, value string) {
	for i, a := range el.StartElement.Attr {
		if a.Name.Local != local {
			continue
		}
		if space == "" || a.Name.Space == space {
			el.StartElement.Attr[i].Value = value
			return
		}
	}
	el.StartElement.Attr = append(el.StartElement.Attr, xml.Attr{
		Name:  xml.Name{Space: space, Local: local},
		Value: value,
	})
}

// Resolve expands a QName such as "tns:PersonType" into an xml.Name
// using the namespace prefixes in scope at this element. Strings
// without a prefix resolve against the default namespace. If the
// prefix is not declared, the returned Space is the unresolved prefix;
// use ResolveNS to detect that case.
func (el *Element) Resolve(qname string) xml.Name {
	name, _ := el.ResolveNS(qname)
	return name
}

// ResolveNS is like Resolve, but reports whether the prefix could be
// resolved.
func (el *Element) ResolveNS(qname string) (xml.Name, bool) {
	var prefix, local string
	if i := strings.Index(qname, ":"); i >= 0 {
		prefix, local = qname[:i], qname[i+1:]
	} else {
		prefix, local = "", qname
	}
	for i := len(el.Scope) - 1; i >= 0; i-- {
		if el.Scope[i].Local == prefix {
			return xml.Name{Space: el.Scope[i].Space, Local: local}, true
		}
	}
	return xml.Name{Space: prefix, Local: local}, false
}

// ResolveDefault is like Resolve, but strings without a prefix get the
// namespace defaultns instead of the scope's default namespace.
func (el *Element) ResolveDefault(qname, defaultns string) xml.Name {
	if defaultns == "" || strings.Contains(qname, ":") {
		return el.Resolve(qname)
	}
	return xml.Name{Space: defaultns, Local: qname}
}

// Prefix is the inverse of Resolve, mapping an xml.Name back to a
// prefixed string using the closest declaration in scope. It returns
// the bare local name if the namespace is not declared.
func (el *Element) Prefix(name xml.Name) string {
	for i := len(el.Scope) - 1; i >= 0; i-- {
		if el.Scope[i].Space == name.Space {
			if el.Scope[i].Local == "" {
				return name.Local
			}
			return el.Scope[i].Local + ":" + name.Local
		}
	}
	return name.Local
}

func (el *Element) walk(fn func(*Element)) {
	for i := range el.Children {
		fn(&el.Children[i])
	}
}

// SearchFunc walks the tree below the element in depth-first order and
// collects every element for which fn returns true. Children of a
// matching element are still visited.
func (root *Element) SearchFunc(fn func(*Element) bool) []*Element {
	var results []*Element
	var search func(el *Element)

	search = func(el *Element) {
		if fn(el) {
			results = append(results, el)
		}
		el.walk(search)
	}
	root.walk(search)
	return results
}

// Search returns all elements below the root with the given namespace
// and local name. An empty space matches any namespace.
func (root *Element) Search(space, local string) []*Element {
	return root.SearchFunc(func(el *Element) bool {
		if local != el.Name.Local {
			return false
		}
		return space == "" || space == el.Name.Space
	})
}
