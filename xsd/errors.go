package xsd

import (
	"encoding/xml"
	"fmt"
)

// A FetchError reports a failure to retrieve schema bytes from a file
// or URL. Fetch errors are fatal for the root schema and downgraded to
// warnings for imported schemas.
type FetchError struct {
	Location string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch schema %s: %v", e.Location, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// A ParseError reports a document that could not be parsed as an XML
// Schema: malformed XML, or a root element other than xs:schema.
type ParseError struct {
	Location string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse schema %s: %v", e.Location, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// A ConflictError reports two top-level declarations with the same
// qualified name in documents merged into one namespace.
type ConflictError struct {
	Namespace string
	Name      xml.Name
	Locations [2]string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("namespace %s: duplicate top-level declaration %s (in %s and %s)",
		e.Namespace, e.Name.Local, e.Locations[0], e.Locations[1])
}
