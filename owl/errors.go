package owl

import (
	"encoding/xml"
	"fmt"
)

// An UnresolvedReferenceError reports a qualified name that is used by
// a declaration but neither declared in the closed schema set nor
// mapped to an external vocabulary. A partial ontology with dangling
// references is worse than no output, so this error is always fatal.
type UnresolvedReferenceError struct {
	// The declaration containing the dangling reference.
	Referrer string
	// The qualified name that could not be resolved.
	Name xml.Name
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s: unresolved reference to {%s}%s",
		e.Referrer, e.Name.Space, e.Name.Local)
}
