package extracthtml

import "fmt"

// StructureNotFoundError reports that a required, uniquely identified anchor
// of the page layout is missing. Callers should treat it as fatal: the page
// changed and anything extracted past this point would be garbage.
type StructureNotFoundError struct {
	Selector string
}

func (e *StructureNotFoundError) Error() string {
	return fmt.Sprintf("structure not found: no element matches %q", e.Selector)
}
