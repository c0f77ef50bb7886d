package profile

import (
	"fmt"
	"strings"
)

// UnknownProfileError indicates a requested profile name is not in the catalog.
type UnknownProfileError struct {
	Name      string
	Available []string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("unknown profile %q (available: %s)",
		e.Name, strings.Join(e.Available, ", "))
}

// InvalidProfileError indicates a profile failed validation after parsing.
type InvalidProfileError struct {
	Name   string
	Detail string
}

func (e *InvalidProfileError) Error() string {
	name := e.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("invalid profile %s: %s", name, e.Detail)
}
