package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry loading and eval resolution.
// Callers should use errors.Is / errors.As.
var (
	ErrRegistryParse     = errors.New("registry: definition document is malformed")
	ErrDanglingReference = errors.New("registry: id references a record that does not exist")
	ErrReferenceCycle    = errors.New("registry: id reference points back to itself or to another reference")
)

// ParseError reports the definition document that could not be parsed.
// It matches ErrRegistryParse and unwraps to the decoder error.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("registry: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports ParseError as ErrRegistryParse.
func (e *ParseError) Is(target error) bool { return target == ErrRegistryParse }

// ReferenceError reports a record whose id could not be followed.
type ReferenceError struct {
	Name string
	ID   string
	Err  error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("registry: record %q -> id %q: %v", e.Name, e.ID, e.Err)
}

func (e *ReferenceError) Unwrap() error { return e.Err }
