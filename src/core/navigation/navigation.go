package navigation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidIndex is returned when a submitted sample index is not an integer.
var ErrInvalidIndex = errors.New("navigation: sample index is not an integer")

// Mode names what a selection browses by.
type Mode string

const (
	ModeSubDir Mode = "subdir"
	ModeEval   Mode = "eval"
)

// Key is the current selection of a session. Keys are comparable; two keys
// are the same selection only when both mode and name match.
type Key struct {
	Mode Mode   `json:"mode"`
	Name string `json:"name"`
}

// SubDir returns the selection key of a data sub-directory
func SubDir(name string) Key { return Key{Mode: ModeSubDir, Name: name} }

// Eval returns the selection key of a registry eval
func Eval(name string) Key { return Key{Mode: ModeEval, Name: name} }

func (k Key) String() string { return string(k.Mode) + ":" + k.Name }

// State is the navigation continuity of one session. It starts with no
// selection; every request moves it to "selection = X".
type State struct {
	LastSelection Key  `json:"last_selection"`
	HasSelection  bool `json:"has_selection"`
	SampleIndex   int  `json:"sample_index"`
}

// ResolveIndex decides the effective sample index for a request selecting
// selection with the submitted index.
//
// When the session already selected the same key, the submitted index is
// trusted as is, without any bound check against the sample count. Any
// other case resets the index to 0 and ignores the submitted value. The
// returned state always records selection and the effective index.
//
// A non-integer submitted index for an unchanged selection fails with
// ErrInvalidIndex; the returned index and state then fall back to 0.
func ResolveIndex(state State, selection Key, submitted string) (int, State, error) {
	next := State{LastSelection: selection, HasSelection: true}

	if !state.HasSelection || state.LastSelection != selection {
		return 0, next, nil
	}

	index, err := strconv.Atoi(strings.TrimSpace(submitted))
	if err != nil {
		return 0, next, fmt.Errorf("%w: %q", ErrInvalidIndex, submitted)
	}

	next.SampleIndex = index
	return index, next, nil
}
