package sessionctrl_test

import (
	"testing"

	"evalviewer/src/core/navigation"
	"evalviewer/src/storage/postgres/sessionctrl"
)

func TestNavigationSessionState(t *testing.T) {
	tests := []struct {
		name  string
		state navigation.State
	}{
		{name: "no selection", state: navigation.State{}},
		{name: "subdir", state: navigation.State{LastSelection: navigation.SubDir("algebra"), HasSelection: true, SampleIndex: 7}},
		{name: "eval", state: navigation.State{LastSelection: navigation.Eval("algebra"), HasSelection: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := sessionctrl.NewNavigationSession("id", tt.state)
			if row.ID != "id" {
				t.Errorf("ID = %q", row.ID)
			}
			if got := row.State(); got != tt.state {
				t.Errorf("State() = %+v, want %+v", got, tt.state)
			}
		})
	}
}

func TestNavigationSessionWithoutSelectionIgnoresIndex(t *testing.T) {
	row := sessionctrl.NavigationSession{Mode: "subdir", Selection: "x", SampleIndex: 3}
	if got := row.State(); got != (navigation.State{}) {
		t.Errorf("State() = %+v, want zero state", got)
	}
}
