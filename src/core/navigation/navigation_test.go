package navigation_test

import (
	"context"
	"errors"
	"testing"

	"evalviewer/src/core/navigation"
)

func TestResolveIndex(t *testing.T) {
	math := navigation.SubDir("math")
	tests := []struct {
		name      string
		state     navigation.State
		selection navigation.Key
		submitted string
		want      int
		wantErr   error
	}{
		{
			name:      "same selection keeps submitted index",
			state:     navigation.State{LastSelection: math, HasSelection: true},
			selection: math,
			submitted: "7",
			want:      7,
		},
		{
			name:      "different selection resets",
			state:     navigation.State{LastSelection: math, HasSelection: true, SampleIndex: 3},
			selection: navigation.SubDir("science"),
			submitted: "7",
			want:      0,
		},
		{
			name:      "no previous selection resets",
			state:     navigation.State{},
			selection: math,
			submitted: "7",
			want:      0,
		},
		{
			name:      "same name in another mode resets",
			state:     navigation.State{LastSelection: math, HasSelection: true},
			selection: navigation.Eval("math"),
			submitted: "7",
			want:      0,
		},
		{
			name:      "index beyond sample count is not clamped",
			state:     navigation.State{LastSelection: math, HasSelection: true},
			selection: math,
			submitted: "99999",
			want:      99999,
		},
		{
			name:      "non numeric index on unchanged selection",
			state:     navigation.State{LastSelection: math, HasSelection: true},
			selection: math,
			submitted: "seven",
			want:      0,
			wantErr:   navigation.ErrInvalidIndex,
		},
		{
			name:      "non numeric index ignored on changed selection",
			state:     navigation.State{},
			selection: math,
			submitted: "seven",
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, next, err := navigation.ResolveIndex(tt.state, tt.selection, tt.submitted)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ResolveIndex() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveIndex() index = %d, want %d", got, tt.want)
			}
			if !next.HasSelection || next.LastSelection != tt.selection {
				t.Errorf("ResolveIndex() state = %+v, want selection %v recorded", next, tt.selection)
			}
			if next.SampleIndex != got {
				t.Errorf("ResolveIndex() state index = %d, want %d", next.SampleIndex, got)
			}
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := navigation.NewMemoryStore()

	if _, ok, err := store.Get(ctx, "s1"); err != nil || ok {
		t.Fatalf("Get() on new session = ok %v, err %v", ok, err)
	}

	want := navigation.State{LastSelection: navigation.SubDir("algebra"), HasSelection: true, SampleIndex: 1}
	if err := store.Set(ctx, "s1", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := store.Get(ctx, "s1")
	if err != nil || !ok || got != want {
		t.Errorf("Get() = %+v, %v, %v, want %+v", got, ok, err, want)
	}
	if _, ok, _ := store.Get(ctx, "s2"); ok {
		t.Error("Get() leaked state across sessions")
	}
}
