package sessionctrl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"evalviewer/src/core/navigation"
)

type NavigationSession struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Mode         string    `gorm:"not null" json:"mode"`
	Selection    string    `gorm:"not null" json:"selection"`
	HasSelection bool      `gorm:"not null" json:"has_selection"`
	SampleIndex  int       `gorm:"not null" json:"sample_index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (NavigationSession) TableName() string {
	return "navigation_sessions"
}

// Store keeps navigation state in postgres, one row per session
type Store struct {
	db *gorm.DB
}

var _ navigation.SessionStore = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, sessionID string) (navigation.State, bool, error) {
	var row NavigationSession
	result := s.db.WithContext(ctx).First(&row, "id = ?", sessionID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return navigation.State{}, false, nil
		}
		return navigation.State{}, false, fmt.Errorf("failed to get session: %w", result.Error)
	}
	return row.State(), true, nil
}

func (s *Store) Set(ctx context.Context, sessionID string, state navigation.State) error {
	row := NewNavigationSession(sessionID, state)
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mode", "selection", "has_selection", "sample_index", "updated_at"}),
	}).Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to save session: %w", result.Error)
	}
	return nil
}

// NewNavigationSession maps a navigation state to its row
func NewNavigationSession(sessionID string, state navigation.State) NavigationSession {
	return NavigationSession{
		ID:           sessionID,
		Mode:         string(state.LastSelection.Mode),
		Selection:    state.LastSelection.Name,
		HasSelection: state.HasSelection,
		SampleIndex:  state.SampleIndex,
	}
}

// State maps the row back to a navigation state
func (r NavigationSession) State() navigation.State {
	if !r.HasSelection {
		return navigation.State{}
	}
	return navigation.State{
		LastSelection: navigation.Key{Mode: navigation.Mode(r.Mode), Name: r.Selection},
		HasSelection:  true,
		SampleIndex:   r.SampleIndex,
	}
}
