package runctrl

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Result is the model reply to one sample of an eval run
type Result struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	JobID        int       `gorm:"not null;index" json:"job_id"`
	EvalName     string    `gorm:"not null" json:"eval_name"`
	SampleIndex  int       `gorm:"not null" json:"sample_index"`
	Input        string    `gorm:"type:text;not null" json:"input"` // JSON encoded chat turns
	Ideal        string    `gorm:"type:text" json:"ideal"`
	Response     string    `gorm:"type:text" json:"response"`
	FinishReason string    `json:"finish_reason"`
	Error        string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Result) TableName() string {
	return "eval_run_results"
}

type ResultService struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewResultService(db *gorm.DB) (*ResultService, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %v", err)
	}

	return &ResultService{
		db:        db,
		snowflake: node,
	}, nil
}

func (s *ResultService) Create(ctx context.Context, result *Result) (*Result, error) {
	result.ID = s.snowflake.Generate().Int64()

	if err := s.db.WithContext(ctx).Create(result).Error; err != nil {
		return nil, fmt.Errorf("failed to create run result: %v", err)
	}

	return result, nil
}

// ListByJobID returns the results of a run in sample order
func (s *ResultService) ListByJobID(ctx context.Context, jobID int) ([]Result, error) {
	var results []Result
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("sample_index ASC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list run results: %v", err)
	}
	return results, nil
}

func (s *ResultService) DeleteByJobID(ctx context.Context, jobID int) error {
	result := s.db.WithContext(ctx).Where("job_id = ?", jobID).Delete(&Result{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete run results: %v", result.Error)
	}
	return nil
}
