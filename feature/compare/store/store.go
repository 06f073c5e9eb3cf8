package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"criteria-diff/core/database"
	"criteria-diff/core/reconcile"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no run has the requested id.
var ErrNotFound = errors.New("run not found")

// DefaultListLimit caps List when no positive limit is given.
const DefaultListLimit = 50

// Run is one persisted comparison.
type Run struct {
	ID            string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	CreatedAt     time.Time `gorm:"column:created_at;index" json:"created_at"`
	GeneratedAt   string    `gorm:"column:generated_at;size:32" json:"generated_at"`
	SourceA       string    `gorm:"column:source_a;size:512" json:"source_a"`
	SourceB       string    `gorm:"column:source_b;size:512" json:"source_b"`
	LabelA        string    `gorm:"column:label_a;size:64" json:"label_a"`
	LabelB        string    `gorm:"column:label_b;size:64" json:"label_b"`
	AItems        int       `gorm:"column:a_items" json:"a_items"`
	BItems        int       `gorm:"column:b_items" json:"b_items"`
	OnlyA         int       `gorm:"column:only_a" json:"only_a"`
	OnlyB         int       `gorm:"column:only_b" json:"only_b"`
	ChangedCommon int       `gorm:"column:changed_common" json:"changed_common"`
	CommonTotal   int       `gorm:"column:common_total" json:"common_total"`
	Report        string    `gorm:"column:report;type:longtext" json:"-"`
}

// TableName overrides the table name.
func (Run) TableName() string {
	return "compare_runs"
}

// summaryColumns are the columns List selects; the report body is left out.
var summaryColumns = []string{
	"id", "created_at", "generated_at", "source_a", "source_b", "label_a", "label_b",
	"a_items", "b_items", "only_a", "only_b", "changed_common", "common_total",
}

// NewRun builds a Run from a report and the names of its two sources.
func NewRun(report *reconcile.Report, sourceA, sourceB string, labels reconcile.Labels) (*Run, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return &Run{
		GeneratedAt:   report.GeneratedAt,
		SourceA:       sourceA,
		SourceB:       sourceB,
		LabelA:        labels.A,
		LabelB:        labels.B,
		AItems:        report.Counts.AItems,
		BItems:        report.Counts.BItems,
		OnlyA:         report.Counts.OnlyA,
		OnlyB:         report.Counts.OnlyB,
		ChangedCommon: report.Counts.ChangedCommon,
		CommonTotal:   report.Counts.CommonTotal,
		Report:        string(body),
	}, nil
}

// Decode returns the stored report.
func (r *Run) Decode() (*reconcile.Report, error) {
	var report reconcile.Report
	if err := json.Unmarshal([]byte(r.Report), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report of run %s: %w", r.ID, err)
	}
	return &report, nil
}

// Store persists comparison runs.
type Store struct {
	db *gorm.DB
}

// New creates a store on an open connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the runs table and verifies its columns.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Run{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", Run{}.TableName(), err)
	}

	expected := append([]string{"report"}, summaryColumns...)
	missing, err := database.MissingColumns(s.db.WithContext(ctx), Run{}.TableName(), expected...)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns %v", Run{}.TableName(), missing)
	}
	return nil
}

// Save inserts run, assigning an id and creation time when unset.
func (s *Store) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// List returns the most recent runs without their report bodies.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var runs []Run
	err := s.db.WithContext(ctx).
		Select(summaryColumns).
		Order("created_at desc").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Get returns the run with the given id, report included.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &run, nil
}
