package storage

import (
	"fmt"

	"gorm.io/gorm"

	"lens-server-go/internal/platform/errors"
)

// InvocationRepository persists and queries tool invocation records.
type InvocationRepository struct {
	db *gorm.DB
}

// NewInvocationRepository builds a repository over the global database.
func NewInvocationRepository() *InvocationRepository {
	return &InvocationRepository{db: GetDB()}
}

// NewInvocationRepositoryWithDB builds a repository over an explicit handle,
// used by tests.
func NewInvocationRepositoryWithDB(db *gorm.DB) *InvocationRepository {
	return &InvocationRepository{db: db}
}

// Create stores one invocation record.
func (r *InvocationRepository) Create(record *ToolInvocation) error {
	if err := r.db.Create(record).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "invocations.create", "failed to store invocation", err)
	}
	return nil
}

// ListQuery narrows List results. Zero values mean no filter.
type ListQuery struct {
	SessionID string
	Tool      string
	Limit     int
	Offset    int
}

// List returns invocations newest first, with the total count before paging.
func (r *InvocationRepository) List(q ListQuery) ([]ToolInvocation, int64, error) {
	query := r.db.Model(&ToolInvocation{})
	if q.SessionID != "" {
		query = query.Where("session_id = ?", q.SessionID)
	}
	if q.Tool != "" {
		query = query.Where("tool = ?", q.Tool)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(errors.KindStorage, "invocations.count", "failed to count invocations", err)
	}

	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var records []ToolInvocation
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(q.Offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, errors.Wrap(errors.KindStorage, "invocations.list", "failed to list invocations", err)
	}
	return records, total, nil
}

// Get fetches a single invocation by ID.
func (r *InvocationRepository) Get(id uint) (*ToolInvocation, error) {
	var record ToolInvocation
	if err := r.db.First(&record, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.KindStorage, "invocations.get", "invocation not found")
		}
		return nil, errors.Wrap(errors.KindStorage, "invocations.get", "failed to load invocation", err)
	}
	return &record, nil
}

// DeleteOlderThan prunes records created more than the given number of days
// ago and reports how many rows went away.
func (r *InvocationRepository) DeleteOlderThan(days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	result := r.db.
		Where("created_at < datetime('now', ?)", fmt.Sprintf("-%d days", days)).
		Delete(&ToolInvocation{})
	if result.Error != nil {
		return 0, errors.Wrap(errors.KindStorage, "invocations.prune", "failed to prune invocations", result.Error)
	}
	return result.RowsAffected, nil
}
