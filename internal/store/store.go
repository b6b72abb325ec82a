package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"property-maintenance-backend/internal/metrics"
	"property-maintenance-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	CreateProperty(ctx context.Context, p *model.Property) error
	ListProperties(ctx context.Context) ([]model.Property, error)
	GetProperty(ctx context.Context, id string) (*model.Property, error)
	CountProperties(ctx context.Context) (int64, error)
	UpdateGuestCounts(ctx context.Context, updates []GuestCountUpdate) error

	CreateTask(ctx context.Context, t *model.MaintenanceTask) error
	GetTask(ctx context.Context, id string) (*model.MaintenanceTask, error)
	UpdateTask(ctx context.Context, t *model.MaintenanceTask) error
	DeleteTask(ctx context.Context, id string) error
	ListTasksForProperty(ctx context.Context, propertyID string) ([]model.MaintenanceTask, error)
	ListTasksByStatus(ctx context.Context, statuses ...model.TaskStatus) ([]model.MaintenanceTask, error)
	CountTasksByStatus(ctx context.Context, statuses ...model.TaskStatus) (int64, error)
	ListRecentTasks(ctx context.Context, limit int) ([]model.MaintenanceTask, error)
	SetTaskStay(ctx context.Context, taskID string, checkIn, checkOut *time.Time) error

	CreateComment(ctx context.Context, c *model.TaskComment) error
	ListComments(ctx context.Context, taskID string) ([]model.TaskComment, error)

	SaveSubscription(ctx context.Context, sub *model.PushSubscription, propertyIDs []string) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForProperty(ctx context.Context, propertyID string) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db      *gorm.DB
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewGormStore creates a new GORM-backed store. m may be nil.
func NewGormStore(db *gorm.DB, m *metrics.Metrics) Store {
	return &gormStore{
		db:      db,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *gormStore) track(operation string) func() {
	done := s.metrics.TrackStoreOperation(operation)
	start := time.Now()
	return func() { done(start) }
}

// newID assigns a store identifier when the caller did not supply one.
func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// first runs a single-row lookup and maps a missing row to (nil, nil).
func first[T any](q *gorm.DB, conds ...any) (*T, error) {
	var out T
	if err := q.First(&out, conds...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}
