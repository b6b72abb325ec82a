package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"property-maintenance-backend/internal/model"
	"property-maintenance-backend/internal/store"
)

// recentTaskLimit is how many tasks the dashboard lists as recent.
const recentTaskLimit = 5

// DashboardStats are the dashboard counters.
type DashboardStats struct {
	TotalProperties int64 `json:"totalProperties"`
	ActiveTasks     int   `json:"activeTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
	OverdueTasks    int   `json:"overdueTasks"`
}

// DashboardData is the dashboard view, recomputed on every call.
type DashboardData struct {
	Stats       DashboardStats          `json:"stats"`
	RecentTasks []model.MaintenanceTask `json:"recentTasks"`
}

// Dashboard aggregates task and property counts.
type Dashboard struct {
	store store.Store
	now   func() time.Time
	log   *zap.Logger
}

// NewDashboard builds the aggregator over s.
func NewDashboard(s store.Store, log *zap.Logger) *Dashboard {
	return &Dashboard{store: s, now: time.Now, log: log}
}

// GetDashboardData counts active tasks (Open or In Progress), the subset of
// those past their deadline, completed tasks and properties, and lists the
// most recently created tasks.
func (d *Dashboard) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	active, err := d.store.ListTasksByStatus(ctx, model.ActiveStatuses...)
	if err != nil {
		d.log.Error("failed to load active tasks", zap.Error(err))
		return nil, err
	}

	now := d.now()
	overdue := 0
	for _, t := range active {
		if t.Deadline != nil && t.Deadline.Before(now) {
			overdue++
		}
	}

	completed, err := d.store.CountTasksByStatus(ctx, model.StatusCompleted)
	if err != nil {
		d.log.Error("failed to count completed tasks", zap.Error(err))
		return nil, err
	}
	properties, err := d.store.CountProperties(ctx)
	if err != nil {
		d.log.Error("failed to count properties", zap.Error(err))
		return nil, err
	}
	recent, err := d.store.ListRecentTasks(ctx, recentTaskLimit)
	if err != nil {
		d.log.Error("failed to load recent tasks", zap.Error(err))
		return nil, err
	}

	return &DashboardData{
		Stats: DashboardStats{
			TotalProperties: properties,
			ActiveTasks:     len(active),
			CompletedTasks:  completed,
			OverdueTasks:    overdue,
		},
		RecentTasks: recent,
	}, nil
}
