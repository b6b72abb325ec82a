package store

import (
	"context"
	"fmt"
	"time"

	"property-maintenance-backend/internal/model"
)

// taskWritableColumns is the field set an upsert overwrites. id, created_at and
// the stay dates are never touched by it.
var taskWritableColumns = []string{"property_id", "title", "description", "status", "deadline", "photos"}

func (s *gormStore) CreateTask(ctx context.Context, t *model.MaintenanceTask) error {
	defer s.track("create_task")()

	t.ID = newID(t.ID)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if t.Photos == nil {
		t.Photos = []model.Photo{}
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *gormStore) GetTask(ctx context.Context, id string) (*model.MaintenanceTask, error) {
	defer s.track("get_task")()

	t, err := first[model.MaintenanceTask](s.db.WithContext(ctx), "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return t, nil
}

// UpdateTask overwrites the writable field set of an existing task, including
// zero values (a nil deadline clears it).
func (s *gormStore) UpdateTask(ctx context.Context, t *model.MaintenanceTask) error {
	defer s.track("update_task")()

	res := s.db.WithContext(ctx).
		Model(&model.MaintenanceTask{}).
		Where("id = ?", t.ID).
		Select(taskWritableColumns).
		Updates(t)
	if res.Error != nil {
		return fmt.Errorf("failed to update task %s: %w", t.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

func (s *gormStore) DeleteTask(ctx context.Context, id string) error {
	defer s.track("delete_task")()

	if err := s.db.WithContext(ctx).Delete(&model.MaintenanceTask{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

func (s *gormStore) ListTasksForProperty(ctx context.Context, propertyID string) ([]model.MaintenanceTask, error) {
	defer s.track("list_tasks")()

	var tasks []model.MaintenanceTask
	if err := s.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks for property %s: %w", propertyID, err)
	}
	return tasks, nil
}

func (s *gormStore) ListTasksByStatus(ctx context.Context, statuses ...model.TaskStatus) ([]model.MaintenanceTask, error) {
	defer s.track("list_tasks_by_status")()

	var tasks []model.MaintenanceTask
	if err := s.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks by status: %w", err)
	}
	return tasks, nil
}

func (s *gormStore) CountTasksByStatus(ctx context.Context, statuses ...model.TaskStatus) (int64, error) {
	defer s.track("count_tasks_by_status")()
	var n int64
	if err := s.db.WithContext(ctx).
		Model(&model.MaintenanceTask{}).
		Where("status IN ?", statuses).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	return n, nil
}

func (s *gormStore) ListRecentTasks(ctx context.Context, limit int) ([]model.MaintenanceTask, error) {
	defer s.track("list_recent_tasks")()

	var tasks []model.MaintenanceTask
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent tasks: %w", err)
	}
	return tasks, nil
}

// SetTaskStay patches whichever of the stay dates are non-nil.
func (s *gormStore) SetTaskStay(ctx context.Context, taskID string, checkIn, checkOut *time.Time) error {
	fields := make(map[string]any, 2)
	if checkIn != nil {
		fields["check_in"] = checkIn.UTC()
	}
	if checkOut != nil {
		fields["check_out"] = checkOut.UTC()
	}
	if len(fields) == 0 {
		return nil
	}
	defer s.track("set_task_stay")()

	res := s.db.WithContext(ctx).Model(&model.MaintenanceTask{}).Where("id = ?", taskID).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to set stay dates on task %s: %w", taskID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return nil
}
