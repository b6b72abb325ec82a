package store

import (
	"context"
	"fmt"

	"property-maintenance-backend/internal/model"
)

func (s *gormStore) CreateComment(ctx context.Context, c *model.TaskComment) error {
	defer s.track("create_comment")()

	c.ID = newID(c.ID)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create comment on task %s: %w", c.TaskID, err)
	}
	return nil
}

// ListComments returns a task's comments, newest first.
func (s *gormStore) ListComments(ctx context.Context, taskID string) ([]model.TaskComment, error) {
	defer s.track("list_comments")()

	var comments []model.TaskComment
	if err := s.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to list comments for task %s: %w", taskID, err)
	}
	return comments, nil
}
