package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"property-maintenance-backend/internal/model"
	"property-maintenance-backend/internal/notification"
	"property-maintenance-backend/internal/parse"
	"property-maintenance-backend/internal/store"
)

// Enricher extracts stay dates from comment text.
type Enricher func(text string) (parse.StayDates, error)

// StayDateEnricher parses stay dates in loc.
func StayDateEnricher(loc *time.Location) Enricher {
	return func(text string) (parse.StayDates, error) {
		return parse.ParseStayDates(text, loc)
	}
}

// CommentInput is a new comment on a task.
type CommentInput struct {
	TaskID          string
	Text            string
	UserID          string
	UserDisplayName string
}

// Comments is the comment repository.
type Comments struct {
	store    store.Store
	enrich   Enricher
	notifier Notifier
	log      *zap.Logger
}

// NewComments builds the repository. enrich and notifier may be nil.
func NewComments(s store.Store, enrich Enricher, notifier Notifier, log *zap.Logger) *Comments {
	return &Comments{store: s, enrich: enrich, notifier: notifier, log: log}
}

// AddComment stores the comment and returns it with its id and timestamp.
// Stay dates found in the text are copied onto the parent task; failures there
// are only logged.
func (r *Comments) AddComment(ctx context.Context, in CommentInput) (*model.TaskComment, error) {
	if in.TaskID == "" || strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: task id and text are required", ErrInvalidInput)
	}

	c := &model.TaskComment{
		TaskID:          in.TaskID,
		Text:            in.Text,
		UserID:          in.UserID,
		UserDisplayName: in.UserDisplayName,
	}
	if err := r.store.CreateComment(ctx, c); err != nil {
		r.log.Error("failed to add comment", zap.String("task_id", in.TaskID), zap.Error(err))
		return nil, err
	}

	r.applyStayDates(ctx, c)
	r.notify(ctx, c)
	return c, nil
}

func (r *Comments) applyStayDates(ctx context.Context, c *model.TaskComment) {
	if r.enrich == nil {
		return
	}
	log := r.log.With(zap.String("task_id", c.TaskID), zap.String("comment_id", c.ID))

	stay, err := r.enrich(c.Text)
	if err != nil {
		log.Warn("could not extract stay dates from comment", zap.Error(err))
		return
	}
	if stay.Empty() {
		return
	}
	if err := r.store.SetTaskStay(ctx, c.TaskID, stay.CheckIn, stay.CheckOut); err != nil {
		log.Warn("failed to record stay dates on task", zap.Error(err))
		return
	}
	log.Info("stay dates recorded from comment")
}

func (r *Comments) notify(ctx context.Context, c *model.TaskComment) {
	if r.notifier == nil {
		return
	}
	task, err := r.store.GetTask(ctx, c.TaskID)
	if err != nil || task == nil {
		r.log.Debug("no task for comment notification", zap.String("task_id", c.TaskID), zap.Error(err))
		return
	}
	r.notifier.Dispatch(notification.Event{
		Kind:       notification.CommentAdded,
		PropertyID: task.PropertyID,
		TaskID:     task.ID,
		TaskTitle:  task.Title,
	})
}

// GetCommentsForTask lists a task's comments, newest first.
func (r *Comments) GetCommentsForTask(ctx context.Context, taskID string) ([]model.TaskComment, error) {
	comments, err := r.store.ListComments(ctx, taskID)
	if err != nil {
		r.log.Error("failed to list comments", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}
	return comments, nil
}
