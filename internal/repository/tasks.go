package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"property-maintenance-backend/internal/model"
	"property-maintenance-backend/internal/notification"
	"property-maintenance-backend/internal/objectstore"
	"property-maintenance-backend/internal/store"
)

// Attachment is one uploaded photo. Attachments with no name or no content are skipped.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UpsertTaskRequest carries the JSON task fields in Data plus any photos.
type UpsertTaskRequest struct {
	Data   string
	Photos []Attachment
}

// taskPayload is the decoded Data blob. Nil pointer fields leave the stored
// value untouched on update.
type taskPayload struct {
	ID          string            `json:"id"`
	PropertyID  string            `json:"propertyId" validate:"required,max=36"`
	Title       string            `json:"title" validate:"required,max=256"`
	Description *string           `json:"description"`
	Status      *model.TaskStatus `json:"status" validate:"omitempty,task_status"`
	Deadline    *string           `json:"deadline"`
}

// Tasks is the task repository.
type Tasks struct {
	store    store.Store
	objects  objectstore.Store
	notifier Notifier
	validate *validator.Validate
	now      func() time.Time
	log      *zap.Logger
}

// NewTasks builds the repository. notifier may be nil.
func NewTasks(s store.Store, objects objectstore.Store, notifier Notifier, log *zap.Logger) *Tasks {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return model.TaskStatus(fl.Field().String()).Valid()
	})
	return &Tasks{
		store:    s,
		objects:  objects,
		notifier: notifier,
		validate: v,
		now:      time.Now,
		log:      log,
	}
}

// UpsertTask creates a task when the payload has no id, otherwise updates the
// existing one. New photos are uploaded first and always appended after the
// photos already on the task.
func (r *Tasks) UpsertTask(ctx context.Context, req UpsertTaskRequest) (*model.MaintenanceTask, error) {
	payload, err := r.decode(req.Data)
	if err != nil {
		return nil, err
	}
	deadline, err := parseDeadline(payload.Deadline)
	if err != nil {
		return nil, err
	}

	var existing *model.MaintenanceTask
	if payload.ID != "" {
		existing, err = r.store.GetTask(ctx, payload.ID)
		if err != nil {
			r.log.Error("failed to load task for update", zap.String("task_id", payload.ID), zap.Error(err))
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("task %s: %w", payload.ID, ErrNotFound)
		}
	}

	uploaded, err := r.uploadPhotos(ctx, payload.PropertyID, req.Photos)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		task := &model.MaintenanceTask{
			PropertyID: payload.PropertyID,
			Title:      payload.Title,
			Status:     model.StatusOpen,
			Photos:     uploaded,
		}
		if payload.Description != nil {
			task.Description = *payload.Description
		}
		if payload.Status != nil && *payload.Status != "" {
			task.Status = *payload.Status
		}
		if payload.Deadline != nil {
			task.Deadline = deadline
		}
		if err := r.store.CreateTask(ctx, task); err != nil {
			r.log.Error("failed to create task", zap.String("property_id", payload.PropertyID), zap.Error(err))
			r.discardPhotos(ctx, uploaded)
			return nil, err
		}
		r.log.Info("task created", zap.String("task_id", task.ID), zap.String("property_id", task.PropertyID), zap.Int("photos", len(task.Photos)))
		notify(r.notifier, notification.Event{Kind: notification.TaskCreated, PropertyID: task.PropertyID, TaskID: task.ID, TaskTitle: task.Title})
		return task, nil
	}

	task := *existing
	task.PropertyID = payload.PropertyID
	task.Title = payload.Title
	if payload.Description != nil {
		task.Description = *payload.Description
	}
	if payload.Status != nil && *payload.Status != "" {
		task.Status = *payload.Status
	}
	if payload.Deadline != nil {
		task.Deadline = deadline
	}
	photos := make([]model.Photo, 0, len(existing.Photos)+len(uploaded))
	photos = append(photos, existing.Photos...)
	task.Photos = append(photos, uploaded...)

	if err := r.store.UpdateTask(ctx, &task); err != nil {
		r.discardPhotos(ctx, uploaded)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("task %s: %w", task.ID, ErrNotFound)
		}
		r.log.Error("failed to update task", zap.String("task_id", task.ID), zap.Error(err))
		return nil, err
	}
	r.log.Info("task updated", zap.String("task_id", task.ID), zap.Int("new_photos", len(uploaded)))
	notify(r.notifier, notification.Event{Kind: notification.TaskUpdated, PropertyID: task.PropertyID, TaskID: task.ID, TaskTitle: task.Title})
	return &task, nil
}

func (r *Tasks) decode(data string) (*taskPayload, error) {
	if strings.TrimSpace(data) == "" {
		return nil, fmt.Errorf("%w: missing task data", ErrInvalidInput)
	}
	var payload taskPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed task data: %v", ErrInvalidInput, err)
	}
	if err := r.validate.Struct(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &payload, nil
}

// parseDeadline accepts RFC 3339 timestamps and plain dates. An empty string
// clears the deadline.
func parseDeadline(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: deadline %q is not a date", ErrInvalidInput, s)
}

// uploadPhotos stores the attachments under tasks/{propertyID}/{millis}-{seq}-{name}.
// seq keeps paths distinct when a request carries two files with the same name.
// On failure the photos already stored by this call are removed again.
func (r *Tasks) uploadPhotos(ctx context.Context, propertyID string, attachments []Attachment) ([]model.Photo, error) {
	photos := make([]model.Photo, 0, len(attachments))
	millis := r.now().UnixMilli()
	for _, a := range attachments {
		if a.Filename == "" || a.Size == 0 || a.Body == nil {
			continue
		}
		objectPath := fmt.Sprintf("tasks/%s/%d-%d-%s", propertyID, millis, len(photos), path.Base(strings.ReplaceAll(a.Filename, "\\", "/")))
		url, err := r.objects.Upload(ctx, objectPath, a.ContentType, a.Body)
		if err != nil {
			r.log.Error("photo upload failed", zap.String("path", objectPath), zap.Error(err))
			r.discardPhotos(ctx, photos)
			return nil, fmt.Errorf("failed to upload %s: %w", a.Filename, err)
		}
		photos = append(photos, model.Photo{URL: url, Path: objectPath})
	}
	return photos, nil
}

// discardPhotos is best effort; a failed delete leaves an orphaned object.
func (r *Tasks) discardPhotos(ctx context.Context, photos []model.Photo) {
	ctx = context.WithoutCancel(ctx)
	for _, p := range photos {
		if err := r.objects.Delete(ctx, p.Path); err != nil {
			r.log.Warn("failed to remove orphaned photo", zap.String("path", p.Path), zap.Error(err))
		}
	}
}

// GetTasksForProperty lists a property's tasks, newest first.
func (r *Tasks) GetTasksForProperty(ctx context.Context, propertyID string) ([]model.MaintenanceTask, error) {
	tasks, err := r.store.ListTasksForProperty(ctx, propertyID)
	if err != nil {
		r.log.Error("failed to list tasks", zap.String("property_id", propertyID), zap.Error(err))
		return nil, err
	}
	return tasks, nil
}

// DeleteTask removes the task unconditionally. propertyID is only used for the
// notification and the log line.
func (r *Tasks) DeleteTask(ctx context.Context, taskID, propertyID string) error {
	if taskID == "" {
		return fmt.Errorf("%w: task id is required", ErrInvalidInput)
	}

	var title string
	if r.notifier != nil {
		if t, err := r.store.GetTask(ctx, taskID); err == nil && t != nil {
			title = t.Title
		}
	}

	if err := r.store.DeleteTask(ctx, taskID); err != nil {
		r.log.Error("failed to delete task", zap.String("task_id", taskID), zap.Error(err))
		return err
	}
	r.log.Info("task deleted", zap.String("task_id", taskID), zap.String("property_id", propertyID))
	notify(r.notifier, notification.Event{Kind: notification.TaskDeleted, PropertyID: propertyID, TaskID: taskID, TaskTitle: title})
	return nil
}
