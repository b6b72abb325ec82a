package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"property-maintenance-backend/internal/metrics"
	"property-maintenance-backend/internal/model"
	"property-maintenance-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// EventKind names what happened to a task.
type EventKind string

const (
	TaskCreated  EventKind = "task_created"
	TaskUpdated  EventKind = "task_updated"
	TaskDeleted  EventKind = "task_deleted"
	CommentAdded EventKind = "comment_added"
)

// Event is one task change to fan out to the subscribers of its property.
type Event struct {
	Kind       EventKind
	PropertyID string
	TaskID     string
	TaskTitle  string
}

// Message is the JSON payload delivered to the browser.
type Message struct {
	Kind       EventKind `json:"kind"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	PropertyID string    `json:"propertyId"`
	TaskID     string    `json:"taskId"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Event
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewWorkerPool creates a new worker pool. queueSize bounds the number of
// pending events; Dispatch drops events once it is full.
func NewWorkerPool(size, queueSize int, s store.Store, webpushOptions *webpush.Options, m *metrics.Metrics, log *zap.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueSize < size {
		queueSize = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, queueSize),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
		metrics: m,
		log:     log,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.log.With(zap.Int("worker", id))
	log.Debug("notification worker started")
	for {
		select {
		case ev := <-wp.jobs:
			wp.sendNotificationsForEvent(ctx, ev)
		case <-ctx.Done():
			log.Debug("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues an event without blocking. It reports false when the queue
// is full and the event was dropped.
func (wp *WorkerPool) Dispatch(ev Event) bool {
	select {
	case wp.jobs <- ev:
		return true
	default:
		wp.log.Warn("notification queue full, dropping event",
			zap.String("kind", string(ev.Kind)),
			zap.String("property_id", ev.PropertyID),
			zap.String("task_id", ev.TaskID))
		wp.metrics.RecordNotification("dropped")
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Event {
	return wp.jobs
}

func (wp *WorkerPool) sendNotificationsForEvent(ctx context.Context, ev Event) {
	log := wp.log.With(zap.String("property_id", ev.PropertyID), zap.String("task_id", ev.TaskID))

	subscriptions, err := wp.store.SubscriptionsForProperty(ctx, ev.PropertyID)
	if err != nil {
		log.Error("failed to fetch subscriptions", zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	propertyLabel := ev.PropertyID
	if p, err := wp.store.GetProperty(ctx, ev.PropertyID); err != nil {
		log.Warn("failed to fetch property", zap.Error(err))
	} else if p != nil && p.Name != "" {
		propertyLabel = p.Name
	}

	payload, err := json.Marshal(buildMessage(ev, propertyLabel))
	if err != nil {
		log.Error("failed to encode notification", zap.Error(err))
		return
	}

	log.Info("sending notifications", zap.Int("subscriptions", len(subscriptions)), zap.String("kind", string(ev.Kind)))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func buildMessage(ev Event, propertyLabel string) Message {
	var body string
	switch ev.Kind {
	case TaskCreated:
		body = fmt.Sprintf("New task: %s", ev.TaskTitle)
	case TaskUpdated:
		body = fmt.Sprintf("Task updated: %s", ev.TaskTitle)
	case TaskDeleted:
		body = fmt.Sprintf("Task removed: %s", ev.TaskTitle)
	case CommentAdded:
		body = fmt.Sprintf("New comment on %s", ev.TaskTitle)
	default:
		body = ev.TaskTitle
	}
	return Message{
		Kind:       ev.Kind,
		Title:      propertyLabel,
		Body:       body,
		PropertyID: ev.PropertyID,
		TaskID:     ev.TaskID,
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Error("failed to send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		wp.metrics.RecordNotification("error")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		wp.log.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		wp.metrics.RecordNotification("expired")
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
		return
	}
	wp.metrics.RecordNotification("sent")
}
