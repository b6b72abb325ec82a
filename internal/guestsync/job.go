// Package guestsync reconciles the cached guest count on each property with
// the bookings currently in progress in Lodgify.
package guestsync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"property-maintenance-backend/internal/lodgify"
	"property-maintenance-backend/internal/metrics"
	"property-maintenance-backend/internal/store"
)

// Pass statuses reported to the caller.
const (
	StatusApplied    = "APPLIED"
	StatusDryRunOnly = "DRY_RUN_ONLY"
	StatusFailed     = "FAILED"
	StatusDryRunFail = "DRY_RUN_FAILED"
)

// BookingSource lists the bookings whose stay is in progress.
type BookingSource interface {
	Configured() bool
	CurrentBookings(ctx context.Context) ([]lodgify.Booking, error)
}

// Change is one staged guest count update.
type Change struct {
	PropertyName  string `json:"propertyName"`
	OldGuestCount *int   `json:"oldGuestCount"`
	NewGuestCount int    `json:"newGuestCount"`
}

// Report summarises one reconciliation pass.
type Report struct {
	Applied bool              `json:"-"`
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Count   int               `json:"updated_properties_count"`
	Changes map[string]Change `json:"updated_properties"`
}

// Job runs reconciliation passes. With Apply unset it only reports what it
// would write.
type Job struct {
	store    store.Store
	bookings BookingSource
	apply    bool
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewJob(s store.Store, bookings BookingSource, apply bool, m *metrics.Metrics, log *zap.Logger) *Job {
	return &Job{
		store:    s,
		bookings: bookings,
		apply:    apply,
		metrics:  m,
		log:      log,
	}
}

// Apply reports whether passes write their staged updates.
func (j *Job) Apply() bool {
	return j.apply
}

// FailureStatus is the status reported when a pass errors.
func (j *Job) FailureStatus() string {
	if j.apply {
		return StatusFailed
	}
	return StatusDryRunFail
}

// Run executes a pass immediately and then once per interval until ctx is done.
func (j *Job) Run(ctx context.Context, interval time.Duration) {
	j.log.Info("starting guest count reconciliation", zap.Duration("interval", interval), zap.Bool("apply", j.apply))

	j.runLogged(ctx)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info("guest count reconciliation shutting down")
			return
		case <-timer.C:
			j.runLogged(ctx)
			timer.Reset(interval)
		}
	}
}

func (j *Job) runLogged(ctx context.Context) {
	if _, err := j.RunOnce(ctx); err != nil {
		j.log.Error("guest count reconciliation failed", zap.Error(err))
	}
}

// RunOnce fetches current bookings, sums guests per Lodgify property and stages
// an update for every property whose stored count differs. Any fetch error
// aborts the pass before anything is written.
func (j *Job) RunOnce(ctx context.Context) (*Report, error) {
	if !j.bookings.Configured() {
		j.metrics.RecordSyncRun("failed", 0)
		return nil, lodgify.ErrMissingAPIKey
	}

	bookings, err := j.bookings.CurrentBookings(ctx)
	if err != nil {
		j.metrics.RecordSyncRun("failed", 0)
		return nil, err
	}
	guests := lodgify.SumGuestsByProperty(bookings)

	properties, err := j.store.ListProperties(ctx)
	if err != nil {
		j.metrics.RecordSyncRun("failed", 0)
		return nil, err
	}

	changes := make(map[string]Change)
	var updates []store.GuestCountUpdate
	for _, p := range properties {
		computed := 0
		if p.LodgifyPropertyID != 0 {
			computed = guests[p.LodgifyPropertyID]
		}
		if p.CurrentGuestCount != nil && *p.CurrentGuestCount == computed {
			continue
		}
		name := p.Name
		if name == "" {
			name = "Unknown"
		}
		changes[p.ID] = Change{PropertyName: name, OldGuestCount: p.CurrentGuestCount, NewGuestCount: computed}
		updates = append(updates, store.GuestCountUpdate{PropertyID: p.ID, Count: computed})
	}

	report := &Report{
		Applied: j.apply,
		Count:   len(updates),
		Changes: changes,
	}

	if !j.apply {
		report.Status = StatusDryRunOnly
		report.Message = "Data fetched from Lodgify, but no database writes were performed."
		j.log.Info("dry run reconciliation complete",
			zap.Int("bookings", len(bookings)),
			zap.Int("would_update", len(updates)),
			zap.Any("changes", changes))
		j.metrics.RecordSyncRun("dry_run", len(updates))
		return report, nil
	}

	if err := j.store.UpdateGuestCounts(ctx, updates); err != nil {
		j.metrics.RecordSyncRun("failed", 0)
		return nil, fmt.Errorf("failed to write guest counts: %w", err)
	}
	report.Status = StatusApplied
	report.Message = fmt.Sprintf("Guest counts updated for %d properties.", len(updates))
	j.log.Info("reconciliation complete", zap.Int("bookings", len(bookings)), zap.Int("updated", len(updates)))
	j.metrics.RecordSyncRun("applied", len(updates))
	return report, nil
}
