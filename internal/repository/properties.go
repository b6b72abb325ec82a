package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"property-maintenance-backend/internal/lodgify"
	"property-maintenance-backend/internal/metrics"
	"property-maintenance-backend/internal/model"
	"property-maintenance-backend/internal/store"
)

// PropertyInput is the caller-supplied part of a new property.
type PropertyInput struct {
	Name              string `json:"name" binding:"required,max=256"`
	Address           string `json:"address" binding:"max=512"`
	ImageURL          string `json:"imageUrl" binding:"omitempty,url"`
	ImageHint         string `json:"imageHint"`
	OwnerID           string `json:"ownerId"`
	LodgifyPropertyID int64  `json:"lodgifyPropertyId" binding:"gte=0"`
}

// Properties is the property repository.
type Properties struct {
	store       store.Store
	bookings    BookingSource
	concurrency int
	metrics     *metrics.Metrics
	log         *zap.Logger
}

// NewProperties builds the repository. bookings may be nil, in which case every
// live guest count is 0.
func NewProperties(s store.Store, bookings BookingSource, concurrency int, m *metrics.Metrics, log *zap.Logger) *Properties {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Properties{
		store:       s,
		bookings:    bookings,
		concurrency: concurrency,
		metrics:     m,
		log:         log,
	}
}

// AddProperty stores a new property with a server-assigned id and creation time.
func (r *Properties) AddProperty(ctx context.Context, in PropertyInput) (*model.Property, error) {
	p := &model.Property{
		Name:              in.Name,
		Address:           in.Address,
		ImageURL:          in.ImageURL,
		ImageHint:         in.ImageHint,
		OwnerID:           in.OwnerID,
		LodgifyPropertyID: in.LodgifyPropertyID,
	}
	if err := r.store.CreateProperty(ctx, p); err != nil {
		r.log.Error("failed to add property", zap.String("name", in.Name), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// GetProperties lists all properties, newest first, with CurrentGuestCount
// recomputed live from the booking source. A failed lookup yields 0.
func (r *Properties) GetProperties(ctx context.Context) ([]model.Property, error) {
	properties, err := r.store.ListProperties(ctx)
	if err != nil {
		r.log.Error("failed to list properties", zap.Error(err))
		return nil, err
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := range properties {
		p := &properties[i]
		g.Go(func() error {
			n := r.liveGuestCount(ctx, p)
			p.CurrentGuestCount = &n
			return nil
		})
	}
	_ = g.Wait()

	return properties, nil
}

func (r *Properties) liveGuestCount(ctx context.Context, p *model.Property) int {
	if p.LodgifyPropertyID == 0 || r.bookings == nil {
		return 0
	}

	guests, err := r.bookings.GuestsForProperty(ctx, p.LodgifyPropertyID)
	if err != nil {
		if errors.Is(err, lodgify.ErrMissingAPIKey) {
			r.log.Debug("booking source not configured, guest count defaults to 0", zap.String("property_id", p.ID))
			return 0
		}
		r.metrics.RecordBookingLookupFailure()
		r.log.Warn("guest count lookup failed",
			zap.String("property_id", p.ID),
			zap.Int64("lodgify_property_id", p.LodgifyPropertyID),
			zap.Error(err))
		return 0
	}
	return guests
}

// GetPropertyByID returns the property or nil when it does not exist. With
// withTasks set, the property's tasks are inlined newest first.
func (r *Properties) GetPropertyByID(ctx context.Context, id string, withTasks bool) (*model.Property, error) {
	p, err := r.store.GetProperty(ctx, id)
	if err != nil {
		r.log.Error("failed to get property", zap.String("property_id", id), zap.Error(err))
		return nil, err
	}
	if p == nil || !withTasks {
		return p, nil
	}

	tasks, err := r.store.ListTasksForProperty(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to inline tasks: %w", err)
	}
	p.Tasks = tasks
	return p, nil
}
