package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"property-maintenance-backend/internal/model"
)

func (s *gormStore) CreateProperty(ctx context.Context, p *model.Property) error {
	defer s.track("create_property")()

	p.ID = newID(p.ID)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// ListProperties returns every property, newest first.
func (s *gormStore) ListProperties(ctx context.Context) ([]model.Property, error) {
	defer s.track("list_properties")()

	var properties []model.Property
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

func (s *gormStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	defer s.track("get_property")()

	p, err := first[model.Property](s.db.WithContext(ctx), "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get property %s: %w", id, err)
	}
	return p, nil
}

func (s *gormStore) CountProperties(ctx context.Context) (int64, error) {
	defer s.track("count_properties")()
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Property{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return n, nil
}

// UpdateGuestCounts writes all staged guest counts in one transaction; either
// every update lands or none does.
func (s *gormStore) UpdateGuestCounts(ctx context.Context, updates []GuestCountUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	defer s.track("update_guest_counts")()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			if err := tx.Model(&model.Property{}).
				Where("id = ?", u.PropertyID).
				Update("current_guest_count", u.Count).Error; err != nil {
				return fmt.Errorf("failed to update guest count for property %s: %w", u.PropertyID, err)
			}
		}
		return nil
	})
}
