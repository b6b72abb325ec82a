package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"property-maintenance-backend/internal/model"
)

// SaveSubscription creates or replaces a subscription and its property set.
func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription, propertyIDs []string) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Omit("Properties").Create(sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		properties := []*model.Property{}
		if len(propertyIDs) > 0 {
			if err := tx.Where("id IN ?", propertyIDs).Find(&properties).Error; err != nil {
				return fmt.Errorf("failed to load subscribed properties: %w", err)
			}
		}

		if err := tx.Model(sub).Association("Properties").Replace(properties); err != nil {
			return fmt.Errorf("failed to replace subscribed properties: %w", err)
		}
		return nil
	})
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	sub, err := first[model.PushSubscription](s.db.WithContext(ctx).Preload("Properties"), "endpoint = ?", endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	sub := &model.PushSubscription{Endpoint: endpoint}
	if err := s.db.WithContext(ctx).Select(clause.Associations).Delete(sub).Error; err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func (s *gormStore) SubscriptionsForProperty(ctx context.Context, propertyID string) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_property_mapping spm ON spm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("spm.property_id = ?", propertyID).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for property %s: %w", propertyID, err)
	}
	return subscriptions, nil
}
