package billing

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
)

// Repository provides DB operations used by the reconciler and checkout.
type Repository interface {
	// Transaction runs fn against a repository bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	GetUser(ctx context.Context, userID uint) (*models.User, error)
	SetUserSubscriptionStatus(ctx context.Context, userID uint, status entitlements.SubscriptionStatus) error
	// SetBillingCustomerRefIfEmpty stores ref unless the user already has one.
	// It reports whether this call wrote it.
	SetBillingCustomerRefIfEmpty(ctx context.Context, userID uint, ref string) (bool, error)

	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	UpdateSubscriptionsByRef(ctx context.Context, sub ProviderSubscription) error
	GetSubscriptionByRef(ctx context.Context, ref string) (*models.Subscription, error)
	SetSubscriptionStatus(ctx context.Context, id uint, status string) error
	ListSubscriptionsByUser(ctx context.Context, userID uint) ([]models.Subscription, error)

	CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) SetUserSubscriptionStatus(ctx context.Context, userID uint, status entitlements.SubscriptionStatus) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"subscription_status": status,
			"updated_at":          time.Now(),
		}).Error
}

func (r *gormRepository) SetBillingCustomerRefIfEmpty(ctx context.Context, userID uint, ref string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND (billing_customer_ref IS NULL OR billing_customer_ref = '')", userID).
		UpdateColumn("billing_customer_ref", ref)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "external_subscription_ref"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"external_price_ref",
			"status",
			"current_period_start",
			"current_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return db.Where("external_subscription_ref = ?", sub.ExternalSubscriptionRef).First(sub).Error
}

// UpdateSubscriptionsByRef writes absolute values to every row with the ref.
// Zero period bounds and an empty price are left unchanged.
func (r *gormRepository) UpdateSubscriptionsByRef(ctx context.Context, sub ProviderSubscription) error {
	updates := map[string]interface{}{
		"status":     sub.Status,
		"updated_at": time.Now(),
	}
	if !sub.CurrentPeriodStart.IsZero() {
		updates["current_period_start"] = sub.CurrentPeriodStart
	}
	if !sub.CurrentPeriodEnd.IsZero() {
		updates["current_period_end"] = sub.CurrentPeriodEnd
	}
	if sub.PriceRef != "" {
		updates["external_price_ref"] = sub.PriceRef
	}
	return r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("external_subscription_ref = ?", sub.Ref).
		UpdateColumns(updates).Error
}

func (r *gormRepository) GetSubscriptionByRef(ctx context.Context, ref string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("external_subscription_ref = ?", ref).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) SetSubscriptionStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&models.Subscription{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormRepository) ListSubscriptionsByUser(ctx context.Context, userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error
	return subs, err
}

func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	db := r.db.WithContext(ctx)
	tx := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
