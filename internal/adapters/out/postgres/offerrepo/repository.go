package offerrepo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOfferRepository implements ports.OfferRepository using GORM.
type GormOfferRepository struct {
	db *gorm.DB
}

// NewGormOfferRepository creates a new GORM offer repository.
func NewGormOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// Add saves a new offer. An existing offer of the same courier for the same order is an error.
func (r *GormOfferRepository) Add(ctx context.Context, aggregate *offer.Offer) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Update persists the answer and the settlement flag of an offer.
func (r *GormOfferRepository) Update(ctx context.Context, aggregate *offer.Offer) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&OfferDTO{}).
		Where("courier_id = ? AND order_id = ?", aggregate.CourierID().Bytes(), aggregate.OrderID().Bytes()).
		Updates(map[string]any{
			"accepted": aggregate.Accepted(),
			"settled":  aggregate.IsSettled(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("offer", aggregate.OrderID().String())
	}

	return nil
}

// Get retrieves the offer made to courierID for orderID.
func (r *GormOfferRepository) Get(ctx context.Context, courierID, orderID kernel.UUID) (*offer.Offer, error) {
	return r.get(ctx, r.db, courierID, orderID)
}

// GetForUpdate is Get with the row locked until the surrounding transaction ends.
func (r *GormOfferRepository) GetForUpdate(ctx context.Context, courierID, orderID kernel.UUID) (*offer.Offer, error) {
	return r.get(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), courierID, orderID)
}

// Delete removes an offer. Missing offers are ignored.
func (r *GormOfferRepository) Delete(ctx context.Context, courierID, orderID kernel.UUID) error {
	if err := errors.Join(courierID.Validate(), orderID.Validate()); err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Where("courier_id = ? AND order_id = ?", courierID.Bytes(), orderID.Bytes()).
		Delete(&OfferDTO{}).Error
}

// FindByOrder returns the most recent offer made for orderID to any courier.
func (r *GormOfferRepository) FindByOrder(ctx context.Context, orderID kernel.UUID) (*offer.Offer, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dto OfferDTO
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("created_at DESC").
		First(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("offer", orderID.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetExpiredUnsettled returns unanswered offers whose window closed at or before now.
func (r *GormOfferRepository) GetExpiredUnsettled(ctx context.Context, now time.Time) ([]*offer.Offer, error) {
	return r.find(ctx, r.db.
		Where("accepted IS NULL AND settled = ? AND expires_at <= ?", false, now.UTC()).
		Order("expires_at"))
}

// GetUnprocessedSettlements returns answered offers dispatch has not settled yet.
func (r *GormOfferRepository) GetUnprocessedSettlements(ctx context.Context) ([]*offer.Offer, error) {
	return r.find(ctx, r.db.
		Where("accepted IS NOT NULL AND settled = ?", false).
		Order("created_at"))
}

func (r *GormOfferRepository) get(ctx context.Context, db *gorm.DB, courierID, orderID kernel.UUID) (*offer.Offer, error) {
	if err := errors.Join(courierID.Validate(), orderID.Validate()); err != nil {
		return nil, err
	}

	var dto OfferDTO
	if err := db.WithContext(ctx).
		Where("courier_id = ? AND order_id = ?", courierID.Bytes(), orderID.Bytes()).
		First(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("offer", orderID.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormOfferRepository) find(ctx context.Context, query *gorm.DB) ([]*offer.Offer, error) {
	var dtos []OfferDTO
	if err := query.WithContext(ctx).Find(&dtos).Error; err != nil {
		return nil, err
	}

	offers := make([]*offer.Offer, 0, len(dtos))
	for _, dto := range dtos {
		of, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		offers = append(offers, of)
	}

	return offers, nil
}
