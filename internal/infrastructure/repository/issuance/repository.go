package issuance

import (
	"context"

	"gorm.io/gorm"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/infrastructure/database/entities"
	"github.com/janhq/cms-media/internal/utils/issuanceid"
	"github.com/janhq/cms-media/internal/utils/platformerrors"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Repository stores credential issuance audit records.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RecordIssuance inserts one audit row, assigning an ID when none is set.
func (r *Repository) RecordIssuance(ctx context.Context, issuance credential.Issuance) error {
	if issuance.ID == "" {
		issuance.ID = issuanceid.NewAt(issuance.IssuedAt)
	}

	entity := toEntity(issuance)
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to record credential issuance",
			err,
			"4f1d6a2b-8c3e-4b5f-9a7d-0e1c2b3a4d5f",
		)
	}
	return nil
}

// List returns the most recent issuances first.
func (r *Repository) List(ctx context.Context, limit int) ([]credential.Issuance, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var rows []entities.CredentialIssuance
	err := r.db.WithContext(ctx).
		Order("issued_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list credential issuances",
			err,
			"7b2c9e4d-1a3f-4d6b-8e5c-2f0a9b8c7d6e",
		)
	}

	issuances := make([]credential.Issuance, 0, len(rows))
	for _, row := range rows {
		issuances = append(issuances, fromEntity(row))
	}
	return issuances, nil
}

func toEntity(issuance credential.Issuance) entities.CredentialIssuance {
	return entities.CredentialIssuance{
		ID:          issuance.ID,
		Principal:   issuance.Principal,
		Bucket:      issuance.Bucket,
		KeyPrefix:   issuance.KeyPrefix,
		AccessKeyID: issuance.AccessKeyID,
		IssuedAt:    issuance.IssuedAt,
		ExpiresAt:   issuance.ExpiresAt,
	}
}

func fromEntity(entity entities.CredentialIssuance) credential.Issuance {
	return credential.Issuance{
		ID:          entity.ID,
		Principal:   entity.Principal,
		Bucket:      entity.Bucket,
		KeyPrefix:   entity.KeyPrefix,
		AccessKeyID: entity.AccessKeyID,
		IssuedAt:    entity.IssuedAt,
		ExpiresAt:   entity.ExpiresAt,
	}
}
