package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veilshelf/veilshelf"
	"github.com/veilshelf/veilshelf/internal/domain"
	"github.com/veilshelf/veilshelf/internal/infra/database/models"
	"github.com/veilshelf/veilshelf/internal/usecase"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, record domain.Record) error {
	m := models.Record{
		ID:               record.ID,
		Title:            record.Title,
		Author:           record.Author,
		Description:      record.Description,
		PublicCategory:   record.PublicCategory,
		PublicYear:       record.PublicYear,
		CiphertextHandle: record.CiphertextHandle,
		DisclosedValue:   int64(record.DisclosedValue),
		Disclosed:        record.Disclosed,
		Creator:          record.Creator,
		CreatedAt:        record.CreatedAt,
	}

	err := r.db.WithContext(ctx).Create(&m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return veilshelf.ErrDuplicateID
	}
	return err
}

func (r *LedgerRepository) Get(ctx context.Context, id string) (domain.Record, error) {
	var m models.Record
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Record{}, veilshelf.NotFoundError{Resource: "record"}
	}
	if err != nil {
		return domain.Record{}, err
	}
	return toDomain(m), nil
}

func (r *LedgerRepository) GetHandle(ctx context.Context, id string) (veilshelf.CiphertextHandle, error) {
	var m models.Record
	err := r.db.WithContext(ctx).
		Select("id", "ciphertext_handle").
		Where("id = ?", id).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, veilshelf.NotFoundError{Resource: "record"}
	}
	if err != nil {
		return nil, err
	}
	return veilshelf.CiphertextHandle(m.CiphertextHandle), nil
}

// CommitDisclosure flips the record to disclosed under a row lock so the flag
// and the value can never be observed out of sync.
func (r *LedgerRepository) CommitDisclosure(ctx context.Context, id string, value uint32) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Record
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return veilshelf.NotFoundError{Resource: "record"}
		}
		if err != nil {
			return err
		}

		if m.Disclosed {
			return veilshelf.ErrAlreadyDisclosed
		}

		return tx.Model(&models.Record{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"disclosed":       true,
				"disclosed_value": int64(value),
			}).Error
	})
}

func (r *LedgerRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Record{}).
		Order("seq asc").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *LedgerRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func toDomain(m models.Record) domain.Record {
	return domain.Record{
		ID:               m.ID,
		Title:            m.Title,
		Author:           m.Author,
		Description:      m.Description,
		PublicCategory:   m.PublicCategory,
		PublicYear:       m.PublicYear,
		CiphertextHandle: veilshelf.CiphertextHandle(m.CiphertextHandle),
		DisclosedValue:   uint32(m.DisclosedValue),
		Disclosed:        m.Disclosed,
		Creator:          m.Creator,
		CreatedAt:        m.CreatedAt,
	}
}

var _ usecase.LedgerRepository = (*LedgerRepository)(nil)
