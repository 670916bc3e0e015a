package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/stockroom/internal/inventory/domain"
)

// GormItemRepository stores items in PostgreSQL. Each write runs in a
// transaction that publishes its change event before committing, so a row's
// events leave in the same order the row lock granted the writes.
type GormItemRepository struct {
	db        *gorm.DB
	publisher domain.ChangePublisher
}

// NewGormItemRepository creates a repository announcing writes on publisher
func NewGormItemRepository(db *gorm.DB, publisher domain.ChangePublisher) *GormItemRepository {
	return &GormItemRepository{db: db, publisher: publisher}
}

func (r *GormItemRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Item{})
}

func (r *GormItemRepository) FetchAll(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}
	return items, nil
}

func (r *GormItemRepository) Get(ctx context.Context, id string) (*domain.Item, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return findItem(r.db.WithContext(ctx), id)
}

func (r *GormItemRepository) FindByName(ctx context.Context, name string) (*domain.Item, error) {
	var item domain.Item
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("created_at ASC").
		Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find item by name: %w", err)
	}
	return &item, nil
}

func (r *GormItemRepository) Create(ctx context.Context, item *domain.Item) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		return r.publish(ctx, domain.ChangeAdded, *item)
	})
}

func (r *GormItemRepository) SetStock(ctx context.Context, id string, stock int) (*domain.Item, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	if stock < 0 {
		return nil, domain.ErrNegativeStock
	}

	var item domain.Item
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&item).
			Clauses(clause.Returning{}).
			Where("id = ?", id).
			Update("stock", stock)
		if res.Error != nil {
			return fmt.Errorf("failed to set stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return r.publish(ctx, domain.ChangeModified, item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormItemRepository) CompareAndSetStock(ctx context.Context, id string, expected, stock int) (*domain.Item, bool, error) {
	if !validID(id) {
		return nil, false, domain.ErrNotFound
	}
	if stock < 0 {
		return nil, false, domain.ErrNegativeStock
	}

	var item domain.Item
	swapped := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&item).
			Clauses(clause.Returning{}).
			Where("id = ? AND stock = ?", id, expected).
			Update("stock", stock)
		if res.Error != nil {
			return fmt.Errorf("failed to update stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			current, err := findItem(tx, id)
			if err != nil {
				return err
			}
			item = *current
			return nil
		}
		swapped = true
		return r.publish(ctx, domain.ChangeModified, item)
	})
	if err != nil {
		return nil, false, err
	}
	return &item, swapped, nil
}

func (r *GormItemRepository) IncrementStock(ctx context.Context, id string, delta int) (*domain.Item, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}

	var item domain.Item
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&item).
			Clauses(clause.Returning{}).
			Where("id = ? AND stock + ? >= 0", id, delta).
			Update("stock", gorm.Expr("stock + ?", delta))
		if res.Error != nil {
			return fmt.Errorf("failed to increment stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			if _, err := findItem(tx, id); err != nil {
				return err
			}
			return domain.ErrNegativeStock
		}
		return r.publish(ctx, domain.ChangeModified, item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormItemRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item domain.Item
		res := tx.Clauses(clause.Returning{}).Where("id = ?", id).Delete(&item)
		if res.Error != nil {
			return fmt.Errorf("failed to delete item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		item.ID = id
		return r.publish(ctx, domain.ChangeRemoved, item)
	})
}

func (r *GormItemRepository) publish(ctx context.Context, kind domain.ChangeKind, item domain.Item) error {
	if r.publisher == nil {
		return nil
	}
	if err := r.publisher.PublishChange(ctx, newChangeEvent(kind, item)); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", kind, err)
	}
	return nil
}

func findItem(db *gorm.DB, id string) (*domain.Item, error) {
	var item domain.Item
	if err := db.Where("id = ?", id).Take(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
