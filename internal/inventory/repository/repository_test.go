package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tair/stockroom/internal/inventory/domain"
)

func getGormDB(t *testing.T) *gorm.DB {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=stockroom_test port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

func TestGormItemRepository_Lifecycle(t *testing.T) {
	db := getGormDB(t)
	ctx := context.Background()
	pub := &recordingPublisher{}
	repo := NewGormItemRepository(db, pub)
	require.NoError(t, repo.AutoMigrate())
	require.NoError(t, db.Exec("DELETE FROM inventory_items").Error)

	item := &domain.Item{Name: "Burger", Stock: 10}
	require.NoError(t, repo.Create(ctx, item))
	require.NotEmpty(t, item.ID)

	found, err := repo.FindByName(ctx, "Burger")
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	updated, err := repo.IncrementStock(ctx, item.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, updated.Stock)

	_, err = repo.IncrementStock(ctx, item.ID, -21)
	assert.ErrorIs(t, err, domain.ErrNegativeStock)

	current, swapped, err := repo.CompareAndSetStock(ctx, item.ID, 5, 6)
	require.NoError(t, err)
	assert.False(t, swapped)
	assert.Equal(t, 20, current.Stock)

	updated, swapped, err = repo.CompareAndSetStock(ctx, item.ID, 20, 19)
	require.NoError(t, err)
	assert.True(t, swapped)
	assert.Equal(t, 19, updated.Stock)

	require.NoError(t, repo.Delete(ctx, item.ID))
	_, err = repo.Get(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []domain.ChangeKind{
		domain.ChangeAdded,
		domain.ChangeModified,
		domain.ChangeModified,
		domain.ChangeRemoved,
	}, pub.kinds())
}

func TestGormItemRepository_MalformedIDIsNotFound(t *testing.T) {
	repo := NewGormItemRepository(nil, nil)

	_, err := repo.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), "not-a-uuid"), domain.ErrNotFound)
}
