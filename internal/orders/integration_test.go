//go:build integration

package orders

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	product "github.com/angelmondragon/orderledger-backend/internal/products"
	"github.com/angelmondragon/orderledger-backend/pkg/db"
	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
	"github.com/angelmondragon/orderledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderledger-backend/pkg/errors"
	"github.com/angelmondragon/orderledger-backend/pkg/migrate"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("orderledger"),
		postgres.WithUsername("ledger"),
		postgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	fsys, err := migrate.Source("")
	require.NoError(t, err)
	_, err = migrate.Up(ctx, sqlDB, fsys)
	require.NoError(t, err)
	return conn
}

func newPostgresService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	products := product.NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo: NewRepository(conn),
		Tx:   db.Wrap(conn),
		Products: func(tx *gorm.DB) ProductFinder {
			return products.WithTx(tx)
		},
	})
	require.NoError(t, err)
	return svc
}

func TestConcurrentAddsShareOneDraft(t *testing.T) {
	conn := setupPostgres(t)
	svc := newPostgresService(t, conn)
	ctx := context.Background()

	const workers = 8
	for i := 0; i < workers; i++ {
		require.NoError(t, conn.Create(&models.Product{
			Code:            fmt.Sprintf("C%d", i),
			Description:     "concurrent",
			StockStatus:     enums.ProductStockIn,
			FractionalPrice: dec("1.50"),
		}).Error)
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddItem(ctx, actorFor("u1"), addInput(fmt.Sprintf("C%d", i), 2))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "unexpected error: %v", err)
	}
	require.Positive(t, succeeded)

	var drafts []models.Order
	require.NoError(t, conn.Where("username = ? AND status = ?", "u1", enums.OrderStatusDraft).Find(&drafts).Error)
	require.Len(t, drafts, 1)

	var items int64
	require.NoError(t, conn.Model(&models.OrderItem{}).Where("order_id = ?", drafts[0].ID).Count(&items).Error)
	assert.Equal(t, int64(succeeded), items)
	assert.Equal(t, dec("3").Mul(dec(fmt.Sprint(succeeded))).StringFixed(2), drafts[0].Total.StringFixed(2))
}

func TestConcurrentDuplicateItemKeepsOneLine(t *testing.T) {
	conn := setupPostgres(t)
	svc := newPostgresService(t, conn)
	ctx := context.Background()

	require.NoError(t, conn.Create(&models.Product{
		Code:            "DUP",
		Description:     "duplicate",
		StockStatus:     enums.ProductStockIn,
		FractionalPrice: dec("4"),
	}).Error)
	seed, err := svc.AddItem(ctx, actorFor("u1"), addInput("DUP", 1))
	require.NoError(t, err)
	_, err = svc.DeleteItem(ctx, actorFor("u1"), seed.OrderID, seed.ItemID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, actorFor("u1"), addInput("DUP", 3))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	}
	assert.Equal(t, 1, succeeded)

	order := models.Order{}
	require.NoError(t, conn.First(&order, "id = ?", seed.OrderID).Error)
	assert.Equal(t, "12.00", order.Total.StringFixed(2))
}
