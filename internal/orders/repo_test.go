package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/pagination"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Order{},
		&models.VendorOrder{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	))
	return conn
}

func seedVendorOrder(t *testing.T, repo Repository, orderID, vendorID uuid.UUID, status enums.VendorOrderStatus, earningsPaisa int64, createdAt time.Time) *models.VendorOrder {
	t.Helper()
	row, err := repo.CreateVendorOrder(context.Background(), &models.VendorOrder{
		OrderID:             orderID,
		VendorID:            vendorID,
		SubtotalPaisa:       earningsPaisa,
		CommissionRate:      decimal.RequireFromString("0.15"),
		VendorEarningsPaisa: earningsPaisa,
		Status:              status,
		ItemCount:           1,
		CreatedAt:           createdAt,
	})
	require.NoError(t, err)
	return row
}

func TestRepositoryFindOrderForUserScopesByOwner(t *testing.T) {
	conn := setupRepoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := uuid.New()
	order, err := repo.CreateOrder(ctx, &models.Order{
		OrderNumber:   "BZ-20260825-000001",
		UserID:        owner,
		SubtotalPaisa: 50000,
		TotalPaisa:    57500,
		Currency:      enums.CurrencyBDT,
		PaymentMethod: enums.PaymentMethodCOD,
	})
	require.NoError(t, err)

	found, err := repo.FindOrderForUser(ctx, order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = repo.FindOrderForUser(ctx, order.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListVendorOrdersFiltersAndPaginates(t *testing.T) {
	conn := setupRepoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	vendorID := uuid.New()
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	var newest *models.VendorOrder
	for i := 0; i < 3; i++ {
		newest = seedVendorOrder(t, repo, uuid.New(), vendorID, enums.VendorOrderStatusPending, 10000, base.Add(time.Duration(i)*time.Minute))
	}
	seedVendorOrder(t, repo, uuid.New(), vendorID, enums.VendorOrderStatusShipped, 20000, base.Add(time.Hour))
	seedVendorOrder(t, repo, uuid.New(), uuid.New(), enums.VendorOrderStatusPending, 30000, base.Add(time.Hour))

	pending := enums.VendorOrderStatusPending
	rows, err := repo.ListVendorOrders(ctx, vendorID, &pending, nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, vendorID, row.VendorID)
		assert.Equal(t, enums.VendorOrderStatusPending, row.Status)
	}

	// Newest first; the cursor excludes the row it points at.
	all, err := repo.ListVendorOrders(ctx, vendorID, nil, nil, 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	cursor := &pagination.Cursor{CreatedAt: all[0].CreatedAt, ID: all[0].ID}
	rest, err := repo.ListVendorOrders(ctx, vendorID, nil, cursor, 10)
	require.NoError(t, err)
	require.Len(t, rest, 3)
	for _, row := range rest {
		assert.NotEqual(t, all[0].ID, row.ID)
	}
	_ = newest
}

func TestRepositoryEarningsSummaryBuckets(t *testing.T) {
	conn := setupRepoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	vendorID := uuid.New()
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	seedVendorOrder(t, repo, uuid.New(), vendorID, enums.VendorOrderStatusDelivered, 40000, now)
	seedVendorOrder(t, repo, uuid.New(), vendorID, enums.VendorOrderStatusCompleted, 10000, now)
	seedVendorOrder(t, repo, uuid.New(), vendorID, enums.VendorOrderStatusPending, 25000, now)
	seedVendorOrder(t, repo, uuid.New(), vendorID, enums.VendorOrderStatusCancelled, 99999, now)
	seedVendorOrder(t, repo, uuid.New(), vendorID, enums.VendorOrderStatusRefunded, 5000, now)

	summary, err := repo.EarningsSummary(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), summary.SettledEarningsPaisa)
	assert.Equal(t, 2, summary.SettledOrders)
	assert.Equal(t, int64(25000), summary.PendingEarningsPaisa)
	assert.Equal(t, 1, summary.PendingOrders)
	assert.Equal(t, 1, summary.RefundedOrders)
}

func TestRepositoryStatusHistoryOrdering(t *testing.T) {
	conn := setupRepoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	orderID := uuid.New()
	from := string(enums.VendorOrderStatusPending)
	require.NoError(t, repo.CreateStatusHistory(ctx, &models.OrderStatusHistory{
		OrderID:   orderID,
		ToStatus:  string(enums.VendorOrderStatusPending),
		CreatedAt: time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, repo.CreateStatusHistory(ctx, &models.OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: &from,
		ToStatus:   string(enums.VendorOrderStatusConfirmed),
		CreatedAt:  time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
	}))

	rows, err := repo.ListStatusHistory(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, string(enums.VendorOrderStatusPending), rows[0].ToStatus)
	assert.Equal(t, string(enums.VendorOrderStatusConfirmed), rows[1].ToStatus)
}
