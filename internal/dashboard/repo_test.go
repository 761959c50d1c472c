package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diallo-dev/coffrefort-backend/internal/ledger"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/diallo-dev/coffrefort-backend/pkg/enums"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS movements (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  safe_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  happened_at DATETIME NOT NULL,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS movement_details (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  movement_id TEXT NOT NULL,
  denomination_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS inventories (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  seq INTEGER NOT NULL,
  safe_id TEXT NOT NULL,
  counted_by_user_id TEXT NOT NULL,
  total_cents INTEGER NOT NULL,
  counted_at DATETIME NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS inventory_details (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  inventory_id TEXT NOT NULL,
  denomination_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL
);`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}

	return db
}

func sliceFor(t *testing.T, slices []DenominationSlice, denomination int64) DenominationSlice {
	t.Helper()
	for _, s := range slices {
		if s.DenominationCents == denomination {
			return s
		}
	}
	t.Fatalf("denomination %d missing from distribution", denomination)
	return DenominationSlice{}
}

// The distribution must see detail lines exactly as the ledger repository
// loads them, not just as hand-built fixtures.
func TestDenominationDistribution_RepositoryFetch(t *testing.T) {
	db := setupLedgerTestDB(t)
	reads := ledger.NewRepository(db)
	ctx := context.Background()

	safeID := uuid.New()
	userID := uuid.New()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	movement := &models.Movement{
		ID:          uuid.New(),
		SafeID:      safeID,
		UserID:      userID,
		Type:        enums.MovementTypeEntry,
		AmountCents: 2000,
		HappenedAt:  now.AddDate(0, 0, -3),
		Details: []models.MovementDetail{
			{ID: uuid.New(), DenominationCents: 1000, Quantity: 2},
		},
	}
	require.NoError(t, db.Create(movement).Error)

	inventory := &models.Inventory{
		ID:              uuid.New(),
		Seq:             1,
		SafeID:          safeID,
		CountedByUserID: userID,
		TotalCents:      1500,
		CountedAt:       now.AddDate(0, 0, -5),
		Details: []models.InventoryDetail{
			{ID: uuid.New(), DenominationCents: 500, Quantity: 3},
		},
	}
	require.NoError(t, db.Create(inventory).Error)

	movements, err := reads.ListMovements(ctx, safeID, nil, nil, false)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.Len(t, movements[0].Details, 1, "movement detail lines must be loaded")

	inventories, err := reads.ListInventories(ctx, safeID, nil, nil)
	require.NoError(t, err)
	require.Len(t, inventories, 1)

	dist := DenominationDistribution(movements, inventories, now, 30)

	bill1000 := sliceFor(t, dist, 1000)
	assert.Equal(t, int64(2), bill1000.Quantity)
	assert.Equal(t, int64(2000), bill1000.ValueCents)

	bill500 := sliceFor(t, dist, 500)
	assert.Equal(t, int64(3), bill500.Quantity)

	assert.Zero(t, sliceFor(t, dist, 5000).Quantity)
}
