package movements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	"github.com/diallo-dev/coffrefort-backend/pkg/enums"
)

func setupMovementsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	movements := `
CREATE TABLE IF NOT EXISTS movements (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  safe_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  happened_at DATETIME NOT NULL,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	movementDetails := `
CREATE TABLE IF NOT EXISTS movement_details (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  movement_id TEXT NOT NULL,
  denomination_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL
);`
	require.NoError(t, db.Exec(movements).Error)
	require.NoError(t, db.Exec(movementDetails).Error)

	return db
}

func seedMovement(t *testing.T, repo Repository, safeID, userID uuid.UUID, movementType enums.MovementType, amount int64, happenedAt time.Time) *models.Movement {
	t.Helper()

	movement := &models.Movement{
		ID:          uuid.New(),
		SafeID:      safeID,
		UserID:      userID,
		Type:        movementType,
		AmountCents: amount,
		HappenedAt:  happenedAt,
		Details: []models.MovementDetail{
			{ID: uuid.New(), DenominationCents: amount, Quantity: 1},
		},
	}
	require.NoError(t, repo.Create(context.Background(), movement))
	return movement
}

func TestRepository_ListFilters(t *testing.T) {
	db := setupMovementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	safeID := uuid.New()
	userID := uuid.New()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	older := seedMovement(t, repo, safeID, userID, enums.MovementTypeEntry, 5000, base)
	newer := seedMovement(t, repo, safeID, userID, enums.MovementTypeExit, 2000, base.Add(48*time.Hour))
	seedMovement(t, repo, uuid.New(), userID, enums.MovementTypeEntry, 9900, base)

	all, err := repo.List(ctx, safeID, nil, nil, false, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID, "expected newest first")
	assert.Equal(t, older.ID, all[1].ID)
	require.Len(t, all[0].Details, 1)

	from := base.Add(24 * time.Hour)
	windowed, err := repo.List(ctx, safeID, &from, nil, false, 0)
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, newer.ID, windowed[0].ID)

	capped, err := repo.List(ctx, safeID, nil, nil, false, 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)
	assert.Equal(t, newer.ID, capped[0].ID)
}

func TestRepository_SoftDeleteTombstones(t *testing.T) {
	db := setupMovementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	safeID := uuid.New()
	movement := seedMovement(t, repo, safeID, uuid.New(), enums.MovementTypeEntry, 3000, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC))

	require.NoError(t, repo.SoftDelete(ctx, movement.ID, time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)))

	live, err := repo.List(ctx, safeID, nil, nil, false, 0)
	require.NoError(t, err)
	assert.Empty(t, live)

	withDeleted, err := repo.List(ctx, safeID, nil, nil, true, 0)
	require.NoError(t, err)
	require.Len(t, withDeleted, 1)
	assert.True(t, withDeleted[0].IsDeleted())

	got, err := repo.Get(ctx, movement.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.DeletedAt, "tombstoned movement stays readable")
}

func TestRepository_ReplaceDetails(t *testing.T) {
	db := setupMovementsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	movement := seedMovement(t, repo, uuid.New(), uuid.New(), enums.MovementTypeEntry, 7000, time.Date(2024, 5, 4, 9, 0, 0, 0, time.UTC))

	replacement := []models.MovementDetail{
		{ID: uuid.New(), DenominationCents: 2000, Quantity: 3},
		{ID: uuid.New(), DenominationCents: 500, Quantity: 2},
	}
	require.NoError(t, repo.ReplaceDetails(ctx, movement.ID, replacement))

	got, err := repo.Get(ctx, movement.ID)
	require.NoError(t, err)
	require.Len(t, got.Details, 2)
	for _, detail := range got.Details {
		assert.Equal(t, movement.ID, detail.MovementID)
	}
}
