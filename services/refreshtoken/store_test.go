package refreshtoken

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/authcore/testutils"
)

func seedToken(t *testing.T, store *GormStore, token *RefreshToken) *RefreshToken {
	t.Helper()
	require.NoError(t, store.Insert(context.Background(), token))
	return token
}

func TestGormStore_RevokeConditional(t *testing.T) {
	db := testutils.SetupTestDB(t, &RefreshToken{})
	store := NewGormStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	seedToken(t, store, &RefreshToken{
		UserID:    1,
		TokenHash: "hash-a",
		FamilyID:  "family-a",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})

	affected, err := store.RevokeConditional(ctx, "hash-a", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// Second conditional revoke must see zero rows: this is the guarantee
	// that serialises concurrent rotations.
	affected, err = store.RevokeConditional(ctx, "hash-a", now)
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = store.RevokeConditional(ctx, "no-such-hash", now)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestGormStore_OldestActive_TieBreak(t *testing.T) {
	db := testutils.SetupTestDB(t, &RefreshToken{})
	store := NewGormStore(db)
	ctx := context.Background()
	now := time.Now().UTC()
	issued := now.Add(-time.Minute)

	// Same issuance instant: the lower primary key wins.
	first := seedToken(t, store, &RefreshToken{
		UserID:    1,
		TokenHash: "hash-1",
		FamilyID:  "family-1",
		IssuedAt:  issued,
		ExpiresAt: now.Add(time.Hour),
	})
	seedToken(t, store, &RefreshToken{
		UserID:    1,
		TokenHash: "hash-2",
		FamilyID:  "family-2",
		IssuedAt:  issued,
		ExpiresAt: now.Add(time.Hour),
	})

	oldest, err := store.OldestActive(ctx, 1, now)
	require.NoError(t, err)
	assert.Equal(t, first.ID, oldest.ID)
}

func TestGormStore_OldestActive_SkipsRevokedAndExpired(t *testing.T) {
	db := testutils.SetupTestDB(t, &RefreshToken{})
	store := NewGormStore(db)
	ctx := context.Background()
	now := time.Now().UTC()
	revokedAt := now

	seedToken(t, store, &RefreshToken{
		UserID:    1,
		TokenHash: "hash-revoked",
		FamilyID:  "family-1",
		IssuedAt:  now.Add(-3 * time.Hour),
		ExpiresAt: now.Add(time.Hour),
		RevokedAt: &revokedAt,
	})
	seedToken(t, store, &RefreshToken{
		UserID:    1,
		TokenHash: "hash-expired",
		FamilyID:  "family-2",
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})
	live := seedToken(t, store, &RefreshToken{
		UserID:    1,
		TokenHash: "hash-live",
		FamilyID:  "family-3",
		IssuedAt:  now.Add(-time.Hour),
		ExpiresAt: now.Add(time.Hour),
	})

	oldest, err := store.OldestActive(ctx, 1, now)
	require.NoError(t, err)
	assert.Equal(t, live.ID, oldest.ID)

	count, err := store.CountActive(ctx, 1, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormStore_RevokeFamily_OnlyTouchesUnrevoked(t *testing.T) {
	db := testutils.SetupTestDB(t, &RefreshToken{})
	store := NewGormStore(db)
	ctx := context.Background()
	now := time.Now().UTC()
	earlier := now.Add(-time.Hour)

	seedToken(t, store, &RefreshToken{
		UserID:    1,
		TokenHash: "gen-1",
		FamilyID:  "family-x",
		IssuedAt:  earlier,
		ExpiresAt: now.Add(time.Hour),
		RevokedAt: &earlier,
	})
	seedToken(t, store, &RefreshToken{
		UserID:    1,
		TokenHash: "gen-2",
		FamilyID:  "family-x",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})

	affected, err := store.RevokeFamily(ctx, "family-x", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// The first generation keeps its original revocation timestamp.
	gen1, err := store.FindByHash(ctx, "gen-1")
	require.NoError(t, err)
	assert.WithinDuration(t, earlier, *gen1.RevokedAt, time.Second)
}

func TestGormStore_FindByHash_NotFound(t *testing.T) {
	db := testutils.SetupTestDB(t, &RefreshToken{})
	store := NewGormStore(db)

	_, err := store.FindByHash(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
