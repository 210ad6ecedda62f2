package library

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMemoryJournal(t *testing.T) {
	db, err := NewDatabase(MemoryDSN)
	require.NoError(t, err)
	defer db.Close()

	bookID, memberID := uuid.New(), uuid.New()
	require.NoError(t, db.RecordCheckout(bookID, memberID, day0, day0.AddDate(0, 0, 14)))

	got, err := db.CheckoutHistory(bookID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, memberID, got[0].MemberID)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	db, err := NewDatabase(path)
	require.NoError(t, err)
	bookID := uuid.New()
	require.NoError(t, db.RecordCheckout(bookID, uuid.New(), day0, day0))
	require.NoError(t, db.Close())

	db, err = NewDatabase(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.CheckoutHistory(bookID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCheckoutFlow(t *testing.T) {
	db := tempDB(t)
	bookID, alice, bob := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, db.RecordCheckout(bookID, alice, day0, day0.AddDate(0, 0, 14)))
	require.NoError(t, db.RecordReservation(bookID, bob, day0))

	returned := day0.AddDate(0, 0, 5)
	require.NoError(t, db.RecordReturn(ReturnEntry{
		BookID:       bookID,
		ReturnedBy:   alice,
		On:           returned,
		ReassignedTo: bob,
		DueOn:        returned.AddDate(0, 0, 7),
	}))

	checkouts, err := db.CheckoutHistory(bookID)
	require.NoError(t, err)
	require.Len(t, checkouts, 2)
	require.NotNil(t, checkouts[0].ReturnedOn)
	assert.Equal(t, "2024-03-06", *checkouts[0].ReturnedOn)
	assert.Equal(t, bob, checkouts[1].MemberID)
	assert.Equal(t, "2024-03-13", checkouts[1].DueOn)

	bobs, err := db.MemberCheckouts(bob)
	require.NoError(t, err)
	assert.Len(t, bobs, 1)

	res, err := db.ReservationHistory(bookID)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, ReservationFulfilled, res[0].Outcome)
	require.NotNil(t, res[0].ResolvedOn)
	assert.Equal(t, "2024-03-06", *res[0].ResolvedOn)
}

func TestRecordReturn_RequiresOpenCheckout(t *testing.T) {
	db := tempDB(t)
	err := db.RecordReturn(ReturnEntry{BookID: uuid.New(), ReturnedBy: uuid.New(), On: day0})
	assert.Error(t, err)
}

// TestReservationSystem covers common reservation scenarios.
func TestReservationSystem(t *testing.T) {
	db := tempDB(t)
	bookID, holder := uuid.New(), uuid.New()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, db.RecordCheckout(bookID, holder, day0, day0.AddDate(0, 0, 14)))
	for _, m := range []uuid.UUID{alice, bob, alice, carol} {
		require.NoError(t, db.RecordReservation(bookID, m, day0))
	}

	res, err := db.ReservationHistory(bookID)
	require.NoError(t, err)
	require.Len(t, res, 4)
	for _, r := range res {
		assert.Empty(t, r.Outcome, "fresh entries are pending")
		assert.Nil(t, r.ResolvedOn)
	}

	// Alice loses her place; only her oldest entry is resolved.
	require.NoError(t, db.RecordReturn(ReturnEntry{BookID: bookID, ReturnedBy: holder, On: day0, Dropped: alice}))
	res, err = db.ReservationHistory(bookID)
	require.NoError(t, err)
	assert.Equal(t, ReservationDropped, res[0].Outcome)
	assert.Empty(t, res[2].Outcome)

	// Removing the book discards whatever is still queued.
	require.NoError(t, db.RecordBookRemoved(bookID, "Dune", day0))
	res, err = db.ReservationHistory(bookID)
	require.NoError(t, err)
	assert.Equal(t, ReservationDropped, res[0].Outcome)
	for _, r := range res[1:] {
		assert.Equal(t, ReservationDiscarded, r.Outcome)
	}
}

func TestRecordBookAdded(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, db.RecordBookAdded(uuid.New(), "Dune", day0))

	var n int
	require.NoError(t, db.db.Get(&n, `SELECT COUNT(*) FROM catalog_changes WHERE action='added'`))
	assert.Equal(t, 1, n)
}
