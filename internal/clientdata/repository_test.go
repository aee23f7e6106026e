package clientdata

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// testSchema creates all tables needed for testing
const testSchema = `
CREATE TABLE garmin_daily_summary (calendar_date TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE garmin_sleep (calendar_date TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE garmin_hrv (calendar_date TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);
`

type testRecord struct {
	CalendarDate string   `msgpack:"calendarDate"`
	Value        *float64 `msgpack:"value"`
}

func ptr(v float64) *float64 { return &v }

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Each :memory: connection is its own database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func insertRaw(t *testing.T, db *sql.DB, table, key string, v interface{}, expiresAt time.Time) {
	blob, err := msgpack.Marshal(v)
	require.NoError(t, err)
	_, err = db.Exec(
		"INSERT INTO "+table+" (calendar_date, data, expires_at) VALUES (?, ?, ?)",
		key, blob, expiresAt.Unix(),
	)
	require.NoError(t, err)
}

func TestStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	rec := testRecord{CalendarDate: "2025-03-01", Value: ptr(31.5)}
	require.NoError(t, repo.Store(TableDailySummary, "2025-03-01", rec, TTLClosedDay))

	var blob []byte
	var expiresAt int64
	err := db.QueryRow(
		"SELECT data, expires_at FROM garmin_daily_summary WHERE calendar_date = ?", "2025-03-01",
	).Scan(&blob, &expiresAt)
	require.NoError(t, err)

	var decoded testRecord
	require.NoError(t, msgpack.Unmarshal(blob, &decoded))
	assert.Equal(t, rec, decoded)

	expectedExpires := time.Now().Add(TTLClosedDay).Unix()
	assert.InDelta(t, expectedExpires, expiresAt, 5)
}

func TestStoreUpsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	require.NoError(t, repo.Store(TableHRV, "2025-03-01", testRecord{Value: ptr(1)}, time.Hour))
	require.NoError(t, repo.Store(TableHRV, "2025-03-01", testRecord{Value: ptr(2)}, time.Hour))

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM garmin_hrv WHERE calendar_date = ?", "2025-03-01").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var got testRecord
	found, err := repo.GetIfFresh(TableHRV, "2025-03-01", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2.0, *got.Value)
}

func TestStoreNilRecordsAbsence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	var missing *testRecord
	require.NoError(t, repo.Store(TableSleep, "2025-03-01", missing, TTLClosedDay))

	got := &testRecord{CalendarDate: "overwritten?"}
	found, err := repo.GetIfFresh(TableSleep, "2025-03-01", &got)
	require.NoError(t, err)
	assert.True(t, found, "a cached absence is still a hit")
	assert.Nil(t, got)
}

func TestGetIfFresh_Expired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	insertRaw(t, db, TableSleep, "2025-03-01", testRecord{Value: ptr(80)}, time.Now().Add(-time.Hour))

	var got testRecord
	found, err := repo.GetIfFresh(TableSleep, "2025-03-01", &got)
	require.NoError(t, err)
	assert.False(t, found, "expired data is not fresh")
}

func TestGet_ReturnsStaleData(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	insertRaw(t, db, TableSleep, "2025-03-01", testRecord{Value: ptr(80)}, time.Now().Add(-time.Hour))

	var got testRecord
	found, err := repo.Get(TableSleep, "2025-03-01", &got)
	require.NoError(t, err)
	require.True(t, found, "Get should return stale data")
	assert.Equal(t, 80.0, *got.Value)
}

func TestGet_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	var got testRecord
	found, err := repo.Get(TableDailySummary, "1999-01-01", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGet_CorruptBlob(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	_, err := db.Exec(
		"INSERT INTO garmin_hrv (calendar_date, data, expires_at) VALUES (?, ?, ?)",
		"2025-03-01", []byte{0xc1}, time.Now().Add(time.Hour).Unix(),
	)
	require.NoError(t, err)

	var got testRecord
	_, err = repo.Get(TableHRV, "2025-03-01", &got)
	assert.ErrorContains(t, err, "failed to decode")
}

func TestInvalidTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	var got testRecord

	assert.Error(t, repo.Store("users; DROP TABLE x", "k", got, time.Hour))
	_, err := repo.GetIfFresh("nope", "k", &got)
	assert.Error(t, err)
	_, err = repo.Get("nope", "k", &got)
	assert.Error(t, err)
	assert.Error(t, repo.Delete("nope", "k"))
	_, err = repo.DeleteExpired("nope")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableDailySummary, "2025-03-01", testRecord{}, time.Hour))
	require.NoError(t, repo.Delete(TableDailySummary, "2025-03-01"))

	var got testRecord
	found, err := repo.Get(TableDailySummary, "2025-03-01", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteAllExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	insertRaw(t, db, TableDailySummary, "2025-03-01", testRecord{}, past)
	insertRaw(t, db, TableDailySummary, "2025-03-02", testRecord{}, future)
	insertRaw(t, db, TableSleep, "2025-03-01", testRecord{}, past)
	insertRaw(t, db, TableSleep, "2025-03-02", testRecord{}, past)

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		TableDailySummary: 1,
		TableSleep:        2,
		TableHRV:          0,
	}, results)

	counts, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[TableDailySummary])
	assert.Equal(t, int64(0), counts[TableSleep])
}

func TestRepositoryClock(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	repo.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	require.NoError(t, repo.Store(TableHRV, "2025-03-01", testRecord{}, time.Hour))

	repo.now = time.Now
	var got testRecord
	found, err := repo.GetIfFresh(TableHRV, "2025-03-01", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTTLForDay(t *testing.T) {
	assert.Equal(t, TTLClosedDay, TTLForDay("2025-03-30", "2025-03-31"))
	assert.Equal(t, TTLOpenDay, TTLForDay("2025-03-31", "2025-03-31"))
	assert.Equal(t, TTLOpenDay, TTLForDay("2025-04-01", "2025-03-31"))
}
