package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/league-watcher/internal/league"
)

func newMockStore(t *testing.T) (*SnapshotStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewSnapshotStoreWithPool(mock, "", "previous_results.json", nil)
	require.NoError(t, err)
	return store, mock
}

func TestNewSnapshotStoreWithPoolValidates(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewSnapshotStoreWithPool(nil, "", "k", nil)
	require.Error(t, err)
	_, err = NewSnapshotStoreWithPool(mock, "bad;table", "k", nil)
	require.Error(t, err)
	_, err = NewSnapshotStoreWithPool(mock, "", "", nil)
	require.Error(t, err)
}

func TestSaveUpsertsSnapshot(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	saved := time.Unix(1_700_000_000, 0).UTC()
	store.now = func() time.Time { return saved }

	leagues := []league.League{{ID: "5", Name: "Tuesday", DayOfWeek: "tuesday", Sport: league.Sport{ID: "47"}}}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO league_snapshots")).
		WithArgs("previous_results.json", pgxmock.AnyArg(), saved).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Save(context.Background(), leagues))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadDecodesSnapshot(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	rows := mock.NewRows([]string{"leagues"}).
		AddRow([]byte(`[{"id":5,"name":"Tuesday","status":"sign_up","sport":{"id":"47"},"day_of_week":"tuesday"}]`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT leagues FROM league_snapshots")).
		WithArgs("previous_results.json").
		WillReturnRows(rows)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, league.ID("5"), got[0].ID)
	assert.Equal(t, "sign_up", got[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadWithoutRowIsEmpty(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT leagues").
		WithArgs("previous_results.json").
		WillReturnError(pgx.ErrNoRows)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestLoadCorruptSnapshotIsEmpty(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT leagues").
		WithArgs("previous_results.json").
		WillReturnRows(mock.NewRows([]string{"leagues"}).AddRow([]byte(`{"oops":true}`)))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadPropagatesQueryErrors(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT leagues").WithArgs("previous_results.json").WillReturnError(boom)

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS league_snapshots").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
