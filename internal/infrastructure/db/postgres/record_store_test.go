package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
	"github.com/fieldwork/backoffice-api/internal/core/ports"
)

var rowColumns = []string{"id", "field_id", "deleted", "created_at", "updated_at", "data"}

func newMockStore(t *testing.T) (*RecordStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store, ok := NewProvider(db).Store("reports").(*RecordStore)
	require.True(t, ok)
	return store, mock
}

func TestFindUnique(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "reports" WHERE deleted IS NULL AND id = \$1`).
		WillReturnRows(sqlmock.NewRows(rowColumns).AddRow("r1", "F1", nil, now, now, `{"title":"weekly"}`))

	rec, err := store.FindUnique(context.Background(), "r1", ports.ScopeActive)
	require.NoError(t, err)
	assert.Equal(t, "F1", rec.FieldID)
	assert.Equal(t, "weekly", rec.Attributes["title"])
	assert.Nil(t, rec.Deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUnique_NoRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "reports" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(rowColumns))

	_, err := store.FindUnique(context.Background(), "r1", ports.ScopeAll)
	assert.ErrorIs(t, err, ports.ErrNoRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCount_WithSearchAndTerms(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "reports" WHERE deleted IS NULL AND field_id = \$1 AND \(?\(data->>\$2 ILIKE \$3 OR data->>\$4 ILIKE \$5\)\)? AND data->>\$6 ILIKE \$7`).
		WithArgs("F1", "title", "%50\\%%", "text", "%50\\%%", "status", "%open%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := store.Count(context.Background(), ports.Filter{
		FieldID:      "F1",
		Search:       "50%",
		SearchFields: []string{"title", "text"},
		Terms:        []ports.Term{{Field: "status", Value: "open"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMany_OrdersAndPages(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "reports" WHERE deleted IS NULL ORDER BY data->>\$1 DESC, id DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows(rowColumns).
			AddRow("r2", "F1", nil, now, now, `{"title":"b"}`).
			AddRow("r1", "F1", nil, now, now, `{"title":"a"}`))

	recs, err := store.FindMany(context.Background(), ports.Filter{},
		ports.Window{Skip: 20, Take: 10}, ports.Order{Field: "title", Desc: true})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "r2", recs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NoRowMatched(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "reports" SET .* WHERE deleted IS NULL AND id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.Update(context.Background(), "r1", ports.ScopeActive, ports.Mutation{
		Deleted: ports.DeletedMark,
		At:      time.Now(),
	})
	assert.ErrorIs(t, err, ports.ErrNoRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_MergesAttributesAndReloads(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE "reports" SET "data"=data \|\| \$1::jsonb,"updated_at"=\$2 WHERE deleted IS NULL AND id = \$3`).
		WithArgs(`{"title":"renamed"}`, sqlmock.AnyArg(), "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "reports" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(rowColumns).AddRow("r1", "F1", nil, now, now, `{"title":"renamed","text":"kept"}`))

	rec, err := store.Update(context.Background(), "r1", ports.ScopeActive, ports.Mutation{
		Attributes: map[string]any{"title": "renamed"},
		At:         now,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", rec.Attributes["title"])
	assert.Equal(t, "kept", rec.Attributes["text"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMany(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM "reports" WHERE id IN \(\$1,\$2\)`).
		WithArgs("a", "b").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := store.DeleteMany(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_LocksRowsAndRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	deleted := now.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "reports" WHERE id IN \(\$1,\$2\) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(rowColumns).
			AddRow("a", "F1", deleted, now, now, `{}`).
			AddRow("b", "F1", deleted, now, now, `{}`))
	mock.ExpectExec(`UPDATE "reports" SET .* WHERE id IN \(\$\d+,\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	short := errors.New("short")
	err := store.InTx(context.Background(), func(ctx context.Context, tx ports.RecordStore) error {
		found, err := tx.FindMany(ctx, ports.Filter{IDs: []string{"a", "b"}, Scope: ports.ScopeAll}, ports.Window{}, ports.Order{})
		if err != nil {
			return err
		}
		require.Len(t, found, 2)
		assert.True(t, found[0].IsDeleted())

		n, err := tx.UpdateMany(ctx, []string{"a", "b"}, ports.Mutation{Deleted: ports.DeletedClear, At: now})
		if err != nil {
			return err
		}
		if n != 2 {
			return short
		}
		return nil
	})
	assert.ErrorIs(t, err, short)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%abc%", likePattern("abc"))
	assert.Equal(t, `%100\%\_off\\%`, likePattern(`100%_off\`))
}

func TestRowRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	row, err := toRow(&domain.Record{ID: "x", FieldID: "F1", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "{}", row.Data)

	rec, err := row.toRecord()
	require.NoError(t, err)
	assert.Empty(t, rec.Attributes)
	assert.Equal(t, "F1", rec.FieldID)
}
