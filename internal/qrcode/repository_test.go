package qrcode

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerA   = "0190f0d0-0000-7000-8000-00000000000a"
	ownerB   = "0190f0d0-0000-7000-8000-00000000000b"
	recordID = "0190f0d0-0000-7000-8000-000000000001"
)

var recordColumns = []string{"id", "owner_id", "url", "dot_style", "eye_style", "fill_color", "back_color", "image", "created_at"}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newMockRepository(t)
	record := Record{
		ID: recordID, OwnerID: ownerA, URL: "https://example.com",
		DotStyle: "square", EyeStyle: "circle", FillColor: "#000000", BackColor: "#FFFFFF",
		Image: []byte{0x89, 'P', 'N', 'G'}, CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO qr_codes")).
		WithArgs(record.ID, record.OwnerID, record.URL, record.DotStyle, record.EyeStyle,
			record.FillColor, record.BackColor, record.Image, record.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), record))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListScopesByOwner(t *testing.T) {
	repo, mock := newMockRepository(t)
	newer := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner_id = $1")).
		WithArgs(ownerA).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow("id-2", ownerA, "https://b.test", "square", "square", "#000000", "#FFFFFF", []byte("b"), newer).
			AddRow("id-1", ownerA, "https://a.test", "circle", "gapped", "#111111", "#EEEEEE", []byte("a"), older))

	records, err := repo.List(context.Background(), ownerA)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "id-2", records[0].ID)
	assert.Equal(t, []byte("a"), records[1].Image)
	assert.Equal(t, "gapped", records[1].EyeStyle)
}

func TestRepository_ListEmpty(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM qr_codes")).
		WithArgs(ownerB).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	records, err := repo.List(context.Background(), ownerB)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestRepository_Get(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND owner_id = $2")).
		WithArgs(recordID, ownerB).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), ownerB, recordID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Get(context.Background(), ownerA, "not-a-uuid")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     error
	}{
		{name: "owned", affected: 1},
		{name: "missing or foreign", affected: 0, want: ErrNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM qr_codes WHERE id = $1 AND owner_id = $2")).
				WithArgs(recordID, ownerB).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			err := repo.Delete(context.Background(), ownerB, recordID)
			if tc.want == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.want)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_DeleteMalformedIDSkipsQuery(t *testing.T) {
	repo, mock := newMockRepository(t)

	err := repo.Delete(context.Background(), ownerA, "42")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteDriverError(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM qr_codes")).
		WillReturnError(errors.New("connection reset"))

	err := repo.Delete(context.Background(), ownerA, recordID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
