package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/mediabot/internal/media"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

func TestPostgresRecordsPutUpsertsDocument(t *testing.T) {
	db, mock := newMockDB(t)
	audio := media.Audio{ID: "a1", UserID: "42", Title: "Song", TagIDs: []string{"highvibe"}}

	mock.ExpectExec(regexp.QuoteMeta(upsertRecordSQL)).
		WithArgs(media.CollectionAudio, "a1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgresRecords(db).Put(context.Background(), media.CollectionAudio, "a1", audio))
}

func TestPostgresRecordsPutRejectsEmptyID(t *testing.T) {
	db, _ := newMockDB(t)
	err := NewPostgresRecords(db).Put(context.Background(), media.CollectionVideo, "  ", media.Video{})
	assert.Error(t, err)
}

func TestPostgresRecordsPutWrapsExecError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO media_records")).WillReturnError(boom)

	err := NewPostgresRecords(db).Put(context.Background(), media.CollectionVideo, "v1", media.Video{ID: "v1"})
	assert.ErrorIs(t, err, boom)
}

func TestPostgresUsersLookupName(t *testing.T) {
	db, mock := newMockDB(t)
	query := regexp.QuoteMeta(`SELECT name FROM users WHERE id = $1`)
	mock.ExpectQuery(query).WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Ada"))
	mock.ExpectQuery(query).WithArgs("7").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	users := NewPostgresUsers(db)
	name, err := users.LookupName(context.Background(), " 42 ")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	_, err = users.LookupName(context.Background(), "7")
	assert.ErrorIs(t, err, media.ErrUserNotFound)

	_, err = users.LookupName(context.Background(), "")
	assert.ErrorIs(t, err, media.ErrUserNotFound)
}
