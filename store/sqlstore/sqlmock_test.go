package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goAccount "github.com/MrEthical07/goAccount"
)

var errConnReset = errors.New("connection reset by peer")

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return New(sqlx.NewDb(db, "sqlmock"), DialectSQLite), mock
}

func TestMockLookupErrorsAreNotNotFound(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM um_user WHERE email = \? AND deleted = FALSE`).
		WithArgs("a@example.com").
		WillReturnError(errConnReset)

	_, err := s.GetUserByEmail(ctx, "a@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, errConnReset)
	assert.NotErrorIs(t, err, goAccount.ErrNotFound)
}

func TestMockNoRowsIsNotFound(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id FROM um_user WHERE email = \?`).
		WithArgs("a@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetUserIDByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, goAccount.ErrNotFound)
}

func TestMockAddUserReturnsAssignedID(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	account := testAccount("a@example.com", "")
	mock.ExpectQuery(`INSERT INTO um_user .* RETURNING id`).
		WithArgs(sql.NullString{}, sql.NullString{String: "a@example.com", Valid: true}, account.RegistrationDate,
			"", true, goAccount.RankNormalUser,
			sql.NullString{String: "ab12", Valid: true}, sql.NullString{String: "cd34", Valid: true}).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(17)))

	id, err := s.AddUser(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)
}

func TestMockSetPasswordRowsAffectedError(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE um_user SET password = \?, salt = \?`).
		WithArgs("h", "s", int64(3)).
		WillReturnResult(sqlmock.NewErrorResult(errConnReset))

	err := s.SetUserPassword(ctx, 3, goAccount.Credential{Hash: "h", Salt: "s"})
	assert.ErrorIs(t, err, errConnReset)
}

func TestMockDeleteUserRollsBackOnUnlinkFailure(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE um_user SET deleted = TRUE`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM um_social_account`).
		WithArgs(int64(3)).
		WillReturnError(errConnReset)
	mock.ExpectRollback()

	err := s.DeleteUser(ctx, 3)
	assert.ErrorIs(t, err, errConnReset)
}

func TestMockDeleteUserBeginFails(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectBegin().WillReturnError(errConnReset)

	assert.ErrorIs(t, s.DeleteUser(ctx, 3), errConnReset)
}

func TestMockCountFailure(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM um_user`).
		WithArgs(since).
		WillReturnError(errConnReset)

	_, err := s.RegisteredUserCount(ctx, since)
	assert.ErrorIs(t, err, errConnReset)
}

func TestMockCancelTokensFailure(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE um_password_reset_token SET valid = FALSE`).
		WithArgs(int64(9)).
		WillReturnError(errConnReset)

	assert.ErrorIs(t, s.CancelAllPasswordResetTokens(ctx, 9), errConnReset)
}

func TestMockLoginRecordFailure(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO um_login_record`).
		WillReturnError(errConnReset)

	assert.ErrorIs(t, s.MakeLoginRecord(ctx, 1, true, "10.0.0.1"), errConnReset)
}

func TestMockSocialInsertRollsBack(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO um_user .* RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectExec(`INSERT INTO um_social_account`).
		WithArgs(int64(5), "github", "42").
		WillReturnError(errConnReset)
	mock.ExpectRollback()

	_, err := s.AddUserWithSocialAccount(ctx, testAccount("", "octo"), goAccount.SocialAccountDetails{AccountType: "github", AccountID: "42"})
	assert.ErrorIs(t, err, errConnReset)
}

func TestMigrateWrapsGooseFailure(t *testing.T) {
	s, _ := newMockStore(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return errConnReset
	}

	err := s.Migrate(context.Background())
	assert.ErrorIs(t, err, errConnReset)
	assert.Equal(t, ".", gotDir)
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), Dialect("oracle"), "")
	assert.Error(t, err)
}
