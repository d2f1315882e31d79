package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"

	goAccount "github.com/MrEthical07/goAccount"
)

const userColumns = `id, name, email, reg_date, reg_control_code, confirmed, user_rank, password, salt`

type userRow struct {
	ID          int64          `db:"id"`
	Name        sql.NullString `db:"name"`
	Email       sql.NullString `db:"email"`
	RegDate     time.Time      `db:"reg_date"`
	ControlCode string         `db:"reg_control_code"`
	Confirmed   bool           `db:"confirmed"`
	Rank        int            `db:"user_rank"`
	Password    sql.NullString `db:"password"`
	Salt        sql.NullString `db:"salt"`
}

func (r *userRow) account() *goAccount.Account {
	a := &goAccount.Account{
		ID:                      r.ID,
		Name:                    r.Name.String,
		Email:                   r.Email.String,
		RegistrationDate:        r.RegDate,
		RegistrationControlCode: r.ControlCode,
		RegistrationConfirmed:   r.Confirmed,
		Rank:                    r.Rank,
	}
	if r.Password.Valid && r.Salt.Valid {
		a.Credential = &goAccount.Credential{Hash: r.Password.String, Salt: r.Salt.String}
	}
	return a
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	Rebind(query string) string
}

func insertUser(ctx context.Context, q queryer, account *goAccount.Account) (int64, error) {
	var hash, salt sql.NullString
	if account.Credential != nil {
		hash = sql.NullString{String: account.Credential.Hash, Valid: true}
		salt = sql.NullString{String: account.Credential.Salt, Valid: true}
	}

	var id int64
	err := q.GetContext(ctx, &id, q.Rebind(`
		INSERT INTO um_user (name, email, reg_date, reg_control_code, confirmed, deleted, user_rank, password, salt)
		VALUES (?, ?, ?, ?, ?, FALSE, ?, ?, ?)
		RETURNING id`),
		nullable(account.Name), nullable(account.Email), account.RegistrationDate.UTC(),
		account.RegistrationControlCode, account.RegistrationConfirmed, account.Rank, hash, salt,
	)
	if err != nil {
		return 0, oops.Code("USER_INSERT_FAILED").
			With("operation", "add user").
			With("email", account.Email).
			Wrap(err)
	}
	return id, nil
}

func (s *Store) AddUser(ctx context.Context, account *goAccount.Account) (int64, error) {
	return insertUser(ctx, s.db, account)
}

func (s *Store) getUser(ctx context.Context, code, field, where string, arg any) (*goAccount.Account, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+userColumns+` FROM um_user WHERE `+where+` AND deleted = FALSE`), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code(code).With(field, arg).Wrap(goAccount.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With(field, arg).Wrap(err)
	}
	return row.account(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*goAccount.Account, error) {
	return s.getUser(ctx, "USER_NOT_FOUND", "email", "email = ?", email)
}

func (s *Store) GetUserByName(ctx context.Context, name string) (*goAccount.Account, error) {
	return s.getUser(ctx, "USER_NOT_FOUND", "name", "name = ?", name)
}

func (s *Store) GetUserIDByEmail(ctx context.Context, email string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, s.db.Rebind(`SELECT id FROM um_user WHERE email = ? AND deleted = FALSE`), email)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(goAccount.ErrNotFound)
	}
	if err != nil {
		return 0, oops.Code("USER_QUERY_FAILED").With("email", email).Wrap(err)
	}
	return id, nil
}

func (s *Store) exists(ctx context.Context, column, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM um_user WHERE `+column+` = ? AND deleted = FALSE`), value)
	if err != nil {
		return false, oops.Code("USER_QUERY_FAILED").With(column, value).Wrap(err)
	}
	return n > 0, nil
}

func (s *Store) IsEmailRegistered(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "email", email)
}

func (s *Store) IsUserNameRegistered(ctx context.Context, name string) (bool, error) {
	return s.exists(ctx, "name", name)
}

// GetUserPassword returns nil without error for an account that has no
// credential.
func (s *Store) GetUserPassword(ctx context.Context, userID int64) (*goAccount.Credential, error) {
	var row struct {
		Password sql.NullString `db:"password"`
		Salt     sql.NullString `db:"salt"`
	}
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT password, salt FROM um_user WHERE id = ? AND deleted = FALSE`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", userID).Wrap(goAccount.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With("user_id", userID).Wrap(err)
	}
	if !row.Password.Valid || !row.Salt.Valid {
		return nil, nil
	}
	return &goAccount.Credential{Hash: row.Password.String, Salt: row.Salt.String}, nil
}

func (s *Store) SetUserPassword(ctx context.Context, userID int64, credential goAccount.Credential) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE um_user SET password = ?, salt = ? WHERE id = ? AND deleted = FALSE`),
		credential.Hash, credential.Salt, userID)
	return checkAffected(result, err, "set password", "user_id", userID)
}

// DeleteUser soft-deletes the account and unlinks its social identities.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", "delete user").Wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE um_user SET deleted = TRUE WHERE id = ? AND deleted = FALSE`), userID)
	if err := checkAffected(result, err, "delete user", "user_id", userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM um_social_account WHERE user_id = ?`), userID); err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", "unlink social accounts").With("user_id", userID).Wrap(err)
	}
	if err := tx.Commit(); err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", "delete user").Wrap(err)
	}
	return nil
}

func (s *Store) ConfirmUserRegistration(ctx context.Context, email string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE um_user SET confirmed = TRUE WHERE email = ? AND deleted = FALSE`), email)
	return checkAffected(result, err, "confirm registration", "email", email)
}

func (s *Store) RegisteredUserCount(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`
		SELECT COUNT(*) FROM um_user
		WHERE confirmed = TRUE AND deleted = FALSE AND reg_date >= ?`), since.UTC())
	if err != nil {
		return 0, oops.Code("USER_QUERY_FAILED").With("operation", "count users").Wrap(err)
	}
	return n, nil
}

// checkAffected maps a zero-row update to ErrNotFound.
func checkAffected(result sql.Result, err error, operation, field string, value any) error {
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", operation).With(field, value).Wrap(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", operation).With(field, value).Wrap(err)
	}
	if rows == 0 {
		return oops.Code("USER_NOT_FOUND").With("operation", operation).With(field, value).Wrap(goAccount.ErrNotFound)
	}
	return nil
}

var (
	_ queryer = (*sqlx.DB)(nil)
	_ queryer = (*sqlx.Tx)(nil)
)
