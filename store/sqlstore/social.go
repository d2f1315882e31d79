package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"

	goAccount "github.com/MrEthical07/goAccount"
)

func (s *Store) GetUserBySocialAccount(ctx context.Context, details goAccount.SocialAccountDetails) (*goAccount.Account, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT u.id, u.name, u.email, u.reg_date, u.reg_control_code, u.confirmed, u.user_rank, u.password, u.salt
		FROM um_user u
		JOIN um_social_account sa ON sa.user_id = u.id
		WHERE sa.account_type = ? AND sa.original_account_id = ? AND u.deleted = FALSE`),
		details.AccountType, details.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("SOCIAL_ACCOUNT_NOT_FOUND").
			With("account_type", details.AccountType).
			Wrap(goAccount.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SOCIAL_ACCOUNT_QUERY_FAILED").With("account_type", details.AccountType).Wrap(err)
	}
	return row.account(), nil
}

// AddUserWithSocialAccount inserts the account and its link in one transaction.
func (s *Store) AddUserWithSocialAccount(ctx context.Context, account *goAccount.Account, details goAccount.SocialAccountDetails) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, oops.Code("SOCIAL_ACCOUNT_INSERT_FAILED").Wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := insertUser(ctx, tx, account)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO um_social_account (user_id, account_type, original_account_id)
		VALUES (?, ?, ?)`), id, details.AccountType, details.AccountID)
	if err != nil {
		return 0, oops.Code("SOCIAL_ACCOUNT_INSERT_FAILED").
			With("account_type", details.AccountType).
			With("user_id", id).
			Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, oops.Code("SOCIAL_ACCOUNT_INSERT_FAILED").Wrap(err)
	}
	return id, nil
}

var (
	_ goAccount.UserDatabase          = (*Store)(nil)
	_ goAccount.SocialAccountDatabase = (*Store)(nil)
)
