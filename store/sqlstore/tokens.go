package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samber/oops"

	goAccount "github.com/MrEthical07/goAccount"
)

type tokenRow struct {
	UserID   int64     `db:"user_id"`
	Key      string    `db:"token_key"`
	DateTime time.Time `db:"date_time"`
}

func (s *Store) AddPasswordResetToken(ctx context.Context, token goAccount.PasswordResetToken) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO um_password_reset_token (user_id, date_time, token_key, valid)
		VALUES (?, ?, ?, TRUE)`),
		token.UserID, token.CreationTime.UTC(), token.Key)
	if err != nil {
		return oops.Code("RESET_TOKEN_INSERT_FAILED").With("user_id", token.UserID).Wrap(err)
	}
	return nil
}

// GetNewestPasswordResetToken orders by creation time, then insertion order.
func (s *Store) GetNewestPasswordResetToken(ctx context.Context, email string) (*goAccount.PasswordResetToken, error) {
	var row tokenRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT t.user_id, t.token_key, t.date_time
		FROM um_password_reset_token t
		JOIN um_user u ON u.id = t.user_id
		WHERE u.email = ? AND u.deleted = FALSE AND t.valid = TRUE
		ORDER BY t.date_time DESC, t.id DESC
		LIMIT 1`), email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("RESET_TOKEN_NOT_FOUND").With("email", email).Wrap(goAccount.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("RESET_TOKEN_QUERY_FAILED").With("email", email).Wrap(err)
	}
	return &goAccount.PasswordResetToken{
		UserID:       row.UserID,
		Key:          row.Key,
		CreationTime: row.DateTime,
	}, nil
}

func (s *Store) CancelAllPasswordResetTokens(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE um_password_reset_token SET valid = FALSE WHERE user_id = ? AND valid = TRUE`), userID)
	if err != nil {
		return oops.Code("RESET_TOKEN_UPDATE_FAILED").With("user_id", userID).Wrap(err)
	}
	return nil
}
