package sqlstore

import (
	"context"
	"time"

	"github.com/samber/oops"
)

type loginRow struct {
	UserID     int64     `db:"user_id"`
	DateTime   time.Time `db:"date_time"`
	IP         string    `db:"ip"`
	Successful bool      `db:"successful"`
}

// MakeLoginRecord stores the attempt. Client addresses longer than an IPv6
// literal are truncated.
func (s *Store) MakeLoginRecord(ctx context.Context, userID int64, successful bool, clientAddress string) error {
	if len(clientAddress) > maxClientAddressLength {
		clientAddress = clientAddress[:maxClientAddressLength]
	}
	row := loginRow{
		UserID:     userID,
		DateTime:   s.timestamp(),
		IP:         clientAddress,
		Successful: successful,
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO um_login_record (user_id, date_time, ip, successful)
		VALUES (:user_id, :date_time, :ip, :successful)`, row)
	if err != nil {
		return oops.Code("LOGIN_RECORD_INSERT_FAILED").With("user_id", userID).Wrap(err)
	}
	return nil
}

// LoginRecord is one stored login attempt.
type LoginRecord struct {
	UserID        int64
	Time          time.Time
	ClientAddress string
	Successful    bool
}

// LoginRecords returns userID's attempts, oldest first.
func (s *Store) LoginRecords(ctx context.Context, userID int64) ([]LoginRecord, error) {
	var rows []loginRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT user_id, date_time, ip, successful FROM um_login_record
		WHERE user_id = ? ORDER BY id`), userID)
	if err != nil {
		return nil, oops.Code("LOGIN_RECORD_QUERY_FAILED").With("user_id", userID).Wrap(err)
	}
	out := make([]LoginRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, LoginRecord{UserID: r.UserID, Time: r.DateTime, ClientAddress: r.IP, Successful: r.Successful})
	}
	return out, nil
}
