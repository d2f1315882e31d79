package session

// Session is the persisted record of a logged-in account. It carries the
// account fields needed to rebuild the current account without a database
// round trip and never carries the credential.
type Session struct {
	SchemaVersion uint8
	SessionID     string
	UserID        int64
	Name          string
	Email         string
	Rank          int64
	Confirmed     bool

	CreatedAt int64
	ExpiresAt int64
}
