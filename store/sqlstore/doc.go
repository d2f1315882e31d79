// Package sqlstore implements goAccount.UserDatabase and
// goAccount.SocialAccountDatabase on a relational database.
//
// Two dialects are supported: SQLite through modernc.org/sqlite and
// PostgreSQL through pgx's database/sql driver. Each dialect ships its own
// goose migrations; call [Store.Migrate] before first use.
//
// Accounts are soft deleted. A deleted account frees its email and name for
// re-registration and is invisible to every lookup. Password reset tokens are
// cancelled by clearing their valid flag and are never removed.
package sqlstore
