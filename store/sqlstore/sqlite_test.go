package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goAccount "github.com/MrEthical07/goAccount"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	s, err := Open(ctx, DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(ctx))
	return s
}

func testAccount(email, name string) *goAccount.Account {
	return &goAccount.Account{
		ID:                    goAccount.UnassignedID,
		Name:                  name,
		Email:                 email,
		RegistrationDate:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		RegistrationConfirmed: true,
		Credential:            &goAccount.Credential{Hash: "ab12", Salt: "cd34"},
		Rank:                  goAccount.RankNormalUser,
	}
}

func TestSQLiteMigrateIsIdempotent(t *testing.T) {
	s := newSQLiteStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestSQLiteUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	id, err := s.AddUser(ctx, testAccount("a@example.com", "alice"))
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = s.AddUser(ctx, testAccount("a@example.com", "other"))
	assert.Error(t, err, "live email must be unique")

	got, err := s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "alice", got.Name)
	assert.True(t, got.RegistrationConfirmed)
	assert.Equal(t, goAccount.RankNormalUser, got.Rank)
	require.NotNil(t, got.Credential)
	assert.Equal(t, "ab12", got.Credential.Hash)
	assert.True(t, got.RegistrationDate.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	byName, err := s.GetUserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)

	gotID, err := s.GetUserIDByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, gotID)

	registered, err := s.IsUserNameRegistered(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, registered)

	require.NoError(t, s.SetUserPassword(ctx, id, goAccount.Credential{Hash: "ef56", Salt: "0789"}))
	cred, err := s.GetUserPassword(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, &goAccount.Credential{Hash: "ef56", Salt: "0789"}, cred)

	require.NoError(t, s.DeleteUser(ctx, id))
	_, err = s.GetUserByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, goAccount.ErrNotFound)
	_, err = s.GetUserPassword(ctx, id)
	assert.ErrorIs(t, err, goAccount.ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, id), goAccount.ErrNotFound)
	assert.ErrorIs(t, s.SetUserPassword(ctx, id, goAccount.Credential{}), goAccount.ErrNotFound)

	registered, err = s.IsEmailRegistered(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, registered)

	_, err = s.AddUser(ctx, testAccount("a@example.com", "alice"))
	assert.NoError(t, err, "soft delete frees email and name")
}

func TestSQLiteLookupsMissReportNotFound(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, goAccount.ErrNotFound)
	_, err = s.GetUserByName(ctx, "nobody")
	assert.ErrorIs(t, err, goAccount.ErrNotFound)
	_, err = s.GetUserIDByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, goAccount.ErrNotFound)
	assert.ErrorIs(t, s.ConfirmUserRegistration(ctx, "nobody@example.com"), goAccount.ErrNotFound)
}

func TestSQLiteEmptyNameIsStoredAsNull(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.AddUser(ctx, testAccount("a@example.com", ""))
	require.NoError(t, err)
	_, err = s.AddUser(ctx, testAccount("b@example.com", ""))
	require.NoError(t, err)

	registered, err := s.IsUserNameRegistered(ctx, "")
	require.NoError(t, err)
	assert.False(t, registered)

	got, err := s.GetUserByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Empty(t, got.Name)
}

func TestSQLiteAccountWithoutCredential(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	account := testAccount("a@example.com", "")
	account.Credential = nil
	id, err := s.AddUser(ctx, account)
	require.NoError(t, err)

	cred, err := s.GetUserPassword(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, cred)

	got, err := s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, got.Credential)
}

func TestSQLiteConfirmAndCount(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	pending := testAccount("p@example.com", "")
	pending.RegistrationConfirmed = false
	_, err := s.AddUser(ctx, pending)
	require.NoError(t, err)

	old := testAccount("o@example.com", "")
	old.RegistrationDate = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.AddUser(ctx, old)
	require.NoError(t, err)

	_, err = s.AddUser(ctx, testAccount("c@example.com", ""))
	require.NoError(t, err)

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n, err := s.RegisteredUserCount(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.ConfirmUserRegistration(ctx, "p@example.com"))
	n, err = s.RegisteredUserCount(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.RegisteredUserCount(ctx, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "the lower bound is inclusive")
}

func TestSQLiteResetTokens(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	id, err := s.AddUser(ctx, testAccount("a@example.com", ""))
	require.NoError(t, err)

	_, err = s.GetNewestPasswordResetToken(ctx, "a@example.com")
	assert.ErrorIs(t, err, goAccount.ErrNotFound)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddPasswordResetToken(ctx, goAccount.PasswordResetToken{UserID: id, Key: "k1", CreationTime: base}))
	require.NoError(t, s.AddPasswordResetToken(ctx, goAccount.PasswordResetToken{UserID: id, Key: "k2", CreationTime: base.Add(time.Minute)}))
	require.NoError(t, s.AddPasswordResetToken(ctx, goAccount.PasswordResetToken{UserID: id, Key: "k3", CreationTime: base.Add(time.Minute)}))

	newest, err := s.GetNewestPasswordResetToken(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "k3", newest.Key, "ties resolve to the later insert")
	assert.Equal(t, id, newest.UserID)
	assert.True(t, newest.CreationTime.Equal(base.Add(time.Minute)))

	require.NoError(t, s.CancelAllPasswordResetTokens(ctx, id))
	_, err = s.GetNewestPasswordResetToken(ctx, "a@example.com")
	assert.ErrorIs(t, err, goAccount.ErrNotFound)

	require.NoError(t, s.AddPasswordResetToken(ctx, goAccount.PasswordResetToken{UserID: id, Key: "k4", CreationTime: base}))
	newest, err = s.GetNewestPasswordResetToken(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "k4", newest.Key, "cancelled tokens never come back")
}

func TestSQLiteLoginRecords(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	long := "2001:0db8:85a3:0000:0000:8a2e:0370:7334%interface-name"
	require.NoError(t, s.MakeLoginRecord(ctx, 7, false, "10.0.0.1"))
	require.NoError(t, s.MakeLoginRecord(ctx, 7, true, long))
	require.NoError(t, s.MakeLoginRecord(ctx, 8, true, ""))

	records, err := s.LoginRecords(ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[0].Successful)
	assert.Equal(t, "10.0.0.1", records[0].ClientAddress)
	assert.True(t, records[1].Successful)
	assert.Equal(t, long[:maxClientAddressLength], records[1].ClientAddress)
	assert.True(t, records[0].Time.Equal(s.now()))
}

func TestSQLiteSocialAccounts(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	details := goAccount.SocialAccountDetails{AccountType: "github", AccountID: "42", Name: "octo"}
	_, err := s.GetUserBySocialAccount(ctx, details)
	assert.ErrorIs(t, err, goAccount.ErrNotFound)

	account := testAccount("", "octo")
	account.Credential = nil
	id, err := s.AddUserWithSocialAccount(ctx, account, details)
	require.NoError(t, err)

	got, err := s.GetUserBySocialAccount(ctx, details)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Empty(t, got.Email)

	second := testAccount("", "octo2")
	_, err = s.AddUserWithSocialAccount(ctx, second, details)
	assert.Error(t, err, "a social identity links to one account")
	_, err = s.GetUserByName(ctx, "octo2")
	assert.ErrorIs(t, err, goAccount.ErrNotFound, "failed link rolls back the user insert")

	require.NoError(t, s.DeleteUser(ctx, id))
	_, err = s.GetUserBySocialAccount(ctx, details)
	assert.ErrorIs(t, err, goAccount.ErrNotFound)

	_, err = s.AddUserWithSocialAccount(ctx, testAccount("", "octo"), details)
	assert.NoError(t, err, "deleting the account unlinks the identity")
}

func TestSQLiteStoreDrivesManager(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	m, err := goAccount.New().
		WithDatabase(s).
		WithNotifier(nopNotifier{}).
		WithSessionStore(&singleSession{}).
		Build()
	require.NoError(t, err)
	defer m.Close()

	require.Equal(t, goAccount.ResultOK, m.RegisterUser(ctx, "sql@example.com", "sql", "correct horse", true))
	require.Equal(t, goAccount.ResultOK, m.LogIn(ctx, "sql", "correct horse", "127.0.0.1"))
	assert.Equal(t, goAccount.ResultInvalidPassword, m.LogIn(ctx, "sql@example.com", "wrong horse", "127.0.0.1"))

	id, err := s.GetUserIDByEmail(ctx, "sql@example.com")
	require.NoError(t, err)
	records, err := s.LoginRecords(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Successful)
	assert.False(t, records[1].Successful)
}

type nopNotifier struct{}

func (nopNotifier) SendRegistrationEmail(context.Context, string, string, int64, string) error {
	return nil
}

func (nopNotifier) SendManualRegistrationEmail(context.Context, string, string, int64, string, *goAccount.Account) error {
	return nil
}

func (nopNotifier) SendLostPasswordEmail(context.Context, string, string) error { return nil }

type singleSession struct{ account *goAccount.Account }

func (s *singleSession) CurrentAccount(context.Context) (*goAccount.Account, error) {
	return s.account, nil
}

func (s *singleSession) SetCurrentAccount(_ context.Context, account *goAccount.Account) error {
	s.account = account
	return nil
}
