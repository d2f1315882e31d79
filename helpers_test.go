package goAccount

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

var errStorageDown = errors.New("storage unavailable")

type loginRecord struct {
	userID     int64
	successful bool
	address    string
}

type storedToken struct {
	token PasswordResetToken
	valid bool
}

type mockDatabase struct {
	mu sync.Mutex

	nextID  int64
	users   map[int64]*Account
	tokens  []storedToken
	logins  []loginRecord
	socials map[string]int64

	addErr           error
	lookupErr        error
	userIDByEmailErr error
	getPasswordErr   error
	setPasswordErr   error
	confirmErr       error
	deleteErr        error
	cancelTokensErr  error
	addTokenErr      error
	loginRecordErr   error

	addCalls          int
	confirmCalls      int
	setPasswordCalls  int
	cancelTokensCalls int
}

func newMockDatabase() *mockDatabase {
	return &mockDatabase{
		nextID:  1,
		users:   map[int64]*Account{},
		socials: map[string]int64{},
	}
}

func cloneAccount(a *Account) *Account {
	if a == nil {
		return nil
	}
	out := *a
	if a.Credential != nil {
		cred := *a.Credential
		out.Credential = &cred
	}
	return &out
}

func (d *mockDatabase) insert(account *Account) int64 {
	id := d.nextID
	d.nextID++
	stored := cloneAccount(account)
	stored.ID = id
	d.users[id] = stored
	return id
}

func (d *mockDatabase) byEmail(email string) *Account {
	for _, u := range d.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (d *mockDatabase) AddUser(_ context.Context, account *Account) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addCalls++
	if d.addErr != nil {
		return 0, d.addErr
	}
	return d.insert(account), nil
}

func (d *mockDatabase) GetUserByEmail(_ context.Context, email string) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	if u := d.byEmail(email); u != nil {
		return cloneAccount(u), nil
	}
	return nil, ErrNotFound
}

func (d *mockDatabase) GetUserByName(_ context.Context, name string) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	for _, u := range d.users {
		if u.Name != "" && u.Name == name {
			return cloneAccount(u), nil
		}
	}
	return nil, ErrNotFound
}

func (d *mockDatabase) GetUserIDByEmail(_ context.Context, email string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.userIDByEmailErr != nil {
		return 0, d.userIDByEmailErr
	}
	if d.lookupErr != nil {
		return 0, d.lookupErr
	}
	if u := d.byEmail(email); u != nil {
		return u.ID, nil
	}
	return 0, ErrNotFound
}

func (d *mockDatabase) IsEmailRegistered(_ context.Context, email string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return false, d.lookupErr
	}
	return d.byEmail(email) != nil, nil
}

func (d *mockDatabase) IsUserNameRegistered(_ context.Context, name string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return false, d.lookupErr
	}
	for _, u := range d.users {
		if u.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (d *mockDatabase) GetUserPassword(_ context.Context, userID int64) (*Credential, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.getPasswordErr != nil {
		return nil, d.getPasswordErr
	}
	u, ok := d.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if u.Credential == nil {
		return nil, nil
	}
	cred := *u.Credential
	return &cred, nil
}

func (d *mockDatabase) SetUserPassword(_ context.Context, userID int64, credential Credential) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setPasswordCalls++
	if d.setPasswordErr != nil {
		return d.setPasswordErr
	}
	u, ok := d.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Credential = &credential
	return nil
}

func (d *mockDatabase) DeleteUser(_ context.Context, userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.deleteErr != nil {
		return d.deleteErr
	}
	if _, ok := d.users[userID]; !ok {
		return ErrNotFound
	}
	delete(d.users, userID)
	return nil
}

func (d *mockDatabase) ConfirmUserRegistration(_ context.Context, email string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.confirmCalls++
	if d.confirmErr != nil {
		return d.confirmErr
	}
	u := d.byEmail(email)
	if u == nil {
		return ErrNotFound
	}
	u.RegistrationConfirmed = true
	return nil
}

func (d *mockDatabase) RegisteredUserCount(_ context.Context, since time.Time) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return 0, d.lookupErr
	}
	n := 0
	for _, u := range d.users {
		if u.RegistrationConfirmed && !u.RegistrationDate.Before(since) {
			n++
		}
	}
	return n, nil
}

func (d *mockDatabase) AddPasswordResetToken(_ context.Context, token PasswordResetToken) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.addTokenErr != nil {
		return d.addTokenErr
	}
	d.tokens = append(d.tokens, storedToken{token: token, valid: true})
	return nil
}

func (d *mockDatabase) GetNewestPasswordResetToken(_ context.Context, email string) (*PasswordResetToken, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	u := d.byEmail(email)
	if u == nil {
		return nil, ErrNotFound
	}
	var newest *PasswordResetToken
	for i := range d.tokens {
		st := d.tokens[i]
		if !st.valid || st.token.UserID != u.ID {
			continue
		}
		if newest == nil || !st.token.CreationTime.Before(newest.CreationTime) {
			tok := st.token
			newest = &tok
		}
	}
	if newest == nil {
		return nil, ErrNotFound
	}
	return newest, nil
}

func (d *mockDatabase) CancelAllPasswordResetTokens(_ context.Context, userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelTokensCalls++
	if d.cancelTokensErr != nil {
		return d.cancelTokensErr
	}
	for i := range d.tokens {
		if d.tokens[i].token.UserID == userID {
			d.tokens[i].valid = false
		}
	}
	return nil
}

func (d *mockDatabase) MakeLoginRecord(_ context.Context, userID int64, successful bool, clientAddress string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loginRecordErr != nil {
		return d.loginRecordErr
	}
	d.logins = append(d.logins, loginRecord{userID: userID, successful: successful, address: clientAddress})
	return nil
}

func (d *mockDatabase) GetUserBySocialAccount(_ context.Context, details SocialAccountDetails) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	id, ok := d.socials[details.AccountType+"/"+details.AccountID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAccount(d.users[id]), nil
}

func (d *mockDatabase) AddUserWithSocialAccount(_ context.Context, account *Account, details SocialAccountDetails) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addCalls++
	if d.addErr != nil {
		return 0, d.addErr
	}
	id := d.insert(account)
	d.socials[details.AccountType+"/"+details.AccountID] = id
	return id, nil
}

func (d *mockDatabase) user(id int64) *Account {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneAccount(d.users[id])
}

func (d *mockDatabase) userByEmail(email string) *Account {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneAccount(d.byEmail(email))
}

func (d *mockDatabase) loginRecords() []loginRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]loginRecord, len(d.logins))
	copy(out, d.logins)
	return out
}

// basicDatabase hides the social account methods of mockDatabase.
type basicDatabase struct {
	UserDatabase
}

type sentEmail struct {
	kind        string
	email       string
	name        string
	userID      int64
	code        string
	registrator *Account
}

type mockNotifier struct {
	mu      sync.Mutex
	sent    []sentEmail
	sendErr error
}

func (n *mockNotifier) record(e sentEmail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, e)
	return nil
}

func (n *mockNotifier) SendRegistrationEmail(_ context.Context, email, name string, userID int64, controlCode string) error {
	return n.record(sentEmail{kind: "registration", email: email, name: name, userID: userID, code: controlCode})
}

func (n *mockNotifier) SendManualRegistrationEmail(_ context.Context, email, name string, userID int64, controlCode string, registrator *Account) error {
	return n.record(sentEmail{kind: "manual", email: email, name: name, userID: userID, code: controlCode, registrator: registrator})
}

func (n *mockNotifier) SendLostPasswordEmail(_ context.Context, email, tokenKey string) error {
	return n.record(sentEmail{kind: "lost_password", email: email, code: tokenKey})
}

func (n *mockNotifier) emails() []sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentEmail, len(n.sent))
	copy(out, n.sent)
	return out
}

func (n *mockNotifier) last(t *testing.T) sentEmail {
	t.Helper()
	sent := n.emails()
	if len(sent) == 0 {
		t.Fatal("expected an email to be sent")
	}
	return sent[len(sent)-1]
}

type mockSessions struct {
	mu      sync.Mutex
	current *Account
	setErr  error
	getErr  error
	sets    int
}

func (s *mockSessions) CurrentAccount(context.Context) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return cloneAccount(s.current), nil
}

func (s *mockSessions) SetCurrentAccount(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.current = cloneAccount(account)
	return nil
}

func (s *mockSessions) get() *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAccount(s.current)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	manager  *Manager
	db       *mockDatabase
	notifier *mockNotifier
	sessions *mockSessions
	clock    *fakeClock
}

func newTestEnv(t *testing.T, configure ...func(*Builder)) *testEnv {
	t.Helper()

	env := &testEnv{
		db:       newMockDatabase(),
		notifier: &mockNotifier{},
		sessions: &mockSessions{},
		clock:    newFakeClock(),
	}

	b := New().
		WithDatabase(env.db).
		WithNotifier(env.notifier).
		WithSessionStore(env.sessions).
		WithClock(env.clock.Now).
		WithMetricsEnabled(true)
	for _, fn := range configure {
		fn(b)
	}

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)
	env.manager = m
	return env
}

// registerConfirmed registers an auto-confirmed account and returns its id.
func (e *testEnv) registerConfirmed(t *testing.T, email, name, password string) int64 {
	t.Helper()
	if r := e.manager.RegisterUser(context.Background(), email, name, password, true); r != ResultOK {
		t.Fatalf("RegisterUser(%q) = %s", email, r)
	}
	u := e.db.userByEmail(email)
	if u == nil {
		t.Fatalf("expected %q to be stored", email)
	}
	return u.ID
}

func isLowerHex(s string) bool {
	return s != "" && strings.Trim(s, "0123456789abcdef") == ""
}
