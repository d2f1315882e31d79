// Package memory is an in-process implementation of goAccount.UserDatabase
// and goAccount.SocialAccountDatabase for tests, demos and the CLI bench.
//
// It mirrors the SQL store's semantics: deletion is a soft delete, every
// lookup ignores deleted accounts, and reset tokens are cancelled rather than
// removed.
package memory

import (
	"context"
	"sync"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
)

type user struct {
	account goAccount.Account
	deleted bool
}

type resetToken struct {
	token goAccount.PasswordResetToken
	seq   int64
	valid bool
}

// LoginRecord is one recorded login attempt.
type LoginRecord struct {
	UserID        int64
	Time          time.Time
	ClientAddress string
	Successful    bool
}

type socialKey struct {
	accountType string
	accountID   string
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	now     func() time.Time
	nextID  int64
	seq     int64
	users   map[int64]*user
	tokens  []resetToken
	logins  []LoginRecord
	socials map[socialKey]int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		now:     time.Now,
		nextID:  1,
		users:   make(map[int64]*user),
		socials: make(map[socialKey]int64),
	}
}

func (s *Store) byEmail(email string) *user {
	if email == "" {
		return nil
	}
	for _, u := range s.users {
		if !u.deleted && u.account.Email == email {
			return u
		}
	}
	return nil
}

func (s *Store) byName(name string) *user {
	if name == "" {
		return nil
	}
	for _, u := range s.users {
		if !u.deleted && u.account.Name == name {
			return u
		}
	}
	return nil
}

func (s *Store) live(id int64) *user {
	u, ok := s.users[id]
	if !ok || u.deleted {
		return nil
	}
	return u
}

func snapshot(u *user) *goAccount.Account {
	out := u.account
	if u.account.Credential != nil {
		cred := *u.account.Credential
		out.Credential = &cred
	}
	return &out
}

func (s *Store) insert(account *goAccount.Account) (int64, error) {
	if s.byEmail(account.Email) != nil {
		return 0, ErrDuplicate
	}
	if s.byName(account.Name) != nil {
		return 0, ErrDuplicate
	}

	id := s.nextID
	s.nextID++

	stored := &user{account: *account}
	stored.account.ID = id
	if account.Credential != nil {
		cred := *account.Credential
		stored.account.Credential = &cred
	}
	s.users[id] = stored
	return id, nil
}

func (s *Store) AddUser(_ context.Context, account *goAccount.Account) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(account)
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*goAccount.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u := s.byEmail(email); u != nil {
		return snapshot(u), nil
	}
	return nil, goAccount.ErrNotFound
}

func (s *Store) GetUserByName(_ context.Context, name string) (*goAccount.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u := s.byName(name); u != nil {
		return snapshot(u), nil
	}
	return nil, goAccount.ErrNotFound
}

func (s *Store) GetUserIDByEmail(_ context.Context, email string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u := s.byEmail(email); u != nil {
		return u.account.ID, nil
	}
	return 0, goAccount.ErrNotFound
}

func (s *Store) IsEmailRegistered(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byEmail(email) != nil, nil
}

func (s *Store) IsUserNameRegistered(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byName(name) != nil, nil
}

func (s *Store) GetUserPassword(_ context.Context, userID int64) (*goAccount.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.live(userID)
	if u == nil {
		return nil, goAccount.ErrNotFound
	}
	if u.account.Credential == nil {
		return nil, nil
	}
	cred := *u.account.Credential
	return &cred, nil
}

func (s *Store) SetUserPassword(_ context.Context, userID int64, credential goAccount.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.live(userID)
	if u == nil {
		return goAccount.ErrNotFound
	}
	u.account.Credential = &credential
	return nil
}

// DeleteUser soft-deletes the account and unlinks its social identities.
func (s *Store) DeleteUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.live(userID)
	if u == nil {
		return goAccount.ErrNotFound
	}
	u.deleted = true
	for k, id := range s.socials {
		if id == userID {
			delete(s.socials, k)
		}
	}
	return nil
}

func (s *Store) ConfirmUserRegistration(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byEmail(email)
	if u == nil {
		return goAccount.ErrNotFound
	}
	u.account.RegistrationConfirmed = true
	return nil
}

func (s *Store) RegisteredUserCount(_ context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if !u.deleted && u.account.RegistrationConfirmed && !u.account.RegistrationDate.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *Store) AddPasswordResetToken(_ context.Context, token goAccount.PasswordResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live(token.UserID) == nil {
		return goAccount.ErrNotFound
	}
	s.seq++
	s.tokens = append(s.tokens, resetToken{token: token, seq: s.seq, valid: true})
	return nil
}

// GetNewestPasswordResetToken orders by creation time, then insertion order.
func (s *Store) GetNewestPasswordResetToken(_ context.Context, email string) (*goAccount.PasswordResetToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u := s.byEmail(email)
	if u == nil {
		return nil, goAccount.ErrNotFound
	}

	var newest *resetToken
	for i := range s.tokens {
		t := &s.tokens[i]
		if !t.valid || t.token.UserID != u.account.ID {
			continue
		}
		if newest == nil || t.token.CreationTime.After(newest.token.CreationTime) ||
			(t.token.CreationTime.Equal(newest.token.CreationTime) && t.seq > newest.seq) {
			newest = t
		}
	}
	if newest == nil {
		return nil, goAccount.ErrNotFound
	}
	out := newest.token
	return &out, nil
}

func (s *Store) CancelAllPasswordResetTokens(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tokens {
		if s.tokens[i].token.UserID == userID {
			s.tokens[i].valid = false
		}
	}
	return nil
}

func (s *Store) MakeLoginRecord(_ context.Context, userID int64, successful bool, clientAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins = append(s.logins, LoginRecord{
		UserID:        userID,
		Time:          s.now(),
		ClientAddress: clientAddress,
		Successful:    successful,
	})
	return nil
}

func (s *Store) GetUserBySocialAccount(_ context.Context, details goAccount.SocialAccountDetails) (*goAccount.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.socials[socialKey{details.AccountType, details.AccountID}]
	if !ok {
		return nil, goAccount.ErrNotFound
	}
	u := s.live(id)
	if u == nil {
		return nil, goAccount.ErrNotFound
	}
	return snapshot(u), nil
}

func (s *Store) AddUserWithSocialAccount(_ context.Context, account *goAccount.Account, details goAccount.SocialAccountDetails) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := socialKey{details.AccountType, details.AccountID}
	if _, ok := s.socials[key]; ok {
		return 0, ErrDuplicate
	}
	id, err := s.insert(account)
	if err != nil {
		return 0, err
	}
	s.socials[key] = id
	return id, nil
}

// LoginRecords returns a copy of every recorded login attempt for userID.
func (s *Store) LoginRecords(userID int64) []LoginRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []LoginRecord
	for _, r := range s.logins {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}
