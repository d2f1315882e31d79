package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the JWS algorithm for session handles.
type SigningMethod string

const (
	// MethodEd25519 signs with EdDSA over Ed25519.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with HMAC-SHA256.
	MethodHS256 SigningMethod = "hs256"
)

const (
	maxLeeway           = 2 * time.Minute
	defaultMaxFutureIAT = 10 * time.Minute
	maxFutureIATLimit   = 24 * time.Hour
)

var (
	// ErrNoSigningKey is returned by CreateHandle on a verify-only Manager.
	ErrNoSigningKey = errors.New("jwt: no signing key configured")
	// ErrEmptySessionID is returned by CreateHandle for an empty session ID.
	ErrEmptySessionID = errors.New("jwt: empty session id")
	// ErrUnknownKeyID is returned when a handle names a key that is not configured.
	ErrUnknownKeyID = errors.New("jwt: unknown kid")
)

// Config controls handle issuance and verification.
//
// For Ed25519, PrivateKey may be omitted on verify-only instances. VerifyKeys,
// when set, selects the verification key by the handle's kid header and
// replaces PublicKey; KeyID must then be one of its entries. Keys are raw
// bytes or PEM.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
}

// HandleClaims are the claims carried by a session handle.
type HandleClaims struct {
	SID string `json:"sid"`
	UID int64  `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies signed session handles. A handle names a
// server-side session and never grants access on its own: deleting the
// session revokes every handle naming it.
//
// Keys are decoded once by NewManager. A Manager is safe for concurrent use.
type Manager struct {
	ttl          time.Duration
	issuer       string
	audience     string
	keyID        string
	maxFutureIAT time.Duration

	method     jwt.SigningMethod
	signKey    any
	defaultKey any
	keysByID   map[string]any
	parser     *jwt.Parser
	now        func() time.Time
}

// NewManager validates cfg, decodes its keys and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("jwt: TTL must be > 0")
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return nil, fmt.Errorf("jwt: leeway must be within [0, %s]", maxLeeway)
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = defaultMaxFutureIAT
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > maxFutureIATLimit {
		return nil, fmt.Errorf("jwt: MaxFutureIAT must be within (0, %s]", maxFutureIATLimit)
	}

	m := &Manager{
		ttl:          cfg.TTL,
		issuer:       cfg.Issuer,
		audience:     cfg.Audience,
		keyID:        strings.TrimSpace(cfg.KeyID),
		maxFutureIAT: cfg.MaxFutureIAT,
		now:          time.Now,
	}

	var decode func([]byte) (any, error)
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("jwt: hs256 requires a private key")
		}
		m.method = jwt.SigningMethodHS256
		m.signKey = cfg.PrivateKey
		m.defaultKey = cfg.PrivateKey
		decode = func(b []byte) (any, error) { return b, nil }
	case MethodEd25519:
		m.method = jwt.SigningMethodEdDSA
		decode = func(b []byte) (any, error) { return parseEdPublicKey(b) }
		if len(cfg.PrivateKey) > 0 {
			key, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			m.signKey = key
		}
		if len(cfg.PublicKey) > 0 {
			key, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			m.defaultKey = key
		}
		if m.defaultKey == nil && len(cfg.VerifyKeys) == 0 {
			return nil, errors.New("jwt: ed25519 requires a public key or verify keys")
		}
	default:
		return nil, fmt.Errorf("jwt: unsupported signing method %q", cfg.SigningMethod)
	}

	if len(cfg.VerifyKeys) > 0 {
		m.keysByID = make(map[string]any, len(cfg.VerifyKeys))
		for kid, raw := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("jwt: verify keys contain an empty kid")
			}
			key, err := decode(raw)
			if err != nil {
				return nil, fmt.Errorf("jwt: verify key %q: %w", kid, err)
			}
			m.keysByID[kid] = key
		}
		if m.keyID != "" {
			if _, ok := m.keysByID[m.keyID]; !ok {
				return nil, fmt.Errorf("jwt: KeyID %q is not among the verify keys", m.keyID)
			}
		}
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{m.method.Alg()})}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.RequireIAT {
		opts = append(opts, jwt.WithIssuedAt())
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	m.parser = jwt.NewParser(opts...)

	return m, nil
}

// TTL returns the configured handle lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// CreateHandle signs a handle for sessionID. userID is informational and may
// be zero for anonymous sessions.
func (m *Manager) CreateHandle(sessionID string, userID int64) (string, error) {
	if sessionID == "" {
		return "", ErrEmptySessionID
	}
	if m.signKey == nil {
		return "", ErrNoSigningKey
	}

	now := m.now()
	claims := HandleClaims{
		SID: sessionID,
		UID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	token := jwt.NewWithClaims(m.method, claims)
	if m.keyID != "" {
		token.Header["kid"] = m.keyID
	}
	return token.SignedString(m.signKey)
}

// ParseHandle verifies token and returns its claims. Handles without a
// session ID or issued too far in the future are rejected.
func (m *Manager) ParseHandle(token string) (*HandleClaims, error) {
	claims := &HandleClaims{}
	parsed, err := m.parser.ParseWithClaims(token, claims, m.verifyKey)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.SID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.IssuedAt != nil && claims.IssuedAt.After(m.now().Add(m.maxFutureIAT)) {
		return nil, fmt.Errorf("%w: iat too far in the future", jwt.ErrTokenUsedBeforeIssued)
	}
	return claims, nil
}

func (m *Manager) verifyKey(t *jwt.Token) (any, error) {
	if t.Method.Alg() != m.method.Alg() {
		return nil, fmt.Errorf("jwt: unexpected signing algorithm %s", t.Method.Alg())
	}
	kid, _ := t.Header["kid"].(string)

	if m.keysByID != nil {
		key, ok := m.keysByID[kid]
		if !ok {
			return nil, ErrUnknownKeyID
		}
		return key, nil
	}
	if m.keyID != "" && kid != m.keyID {
		return nil, ErrUnknownKeyID
	}
	if m.defaultKey == nil {
		return nil, errors.New("jwt: no verification key configured")
	}
	return m.defaultKey, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("jwt: invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwt: private key is not ed25519")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("jwt: invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("jwt: public key is not ed25519")
	}
	return edKey, nil
}
