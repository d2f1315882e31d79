package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/MrEthical07/goAccount/internal"
)

// Scheme names the digest applied to salt||password.
type Scheme string

const (
	// SchemeSHA256 is hex(sha256(salt || password)).
	SchemeSHA256 Scheme = "sha256"
	// SchemeArgon2id is hex(argon2id(password, salt)) with the configured cost.
	SchemeArgon2id Scheme = "argon2id"
)

// DefaultSaltLength is the raw salt size in bytes; salts are stored hex encoded.
const DefaultSaltLength = 32

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minKeyLength   uint32 = 16
	minSaltLength         = 16
)

// Argon2Params holds argon2id cost parameters.
type Argon2Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	KeyLength   uint32
}

// Config selects the scheme and encoding. Random defaults to crypto/rand.
type Config struct {
	Scheme     Scheme
	Encoding   Encoding
	SaltLength int
	Argon2     Argon2Params
	Random     io.Reader
}

// Hasher computes and verifies salted password digests. It holds no
// per-call state and is safe for concurrent use.
type Hasher struct {
	scheme     Scheme
	saltLength int
	argon2     Argon2Params
	random     io.Reader
	encode     encodeFunc
}

// New validates cfg and returns a Hasher. An unknown scheme or encoding is a
// configuration error.
func New(cfg Config) (*Hasher, error) {
	if cfg.Scheme == "" {
		cfg.Scheme = SchemeSHA256
	}
	if cfg.SaltLength == 0 {
		cfg.SaltLength = DefaultSaltLength
	}
	if cfg.SaltLength < minSaltLength {
		return nil, errors.New("password salt length must be >= 16")
	}
	if cfg.Random == nil {
		cfg.Random = rand.Reader
	}

	encode, err := encoderFor(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	switch cfg.Scheme {
	case SchemeSHA256:
	case SchemeArgon2id:
		if err := validateArgon2(cfg.Argon2); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported password scheme")
	}

	return &Hasher{
		scheme:     cfg.Scheme,
		saltLength: cfg.SaltLength,
		argon2:     cfg.Argon2,
		random:     cfg.Random,
		encode:     encode,
	}, nil
}

// NewSalt draws SaltLength random bytes and returns them as lowercase hex.
func (h *Hasher) NewSalt() (string, error) {
	return internal.RandomHex(h.random, h.saltLength)
}

// Hash returns the lowercase hex digest of salt followed by password. The
// salt is digested as text, exactly as stored.
func (h *Hasher) Hash(password, salt string) (string, error) {
	saltBytes, err := h.encode(salt)
	if err != nil {
		return "", err
	}
	passBytes, err := h.encode(password)
	if err != nil {
		return "", err
	}

	switch h.scheme {
	case SchemeArgon2id:
		key := argon2.IDKey(passBytes, saltBytes, h.argon2.Time, h.argon2.Memory, h.argon2.Parallelism, h.argon2.KeyLength)
		return hex.EncodeToString(key), nil
	default:
		d := sha256.New()
		d.Write(saltBytes)
		d.Write(passBytes)
		return hex.EncodeToString(d.Sum(nil)), nil
	}
}

// Verify reports whether password hashed with salt equals hash. Hex case is ignored.
func (h *Hasher) Verify(password, hash, salt string) bool {
	if hash == "" {
		return false
	}
	computed, err := h.Hash(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(hash))) == 1
}

// Scheme reports the configured digest scheme.
func (h *Hasher) Scheme() Scheme {
	return h.scheme
}

func validateArgon2(p Argon2Params) error {
	if p.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if p.Time < minTimeCost {
		return errors.New("password time must be >= 1")
	}
	if p.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if p.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}
	return nil
}
