package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the access-token signature algorithm.
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

// refreshValueBytes is the entropy of an opaque refresh token value.
const refreshValueBytes = 32

// Config carries everything the manager needs to mint and verify tokens.
type Config struct {
	AccessTTL       time.Duration
	RefreshLifetime time.Duration
	SigningMethod   SigningMethod
	SigningKey      []byte // hs256 secret, or ed25519 private key (raw or PEM)
	VerifyKey       []byte // ed25519 public key; hs256 verifies with SigningKey
	Issuer          string
	Audience        string
	Leeway          time.Duration
}

// Manager mints short-lived signed access tokens and opaque refresh token
// values. It holds no per-account state and is safe for concurrent use.
type Manager struct {
	config Config
}

// AccessClaims is the payload of an access token. Subject carries the
// account ID; ID carries a per-token UUID.
type AccessClaims struct {
	Username string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Refresh is a freshly minted opaque refresh token. Value is the only copy
// of the secret; stores keep a digest, never the value itself.
type Refresh struct {
	ID      uuid.UUID
	Value   string
	Expires time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid access TTL configuration")
	}
	if cfg.RefreshLifetime <= 0 {
		return nil, errors.New("invalid refresh lifetime configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.SigningKey) == 0 {
			return nil, errors.New("hs256 requires signing key")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.SigningKey); err != nil {
			return nil, err
		}
		if len(cfg.VerifyKey) > 0 {
			if _, err := parseEdPublicKey(cfg.VerifyKey); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Manager{config: cfg}, nil
}

// MintAccess signs an access token for the account. The token is self
// contained; nothing is written to any store.
func (m *Manager) MintAccess(accountID, username, email string, roles []string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Username: username,
		Email:    email,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token := jwt.NewWithClaims(m.getMethod(), claims)

	signKey, err := m.getSignKey()
	if err != nil {
		return "", err
	}
	return token.SignedString(signKey)
}

// ParseAccess verifies signature and registered claims and returns the
// payload. Expired, malformed, or wrong-algorithm tokens all fail.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.getMethod().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.getMethod().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.getVerifyKey()
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// MintRefresh draws a fresh opaque token from the CSPRNG. The value never
// repeats and carries no structure a caller could decode.
func (m *Manager) MintRefresh() (Refresh, error) {
	buf := make([]byte, refreshValueBytes)
	if _, err := rand.Read(buf); err != nil {
		return Refresh{}, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return Refresh{}, err
	}
	return Refresh{
		ID:      id,
		Value:   base64.RawURLEncoding.EncodeToString(buf),
		Expires: time.Now().Add(m.config.RefreshLifetime).UTC(),
	}, nil
}

func (m *Manager) getMethod() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (m *Manager) getSignKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return m.config.SigningKey, nil
	default:
		return parseEdPrivateKey(m.config.SigningKey)
	}
}

func (m *Manager) getVerifyKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return m.config.SigningKey, nil
	default:
		if len(m.config.VerifyKey) > 0 {
			return parseEdPublicKey(m.config.VerifyKey)
		}
		priv, err := parseEdPrivateKey(m.config.SigningKey)
		if err != nil {
			return nil, err
		}
		return priv.Public(), nil
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
