package directory

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dverkh/authcore"
	"github.com/dverkh/authcore/password"
)

const proofBytes = 32

// Memory is an in-process [authcore.Directory] backed by maps. It hashes
// passwords with argon2id and keeps proof tokens as hashed, single-use,
// purpose-bound records. Intended for tests, examples, and small deployments;
// production systems adapt their own user store to the interface.
type Memory struct {
	mu     sync.RWMutex
	byID   map[string]*record
	byMail map[string]string
	proofs map[proofKey]proofRecord
	hasher *password.Argon2
}

type record struct {
	account      authcore.Account
	passwordHash string
	roles        []string
}

type proofKey struct {
	accountID string
	purpose   authcore.ProofPurpose
}

type proofRecord struct {
	digest  [sha256.Size]byte
	expires time.Time
}

// NewMemory creates an empty directory.
func NewMemory() (*Memory, error) {
	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &Memory{
		byID:   make(map[string]*record),
		byMail: make(map[string]string),
		proofs: make(map[proofKey]proofRecord),
		hasher: hasher,
	}, nil
}

func (m *Memory) Create(ctx context.Context, input authcore.CreateAccountInput) (*authcore.Account, error) {
	hash, err := m.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byMail[input.Email]; exists {
		return nil, authcore.ErrDuplicateEmail
	}

	rec := &record{
		account: authcore.Account{
			ID:       uuid.NewString(),
			Username: input.Username,
			Email:    input.Email,
		},
		passwordHash: hash,
		roles:        append([]string(nil), input.Roles...),
	}
	m.byID[rec.account.ID] = rec
	m.byMail[input.Email] = rec.account.ID

	out := rec.account
	return &out, nil
}

func (m *Memory) FindByEmail(ctx context.Context, normalizedEmail string) (*authcore.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byMail[normalizedEmail]
	if !ok {
		return nil, authcore.ErrAccountNotFound
	}
	out := m.byID[id].account
	return &out, nil
}

func (m *Memory) FindByID(ctx context.Context, accountID string) (*authcore.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[accountID]
	if !ok {
		return nil, authcore.ErrAccountNotFound
	}
	out := rec.account
	return &out, nil
}

func (m *Memory) VerifyPassword(ctx context.Context, accountID, pass string) (bool, error) {
	m.mu.RLock()
	rec, ok := m.byID[accountID]
	if !ok {
		m.mu.RUnlock()
		return false, authcore.ErrAccountNotFound
	}
	hash := rec.passwordHash
	m.mu.RUnlock()

	// Hashing runs outside the lock; argon2 is deliberately slow.
	return m.hasher.Verify(pass, hash)
}

func (m *Memory) GetRoles(ctx context.Context, accountID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[accountID]
	if !ok {
		return nil, authcore.ErrAccountNotFound
	}
	return append([]string(nil), rec.roles...), nil
}

func (m *Memory) SaveLockout(ctx context.Context, accountID string, failedCount int, lockoutEnd *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[accountID]
	if !ok {
		return authcore.ErrAccountNotFound
	}
	rec.account.FailedAccessCount = failedCount
	if lockoutEnd == nil {
		rec.account.LockoutEnd = nil
	} else {
		end := *lockoutEnd
		rec.account.LockoutEnd = &end
	}
	return nil
}

func (m *Memory) SetEmailConfirmed(ctx context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[accountID]
	if !ok {
		return authcore.ErrAccountNotFound
	}
	rec.account.EmailConfirmed = true
	return nil
}

func (m *Memory) SetPassword(ctx context.Context, accountID, newPassword string) error {
	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[accountID]
	if !ok {
		return authcore.ErrAccountNotFound
	}
	rec.passwordHash = hash
	return nil
}

// GenerateProof mints a fresh proof value and stores only its digest.
// Generating a second proof for the same account and purpose replaces the
// first, so the latest issued link is the one that works.
func (m *Memory) GenerateProof(ctx context.Context, accountID string, purpose authcore.ProofPurpose, ttl time.Duration) (string, error) {
	buf := make([]byte, proofBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	value := base64.RawURLEncoding.EncodeToString(buf)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[accountID]; !ok {
		return "", authcore.ErrAccountNotFound
	}
	m.proofs[proofKey{accountID, purpose}] = proofRecord{
		digest:  sha256.Sum256([]byte(value)),
		expires: time.Now().Add(ttl),
	}
	return value, nil
}

// RedeemProof consumes a proof. A successful redemption deletes the record,
// so presenting the same value again fails.
func (m *Memory) RedeemProof(ctx context.Context, accountID, proof string, purpose authcore.ProofPurpose) (bool, error) {
	digest := sha256.Sum256([]byte(proof))

	m.mu.Lock()
	defer m.mu.Unlock()

	key := proofKey{accountID, purpose}
	rec, ok := m.proofs[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(rec.expires) {
		delete(m.proofs, key)
		return false, nil
	}
	if subtle.ConstantTimeCompare(rec.digest[:], digest[:]) != 1 {
		return false, nil
	}

	delete(m.proofs, key)
	return true, nil
}
