package identity

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MemoryProvider is an in-memory Provider used by tests and local
// development. It mirrors PostgresProvider semantics, including opaque
// keyset page tokens.
type MemoryProvider struct {
	mu       sync.RWMutex
	accounts map[string]*memoryAccount
	// ResetLinkBaseURL defaults to a localhost dashboard URL.
	ResetLinkBaseURL string
}

type memoryAccount struct {
	account      Account
	passwordHash string
}

// NewMemoryProvider creates an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		accounts:         make(map[string]*memoryAccount),
		ResetLinkBaseURL: "http://localhost:5173/reset-password",
	}
}

// Seed inserts an account directly, bypassing validation. Test helper.
func (m *MemoryProvider) Seed(a Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.accounts[a.UID] = &memoryAccount{account: a}
}

func (m *MemoryProvider) CreateAccount(ctx context.Context, params CreateAccountParams) (*Account, error) {
	if params.Password == "" {
		return nil, ErrMissingPassword
	}
	if len(params.Password) < 6 {
		return nil, ErrWeakPassword
	}

	uid := params.UID
	if uid == "" {
		uid = uuid.New().String()
	} else if len(uid) > 128 || strings.ContainsAny(uid, " \t\n") {
		return nil, ErrInvalidUID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[uid]; ok {
		return nil, ErrUIDExists
	}
	for _, rec := range m.accounts {
		if rec.account.Email == params.Email {
			return nil, ErrEmailExists
		}
	}

	rec := &memoryAccount{
		account: Account{
			UID:          uid,
			Email:        params.Email,
			CreatedAt:    time.Now().UTC(),
			CustomClaims: map[string]interface{}{},
		},
		passwordHash: string(hash),
	}
	m.accounts[uid] = rec
	out := cloneAccount(rec.account)
	return &out, nil
}

func (m *MemoryProvider) GetAccount(ctx context.Context, uid string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.accounts[uid]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneAccount(rec.account)
	return &out, nil
}

func (m *MemoryProvider) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.accounts {
		if rec.account.Email == email {
			out := cloneAccount(rec.account)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryProvider) UpdateAccount(ctx context.Context, uid string, params UpdateAccountParams) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.accounts[uid]
	if !ok {
		return nil, ErrNotFound
	}
	if params.Password != nil {
		if *params.Password == "" {
			return nil, ErrMissingPassword
		}
		if len(*params.Password) < 6 {
			return nil, ErrWeakPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), bcrypt.MinCost)
		if err != nil {
			return nil, err
		}
		rec.passwordHash = string(hash)
	}
	if params.Disabled != nil {
		rec.account.Disabled = *params.Disabled
	}
	if params.EmailVerified != nil {
		rec.account.EmailVerified = *params.EmailVerified
	}
	out := cloneAccount(rec.account)
	return &out, nil
}

func (m *MemoryProvider) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.accounts[uid]
	if !ok {
		return ErrNotFound
	}
	if claims == nil {
		claims = map[string]interface{}{}
	}
	rec.account.CustomClaims = cloneClaims(claims)
	return nil
}

func (m *MemoryProvider) DeleteAccount(ctx context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[uid]; !ok {
		return ErrNotFound
	}
	delete(m.accounts, uid)
	return nil
}

func (m *MemoryProvider) ListAccountsPage(ctx context.Context, pageSize int, pageToken string) (*AccountPage, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	afterUID := ""
	if pageToken != "" {
		raw, err := base64.URLEncoding.DecodeString(pageToken)
		if err != nil {
			return nil, fmt.Errorf("invalid page token: %w", err)
		}
		afterUID = string(raw)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	uids := make([]string, 0, len(m.accounts))
	for uid := range m.accounts {
		if uid > afterUID {
			uids = append(uids, uid)
		}
	}
	sort.Strings(uids)

	page := &AccountPage{}
	for i, uid := range uids {
		if i == pageSize {
			page.NextPageToken = base64.URLEncoding.EncodeToString([]byte(uids[i-1]))
			break
		}
		page.Accounts = append(page.Accounts, cloneAccount(m.accounts[uid].account))
	}
	return page, nil
}

func (m *MemoryProvider) GeneratePasswordResetLink(ctx context.Context, email string) (string, error) {
	if _, err := m.GetAccountByEmail(ctx, email); err != nil {
		return "", err
	}
	return m.ResetLinkBaseURL + "?token=" + uuid.New().String(), nil
}

func (m *MemoryProvider) VerifyPassword(ctx context.Context, email, password string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.accounts {
		if rec.account.Email != email {
			continue
		}
		if rec.account.Disabled {
			return nil, ErrAccountDisabled
		}
		if bcrypt.CompareHashAndPassword([]byte(rec.passwordHash), []byte(password)) != nil {
			return nil, ErrInvalidCredentials
		}
		out := cloneAccount(rec.account)
		return &out, nil
	}
	return nil, ErrInvalidCredentials
}

func (m *MemoryProvider) RecordSignIn(ctx context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.accounts[uid]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	rec.account.LastSignInAt = &now
	return nil
}

func cloneAccount(a Account) Account {
	out := a
	out.CustomClaims = cloneClaims(a.CustomClaims)
	if a.LastSignInAt != nil {
		t := *a.LastSignInAt
		out.LastSignInAt = &t
	}
	return out
}

func cloneClaims(claims map[string]interface{}) map[string]interface{} {
	if claims == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out
}
