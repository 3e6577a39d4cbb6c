package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/3stan1104/GeneFlow/internal/docstore"
	"github.com/3stan1104/GeneFlow/internal/identity"
	"github.com/3stan1104/GeneFlow/internal/model"
)

// Service-level errors mapped to HTTP statuses by the handlers.
var (
	ErrUIDTaken         = errors.New("uid already in use")
	ErrLastAdmin        = errors.New("cannot delete the last admin account")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

const (
	// listPageSize is the page size used when draining the full account
	// listing. The roster always materializes the complete set.
	listPageSize = 1000

	rosterCacheKey    = "cache:roster"
	summariesCacheKey = "cache:users"
	cacheTTL          = 60 * time.Second
)

// UserService implements the account mutation operations: create,
// update, delete, and the roster listings. It coordinates the identity
// provider and the document store but holds no state of its own; every
// operation is a single request/response unit with no client-side
// locking.
type UserService struct {
	auth  identity.Provider
	store docstore.Store
	rdb   *redis.Client
	log   zerolog.Logger
}

// NewUserService creates a UserService. rdb may be nil, which disables
// the roster cache.
func NewUserService(auth identity.Provider, store docstore.Store, rdb *redis.Client, log zerolog.Logger) *UserService {
	return &UserService{
		auth:  auth,
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "user_service").Logger(),
	}
}

// Create provisions a new account plus claims, and a student document
// when the role is student. On a duplicate email it returns the existing
// account's UID with a nil user (idempotent create). Claim and document
// failures are non-fatal: the account exists, and both steps can be
// retried by a later update.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, string, error) {
	if req.UID != "" {
		_, err := s.auth.GetAccount(ctx, req.UID)
		switch {
		case err == nil:
			return nil, "", ErrUIDTaken
		case !errors.Is(err, identity.ErrNotFound):
			return nil, "", fmt.Errorf("check uid: %w", err)
		}
	}

	account, err := s.auth.CreateAccount(ctx, identity.CreateAccountParams{
		UID:      req.UID,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			existing, lookupErr := s.auth.GetAccountByEmail(ctx, req.Email)
			if lookupErr != nil {
				return nil, "", fmt.Errorf("fetch existing account: %w", lookupErr)
			}
			return nil, existing.UID, nil
		}
		return nil, "", err
	}

	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}
	curriculum := req.Curriculum
	if curriculum == "" && req.Section != "" {
		curriculum = model.CurriculumForSection(req.Section)
	}

	claims := map[string]interface{}{model.ClaimRole: role}
	copyClaim(claims, model.ClaimFirstName, req.FirstName)
	copyClaim(claims, model.ClaimMiddleName, req.MiddleName)
	copyClaim(claims, model.ClaimLastName, req.LastName)
	copyClaim(claims, model.ClaimSection, req.Section)
	copyClaim(claims, model.ClaimCurriculum, curriculum)

	if err := s.auth.SetCustomClaims(ctx, account.UID, claims); err != nil {
		s.log.Warn().Err(err).Str("uid", account.UID).Msg("Failed to set custom claims")
	}

	if role == model.RoleStudent {
		fields := model.DefaultStudentFields(account.UID, req.FirstName, req.MiddleName, req.LastName, req.Section, curriculum)
		if err := s.store.Set(ctx, model.CollectionStudents, account.UID, fields); err != nil {
			s.log.Warn().Err(err).Str("uid", account.UID).Msg("Failed to create student document")
		}
	}

	s.invalidateCache(ctx)

	// Claims are not on the create response; re-fetch the authoritative
	// record.
	refreshed, err := s.auth.GetAccount(ctx, account.UID)
	if err != nil {
		return nil, "", fmt.Errorf("fetch created account: %w", err)
	}
	return flattenUser(refreshed), "", nil
}

// Update applies a password change, a claims merge, and a student
// document patch for one account. The password step runs first and is
// fatal on failure. Claim fields explicitly set to empty are written as
// nulls; omitted fields stay untouched.
func (s *UserService) Update(ctx context.Context, req model.UpdateUserRequest) (*model.User, error) {
	if req.Password != "" {
		if len(req.Password) < 6 {
			return nil, ErrPasswordTooShort
		}
		if _, err := s.auth.UpdateAccount(ctx, req.UID, identity.UpdateAccountParams{Password: &req.Password}); err != nil {
			return nil, fmt.Errorf("update password: %w", err)
		}
	}

	account, err := s.auth.GetAccount(ctx, req.UID)
	if err != nil {
		return nil, err
	}

	claims := map[string]interface{}{}
	for k, v := range account.CustomClaims {
		claims[k] = v
	}
	mergeClaim(claims, model.ClaimFirstName, req.FirstName)
	mergeClaim(claims, model.ClaimMiddleName, req.MiddleName)
	mergeClaim(claims, model.ClaimLastName, req.LastName)
	mergeClaim(claims, model.ClaimSection, req.Section)
	mergeClaim(claims, model.ClaimCurriculum, req.Curriculum)
	mergeClaim(claims, model.ClaimRole, req.Role)

	if err := s.auth.SetCustomClaims(ctx, req.UID, claims); err != nil {
		return nil, fmt.Errorf("update claims: %w", err)
	}

	s.patchStudentDocument(ctx, req)
	s.invalidateCache(ctx)

	refreshed, err := s.auth.GetAccount(ctx, req.UID)
	if err != nil {
		return nil, fmt.Errorf("fetch updated account: %w", err)
	}
	return flattenUser(refreshed), nil
}

// patchStudentDocument mirrors supplied name/section/curriculum fields
// into an existing student document. Best-effort: the claims are already
// updated, so failures here are logged and swallowed.
func (s *UserService) patchStudentDocument(ctx context.Context, req model.UpdateUserRequest) {
	_, err := s.store.Get(ctx, model.CollectionStudents, req.UID)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			s.log.Warn().Err(err).Str("uid", req.UID).Msg("Failed to read student document")
		}
		return
	}

	fields := map[string]interface{}{}
	putPath(fields, "name.first", req.FirstName)
	putPath(fields, "name.middle", req.MiddleName)
	putPath(fields, "name.last", req.LastName)
	putPath(fields, "section", req.Section)
	putPath(fields, "curriculum", req.Curriculum)

	if len(fields) == 0 {
		return
	}
	if err := s.store.Update(ctx, model.CollectionStudents, req.UID, fields); err != nil {
		s.log.Warn().Err(err).Str("uid", req.UID).Msg("Failed to patch student document")
	}
}

// Delete removes an account. Deleting an admin requires at least one
// other admin to remain; the count is a best-effort read over the full
// listing, not a transaction. The student document is left orphaned.
func (s *UserService) Delete(ctx context.Context, uid string) error {
	account, err := s.auth.GetAccount(ctx, uid)
	if err != nil {
		return err
	}

	if account.Role() == model.RoleAdmin {
		count, err := s.countAdmins(ctx)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if count <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.auth.DeleteAccount(ctx, uid); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// countAdmins walks the paginated account listing, short-circuiting as
// soon as a second admin is seen.
func (s *UserService) countAdmins(ctx context.Context) (int, error) {
	count := 0
	pageToken := ""
	for {
		page, err := s.auth.ListAccountsPage(ctx, listPageSize, pageToken)
		if err != nil {
			return 0, err
		}
		for i := range page.Accounts {
			if page.Accounts[i].Role() == model.RoleAdmin {
				count++
				if count > 1 {
					return count, nil
				}
			}
		}
		if page.NextPageToken == "" {
			return count, nil
		}
		pageToken = page.NextPageToken
	}
}

// Roster returns the full joined roster, served from the 60s cache when
// possible.
func (s *UserService) Roster(ctx context.Context) ([]model.RosterRow, error) {
	var cached []model.RosterRow
	if s.cacheGet(ctx, rosterCacheKey, &cached) {
		return cached, nil
	}

	accounts, err := s.drainAccounts(ctx)
	if err != nil {
		return nil, err
	}
	studentDocs, err := s.store.Query(ctx, model.CollectionStudents)
	if err != nil {
		return nil, err
	}

	rows := BuildRoster(accounts, studentDocs)
	s.cacheSet(ctx, rosterCacheKey, rows)
	return rows, nil
}

// Summaries returns the legacy users-grid listing.
func (s *UserService) Summaries(ctx context.Context) ([]model.UserSummary, error) {
	var cached []model.UserSummary
	if s.cacheGet(ctx, summariesCacheKey, &cached) {
		return cached, nil
	}

	accounts, err := s.drainAccounts(ctx)
	if err != nil {
		return nil, err
	}

	rows := BuildSummaries(accounts)
	s.cacheSet(ctx, summariesCacheKey, rows)
	return rows, nil
}

// drainAccounts exhausts the paginated listing into one in-memory slice.
// Acceptable while account counts stay in the low thousands; no partial
// results are ever exposed.
func (s *UserService) drainAccounts(ctx context.Context) ([]identity.Account, error) {
	var accounts []identity.Account
	pageToken := ""
	for {
		page, err := s.auth.ListAccountsPage(ctx, listPageSize, pageToken)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, page.Accounts...)
		if page.NextPageToken == "" {
			return accounts, nil
		}
		pageToken = page.NextPageToken
	}
}

// EnsureAdmin creates the bootstrap admin account, or repairs the admin
// claim on an existing one. Returns the UID and whether a new account
// was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, displayName string) (string, bool, error) {
	account, err := s.auth.CreateAccount(ctx, identity.CreateAccountParams{Email: email, Password: password})
	if err != nil {
		if !errors.Is(err, identity.ErrEmailExists) {
			return "", false, err
		}
		existing, lookupErr := s.auth.GetAccountByEmail(ctx, email)
		if lookupErr != nil {
			return "", false, fmt.Errorf("fetch existing admin: %w", lookupErr)
		}
		if claimErr := s.setAdminClaims(ctx, existing, displayName); claimErr != nil {
			s.log.Warn().Err(claimErr).Str("uid", existing.UID).Msg("Failed to set admin claim on existing user")
		}
		s.invalidateCache(ctx)
		return existing.UID, false, nil
	}

	if claimErr := s.setAdminClaims(ctx, account, displayName); claimErr != nil {
		s.log.Warn().Err(claimErr).Str("uid", account.UID).Msg("Failed to set admin claim")
	}
	s.invalidateCache(ctx)
	return account.UID, true, nil
}

func (s *UserService) setAdminClaims(ctx context.Context, account *identity.Account, displayName string) error {
	claims := map[string]interface{}{}
	for k, v := range account.CustomClaims {
		claims[k] = v
	}
	claims[model.ClaimRole] = model.RoleAdmin
	if displayName != "" {
		claims[model.ClaimFirstName] = displayName
	}
	return s.auth.SetCustomClaims(ctx, account.UID, claims)
}

// ResetPassword generates a password-reset link for the account.
func (s *UserService) ResetPassword(ctx context.Context, email string) (string, error) {
	return s.auth.GeneratePasswordResetLink(ctx, email)
}

// IssueToken verifies credentials against the identity provider, stamps
// the sign-in time, and mints a bearer token.
func (s *UserService) IssueToken(ctx context.Context, tokens *AuthService, email, password string) (string, *identity.Account, error) {
	account, err := s.auth.VerifyPassword(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	if err := s.auth.RecordSignIn(ctx, account.UID); err != nil {
		s.log.Warn().Err(err).Str("uid", account.UID).Msg("Failed to record sign-in time")
	}
	token, err := tokens.GenerateToken(account.UID, account.Role())
	if err != nil {
		return "", nil, err
	}
	s.invalidateCache(ctx)
	return token, account, nil
}

// LegacyLogin matches plaintext credentials against the legacy users
// collection documents.
func (s *UserService) LegacyLogin(ctx context.Context, email, password string) (bool, error) {
	docs, err := s.store.Query(ctx, model.CollectionUsers,
		docstore.Filter{Path: "email", Value: email},
		docstore.Filter{Path: "password", Value: password},
	)
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

// StudentProgress returns the raw student collection for the legacy
// progress table.
func (s *UserService) StudentProgress(ctx context.Context) ([]docstore.Document, error) {
	return s.store.Query(ctx, model.CollectionStudents)
}

func (s *UserService) cacheGet(ctx context.Context, key string, dst interface{}) bool {
	if s.rdb == nil {
		return false
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (s *UserService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

func (s *UserService) invalidateCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, rosterCacheKey, summariesCacheKey).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Cache invalidation failed")
	}
}

// copyClaim copies a supplied (non-empty) create field into the claims
// object; omitted fields are left out entirely, not nulled.
func copyClaim(claims map[string]interface{}, key, value string) {
	if value != "" {
		claims[key] = value
	}
}

// mergeClaim applies update semantics: nil means untouched, empty means
// an intentional clear written as null, anything else replaces.
func mergeClaim(claims map[string]interface{}, key string, value *string) {
	if value == nil {
		return
	}
	if *value == "" {
		claims[key] = nil
		return
	}
	claims[key] = *value
}

// putPath stages a supplied update field under a document dot-path.
func putPath(fields map[string]interface{}, path string, value *string) {
	if value != nil {
		fields[path] = *value
	}
}

// flattenUser hoists the profile claims onto the flat user shape the
// mutation endpoints return.
func flattenUser(account *identity.Account) *model.User {
	return &model.User{
		UID:        account.UID,
		Email:      account.Email,
		FirstName:  claimPtr(account.CustomClaims, model.ClaimFirstName),
		MiddleName: claimPtr(account.CustomClaims, model.ClaimMiddleName),
		LastName:   claimPtr(account.CustomClaims, model.ClaimLastName),
		Section:    claimPtr(account.CustomClaims, model.ClaimSection),
		Curriculum: claimPtr(account.CustomClaims, model.ClaimCurriculum),
		Role:       claimPtr(account.CustomClaims, model.ClaimRole),
	}
}
