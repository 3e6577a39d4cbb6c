package identity

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetTokenPrefix = "pwreset:"
	resetTokenTTL    = time.Hour
)

// PostgresProvider is the production Provider backed by the accounts
// table, with password-reset tokens held in Redis.
type PostgresProvider struct {
	pool             *pgxpool.Pool
	rdb              *redis.Client
	bcryptCost       int
	resetLinkBaseURL string
	log              zerolog.Logger
}

// NewPostgresProvider creates a PostgresProvider.
func NewPostgresProvider(pool *pgxpool.Pool, rdb *redis.Client, bcryptCost int, resetLinkBaseURL string, log zerolog.Logger) *PostgresProvider {
	return &PostgresProvider{
		pool:             pool,
		rdb:              rdb,
		bcryptCost:       bcryptCost,
		resetLinkBaseURL: resetLinkBaseURL,
		log:              log.With().Str("component", "identity").Logger(),
	}
}

const accountColumns = `uid, email, disabled, email_verified, custom_claims, created_at, last_sign_in_at`

func scanAccount(row pgx.Row) (*Account, error) {
	a := &Account{}
	err := row.Scan(&a.UID, &a.Email, &a.Disabled, &a.EmailVerified, &a.CustomClaims, &a.CreatedAt, &a.LastSignInAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// CreateAccount inserts a new account. A missing UID is filled with a
// random UUID; a supplied one must be well-formed and free.
func (p *PostgresProvider) CreateAccount(ctx context.Context, params CreateAccountParams) (*Account, error) {
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

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), p.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := p.pool.QueryRow(ctx,
		`INSERT INTO accounts (uid, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING `+accountColumns,
		uid, params.Email, string(hash),
	)
	account, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return nil, ErrEmailExists
			}
			return nil, ErrUIDExists
		}
		return nil, err
	}
	return account, nil
}

// GetAccount retrieves an account by UID.
func (p *PostgresProvider) GetAccount(ctx context.Context, uid string) (*Account, error) {
	return scanAccount(p.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE uid = $1`, uid))
}

// GetAccountByEmail retrieves an account by email.
func (p *PostgresProvider) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return scanAccount(p.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
}

// UpdateAccount applies the supplied field updates and returns the
// refreshed record.
func (p *PostgresProvider) UpdateAccount(ctx context.Context, uid string, params UpdateAccountParams) (*Account, error) {
	if params.Password != nil {
		if *params.Password == "" {
			return nil, ErrMissingPassword
		}
		if len(*params.Password) < 6 {
			return nil, ErrWeakPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), p.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := p.exec(ctx, `UPDATE accounts SET password_hash = $2 WHERE uid = $1`, uid, string(hash)); err != nil {
			return nil, err
		}
	}
	if params.Disabled != nil {
		if err := p.exec(ctx, `UPDATE accounts SET disabled = $2 WHERE uid = $1`, uid, *params.Disabled); err != nil {
			return nil, err
		}
	}
	if params.EmailVerified != nil {
		if err := p.exec(ctx, `UPDATE accounts SET email_verified = $2 WHERE uid = $1`, uid, *params.EmailVerified); err != nil {
			return nil, err
		}
	}
	return p.GetAccount(ctx, uid)
}

// SetCustomClaims replaces the account's full claims object.
func (p *PostgresProvider) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	if claims == nil {
		claims = map[string]interface{}{}
	}
	return p.exec(ctx, `UPDATE accounts SET custom_claims = $2 WHERE uid = $1`, uid, claims)
}

// DeleteAccount removes the account. The associated student document, if
// any, is left in place.
func (p *PostgresProvider) DeleteAccount(ctx context.Context, uid string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM accounts WHERE uid = $1`, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAccountsPage returns one keyset page of accounts ordered by UID.
// The page token is opaque to callers.
func (p *PostgresProvider) ListAccountsPage(ctx context.Context, pageSize int, pageToken string) (*AccountPage, error) {
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

	// Fetch one extra row to know whether another page exists.
	rows, err := p.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE uid > $1 ORDER BY uid LIMIT $2`,
		afterUID, pageSize+1,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]Account, 0, pageSize)
	for rows.Next() {
		a := Account{}
		if err := rows.Scan(&a.UID, &a.Email, &a.Disabled, &a.EmailVerified, &a.CustomClaims, &a.CreatedAt, &a.LastSignInAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := &AccountPage{Accounts: accounts}
	if len(accounts) > pageSize {
		page.Accounts = accounts[:pageSize]
		last := page.Accounts[len(page.Accounts)-1]
		page.NextPageToken = base64.URLEncoding.EncodeToString([]byte(last.UID))
	}
	return page, nil
}

// GeneratePasswordResetLink mints a single-use reset token for the
// account and returns the dashboard link carrying it.
func (p *PostgresProvider) GeneratePasswordResetLink(ctx context.Context, email string) (string, error) {
	account, err := p.GetAccountByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token := uuid.New().String()
	if err := p.rdb.Set(ctx, resetTokenPrefix+token, account.UID, resetTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	p.log.Info().Str("uid", account.UID).Msg("Password reset link generated")
	return p.resetLinkBaseURL + "?token=" + token, nil
}

// VerifyPassword checks email/password credentials and returns the
// matching account.
func (p *PostgresProvider) VerifyPassword(ctx context.Context, email, password string) (*Account, error) {
	var hash string
	a := &Account{}
	err := p.pool.QueryRow(ctx,
		`SELECT `+accountColumns+`, password_hash FROM accounts WHERE email = $1`, email,
	).Scan(&a.UID, &a.Email, &a.Disabled, &a.EmailVerified, &a.CustomClaims, &a.CreatedAt, &a.LastSignInAt, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if a.Disabled {
		return nil, ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// RecordSignIn stamps the account's last sign-in time.
func (p *PostgresProvider) RecordSignIn(ctx context.Context, uid string) error {
	return p.exec(ctx, `UPDATE accounts SET last_sign_in_at = NOW() WHERE uid = $1`, uid)
}

func (p *PostgresProvider) exec(ctx context.Context, sql string, args ...interface{}) error {
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
