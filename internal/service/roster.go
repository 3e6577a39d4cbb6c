package service

import (
	"strings"
	"time"

	"github.com/3stan1104/GeneFlow/internal/docstore"
	"github.com/3stan1104/GeneFlow/internal/identity"
	"github.com/3stan1104/GeneFlow/internal/model"
)

// BuildRoster joins the full account list with the student collection to
// produce one display row per account. Students take their lastLogin
// from the gameplay document's lastPlayedAt; everyone else from the
// account's own last sign-in time.
func BuildRoster(accounts []identity.Account, studentDocs []docstore.Document) []model.RosterRow {
	lastPlayed := lastPlayedIndex(studentDocs)

	rows := make([]model.RosterRow, 0, len(accounts))
	for i := range accounts {
		account := &accounts[i]
		role := account.Role()

		row := model.RosterRow{
			UID:           account.UID,
			Email:         account.Email,
			EmailVerified: account.EmailVerified,
			Disabled:      account.Disabled,
			Status:        statusLabel(account.Disabled),
			CreatedAt:     timePtr(account.CreatedAt),
			FirstName:     claimPtr(account.CustomClaims, model.ClaimFirstName),
			MiddleName:    claimPtr(account.CustomClaims, model.ClaimMiddleName),
			LastName:      claimPtr(account.CustomClaims, model.ClaimLastName),
			Section:       claimPtr(account.CustomClaims, model.ClaimSection),
			Curriculum:    claimPtr(account.CustomClaims, model.ClaimCurriculum),
			Role:          claimPtr(account.CustomClaims, model.ClaimRole),
		}

		if role == model.RoleStudent {
			if at, ok := lastPlayed[account.UID]; ok {
				row.LastLogin = &at
			}
		} else if account.LastSignInAt != nil {
			row.LastLogin = timePtr(*account.LastSignInAt)
		}

		rows = append(rows, row)
	}
	return rows
}

// BuildSummaries produces the legacy users-grid rows: one display name,
// a "member" role fallback, and lastLogin always from the account's own
// sign-in time.
func BuildSummaries(accounts []identity.Account) []model.UserSummary {
	rows := make([]model.UserSummary, 0, len(accounts))
	for i := range accounts {
		account := &accounts[i]

		name := strings.TrimSpace(strings.Join(nonEmpty(
			identity.ClaimString(account.CustomClaims, model.ClaimFirstName),
			identity.ClaimString(account.CustomClaims, model.ClaimLastName),
		), " "))
		if name == "" {
			name = "Unnamed User"
		}

		role := account.Role()
		if role == "" {
			role = model.RoleMember
		}

		row := model.UserSummary{
			UID:    account.UID,
			Name:   name,
			Email:  account.Email,
			Role:   role,
			Status: statusLabel(account.Disabled),
		}
		if account.LastSignInAt != nil {
			row.LastLogin = timePtr(*account.LastSignInAt)
		}
		rows = append(rows, row)
	}
	return rows
}

// lastPlayedIndex maps student ids to their lastPlayedAt timestamp
// string. Each document is indexed under both its storage key and its
// embedded id field when the two differ — historical documents stored
// ids inconsistently.
func lastPlayedIndex(docs []docstore.Document) map[string]string {
	index := make(map[string]string, len(docs))
	for _, doc := range docs {
		at, ok := timestampString(doc.Data["lastPlayedAt"])
		if !ok {
			continue
		}
		index[doc.Key] = at
		if embedded, ok := doc.Data["id"].(string); ok && embedded != "" && embedded != doc.Key {
			index[embedded] = at
		}
	}
	return index
}

// timestampString normalizes the store's native timestamp
// representations to RFC3339.
func timestampString(v interface{}) (string, bool) {
	switch typed := v.(type) {
	case time.Time:
		return typed.UTC().Format(time.RFC3339), true
	case string:
		if typed == "" {
			return "", false
		}
		if at, err := time.Parse(time.RFC3339, typed); err == nil {
			return at.UTC().Format(time.RFC3339), true
		}
		return "", false
	case float64:
		// Unix milliseconds, the shape older documents carried.
		return time.UnixMilli(int64(typed)).UTC().Format(time.RFC3339), true
	case int64:
		return time.UnixMilli(typed).UTC().Format(time.RFC3339), true
	default:
		return "", false
	}
}

func statusLabel(disabled bool) string {
	if disabled {
		return "disabled"
	}
	return "active"
}

func timePtr(t time.Time) *string {
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// claimPtr returns a pointer to a non-empty string claim, or nil for
// absent, null, or empty claims.
func claimPtr(claims map[string]interface{}, key string) *string {
	if v := identity.ClaimString(claims, key); v != "" {
		return &v
	}
	return nil
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
