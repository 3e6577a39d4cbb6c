package model

// Role values carried in account custom claims.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
	// RoleMember is the display default on the legacy summary listing
	// when no role claim is present.
	RoleMember = "member"
)

// Custom claim keys mirrored between accounts and student documents.
const (
	ClaimRole       = "role"
	ClaimFirstName  = "firstName"
	ClaimMiddleName = "middleName"
	ClaimLastName   = "lastName"
	ClaimSection    = "section"
	ClaimCurriculum = "curriculum"
)

// User is the flattened account view returned by the mutation endpoints:
// identity fields plus the profile custom claims hoisted to top level.
type User struct {
	UID        string  `json:"uid"`
	Email      string  `json:"email"`
	FirstName  *string `json:"firstName"`
	MiddleName *string `json:"middleName"`
	LastName   *string `json:"lastName"`
	Section    *string `json:"section"`
	Curriculum *string `json:"curriculum"`
	Role       *string `json:"role"`
}

// RosterRow is the derived, non-persisted join of an account and its
// optional student document, shaped for the dashboard roster table.
type RosterRow struct {
	UID           string  `json:"uid"`
	Email         string  `json:"email"`
	EmailVerified bool    `json:"emailVerified"`
	Disabled      bool    `json:"disabled"`
	Status        string  `json:"status"`
	LastLogin     *string `json:"lastLogin"`
	CreatedAt     *string `json:"createdAt"`
	FirstName     *string `json:"firstName"`
	MiddleName    *string `json:"middleName"`
	LastName      *string `json:"lastName"`
	Section       *string `json:"section"`
	Curriculum    *string `json:"curriculum"`
	Role          *string `json:"role"`
}

// UserSummary is the legacy roster shape consumed by the original users
// grid: a single display name and a "member" role fallback.
type UserSummary struct {
	UID       string  `json:"uid"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	Status    string  `json:"status"`
	LastLogin *string `json:"lastLogin"`
}

// CreateUserRequest is the payload for POST /api/user/create.
// Profile fields are optional and copied into claims only when supplied.
type CreateUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	UID        string `json:"uid"`
	Role       string `json:"role"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
	Section    string `json:"section"`
	Curriculum string `json:"curriculum"`
}

// UpdateUserRequest is the payload for PUT/PATCH /api/user/update.
// Pointer fields distinguish "not mentioned" (nil) from "intentional
// clear" (pointer to empty string, written as a null claim).
type UpdateUserRequest struct {
	UID        string  `json:"uid" binding:"required"`
	Password   string  `json:"password"`
	Role       *string `json:"role"`
	FirstName  *string `json:"firstName"`
	MiddleName *string `json:"middleName"`
	LastName   *string `json:"lastName"`
	Section    *string `json:"section"`
	Curriculum *string `json:"curriculum"`
}

// ResetPasswordRequest is the payload for POST /api/user/resetPassword.
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// EnsureAdminRequest is the payload for POST /api/setup/ensureAdmin.
// Every field falls back to the configured bootstrap defaults.
type EnsureAdminRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// TokenRequest is the payload for POST /api/auth/token.
type TokenRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the payload for the legacy POST /api/login surface.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
