package model

import "time"

// User represents an application user record as stored in the `users`
// table. Each field corresponds to a column in the database. The password
// hash never leaves the persistence/handler boundary; response types strip
// it before serialization.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FirstName    – given name.
//  LastName     – family name.
//  Email        – unique email address (lower-cased before storage).
//  PasswordHash – bcrypt hashed password.
//  Role         – member of the closed role enumeration.
//  TenantID     – owning tenant (nullable: admins and self-registered
//                 customers carry no tenant).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	TenantID     *uint64   `json:"tenantId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RefreshToken models an entry in the `refresh_tokens` table. Each refresh
// token row belongs to a user; the row id doubles as the `jti` claim of the
// signed refresh token, which is what makes a token revocable by a primary
// key delete regardless of its signature or expiry.
//
// Fields:
//  ID        – primary key identifier, embedded in the token as jti.
//  UserID    – owner of the token.
//  ExpiresAt – expiration timestamp of the token.
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
