package token

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// ErrNoPrivateKey is returned when access token signing is attempted
// without configured key material. This indicates broken configuration and
// maps to a 500 at the boundary; it is never a recoverable per-request
// condition.
var ErrNoPrivateKey = errors.New("no private key configured")

// AccessPayload is the claim set of an access token: who the request acts
// as and with which role. Never persisted.
type AccessPayload struct {
	Sub  string
	Role model.Role
}

// RefreshPayload extends the access claims with the persisted row id that
// becomes the token's jti. A refresh token is only as alive as its row.
type RefreshPayload struct {
	Sub  string
	Role model.Role
	ID   uint64
}

// Issuer mints both halves of the token pair. Access tokens are signed
// RS256 with the service key pair and verified by third parties through the
// published JWKS; refresh tokens are signed HS256 with a shared secret and
// additionally gated by their persisted row.
type Issuer struct {
	keyPair       *KeyPair
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	store         repository.RefreshTokenStore
}

// NewIssuer constructs an Issuer. keyPair may be nil when the service is
// intentionally started without signing capability (e.g. verification-only
// tooling); GenerateAccessToken then fails with ErrNoPrivateKey.
func NewIssuer(keyPair *KeyPair, refreshSecret []byte, issuer string, accessTTL, refreshTTL time.Duration, store repository.RefreshTokenStore) *Issuer {
	return &Issuer{
		keyPair:       keyPair,
		refreshSecret: refreshSecret,
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		store:         store,
	}
}

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// GenerateAccessToken signs {sub, role} with the service private key.
func (i *Issuer) GenerateAccessToken(p AccessPayload) (string, error) {
	if i.keyPair == nil || i.keyPair.PrivateKey == nil {
		return "", ErrNoPrivateKey
	}
	now := NowTimeFunc().UTC()
	claims := jwt.MapClaims{
		"sub":  p.Sub,
		"role": string(p.Role),
		"iss":  i.issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(i.accessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = i.keyPair.KeyID
	signed, err := t.SignedString(i.keyPair.PrivateKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// GenerateRefreshToken signs {sub, role, jti} with the symmetric secret.
// The jti is the row id previously returned by PersistRefreshToken, which
// is what makes the token revocable by primary key rather than by
// signature alone.
func (i *Issuer) GenerateRefreshToken(p RefreshPayload) (string, error) {
	now := NowTimeFunc().UTC()
	claims := jwt.MapClaims{
		"sub":  p.Sub,
		"role": string(p.Role),
		"jti":  strconv.FormatUint(p.ID, 10),
		"iss":  i.issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(i.refreshTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.refreshSecret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// PersistRefreshToken inserts a new refresh token row for the user and
// returns its id. The caller feeds that id into GenerateRefreshToken. One
// durable write per issuance.
func (i *Issuer) PersistRefreshToken(ctx context.Context, userID uint64) (uint64, error) {
	return i.store.Create(ctx, userID, NowTimeFunc().UTC().Add(i.refreshTTL))
}

// DeleteRefreshToken removes the row by id. Idempotent: deleting an id
// that no longer exists is not an error.
func (i *Issuer) DeleteRefreshToken(ctx context.Context, id uint64) error {
	return i.store.DeleteByID(ctx, id)
}

// AccessTTL exposes the configured access token lifetime for cookie
// max-age calculation.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL exposes the configured refresh token lifetime for cookie
// max-age calculation.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }
