package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mrlokans/librarian/internal/entities"
)

const (
	// DefaultTokenTTL is used when the configured token expiry is not positive.
	DefaultTokenTTL = 12 * time.Hour
	// DefaultLeeway is clock skew tolerance for token validation.
	DefaultLeeway = 15 * time.Second
)

var ErrInvalidToken = errors.New("invalid token")

// Session is the explicit authentication context handed to API clients
// after login. Token is sent back as "Authorization: Bearer <token>".
type Session struct {
	AdminID   uint      `json:"admin_id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token,omitempty"`

	tokenID string
}

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // token ID -> expiry
}

// NewTokenIssuer creates an issuer signing with the given secret.
func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		issuer = "librarian"
	}
	return &TokenIssuer{
		secret:  secret,
		issuer:  issuer,
		ttl:     ttl,
		leeway:  DefaultLeeway,
		now:     func() time.Time { return time.Now().UTC() },
		revoked: make(map[string]time.Time),
	}
}

// Issue creates a signed session for the admin.
func (ti *TokenIssuer) Issue(admin *entities.Admin) (*Session, error) {
	now := ti.now()
	expires := now.Add(ti.ttl)
	claims := sessionClaims{
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   strconv.FormatUint(uint64(admin.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Session{
		AdminID:   admin.ID,
		Username:  admin.Username,
		IssuedAt:  now.Truncate(time.Second),
		ExpiresAt: expires.Truncate(time.Second),
		Token:     signed,
		tokenID:   claims.ID,
	}, nil
}

// Parse validates a bearer token and returns the session it carries.
// The returned session has no Token set.
func (ti *TokenIssuer) Parse(token string) (*Session, error) {
	claims := sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ti.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(ti.leeway),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	adminID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || adminID == 0 {
		return nil, ErrInvalidToken
	}
	if ti.isRevoked(claims.ID) {
		return nil, ErrInvalidToken
	}

	session := &Session{
		AdminID:  uint(adminID),
		Username: claims.Username,
		tokenID:  claims.ID,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return session, nil
}

// Revoke invalidates the session's token until it would have expired anyway.
// Revocations live in memory and do not survive a restart.
func (ti *TokenIssuer) Revoke(session *Session) {
	if session == nil || session.tokenID == "" {
		return
	}
	now := ti.now()

	ti.mu.Lock()
	defer ti.mu.Unlock()
	for id, exp := range ti.revoked {
		if now.After(exp.Add(ti.leeway)) {
			delete(ti.revoked, id)
		}
	}
	ti.revoked[session.tokenID] = session.ExpiresAt
}

func (ti *TokenIssuer) isRevoked(id string) bool {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	_, ok := ti.revoked[id]
	return ok
}
