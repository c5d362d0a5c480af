// Package auth is the admin credential gate. One configured identifier and
// bcrypt-hashed secret unlock the admin panel; a successful login yields a
// signed session token that the HTTP layer keeps in a cookie.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Saikiran-Avusula/portfolio/internal/logger"
)

// DevPassword is used when no admin password is configured. Development only.
const DevPassword = "admin123"

type Config struct {
	Identifier   string
	PasswordHash []byte
	Secret       []byte
	TTL          time.Duration
}

type Gate struct {
	identifier   []byte
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	revoked      Revocations
	log          logger.ILogger
	now          func() time.Time
}

func NewGate(cfg Config, revoked Revocations, log logger.ILogger) (*Gate, error) {
	if cfg.Identifier == "" {
		return nil, errors.New("admin identifier not configured")
	}
	if len(cfg.PasswordHash) == 0 {
		return nil, errors.New("admin password hash not configured")
	}
	if _, err := bcrypt.Cost(cfg.PasswordHash); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}

	secret := cfg.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generating session secret: %w", err)
		}
		log.Warn("auth", "JWT_SECRET not set, sessions will not survive a restart", nil)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Gate{
		identifier:   []byte(cfg.Identifier),
		passwordHash: cfg.PasswordHash,
		secret:       secret,
		ttl:          ttl,
		revoked:      revoked,
		log:          log,
		now:          time.Now,
	}, nil
}

// TTL is how long an issued session token stays valid.
func (g *Gate) TTL() time.Duration {
	return g.ttl
}

// Login checks the pair and returns a session token on a match. Any other
// pair returns false and no token.
func (g *Gate) Login(identifier, secret string) (string, bool) {
	idMatch := subtle.ConstantTimeCompare([]byte(identifier), g.identifier) == 1
	// Always run bcrypt so a wrong identifier costs the same as a wrong secret.
	pwErr := bcrypt.CompareHashAndPassword(g.passwordHash, []byte(secret))
	if !idMatch || pwErr != nil {
		return "", false
	}

	now := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   identifier,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		g.log.Error("auth", "failed to sign session token", map[string]interface{}{"error": err})
		return "", false
	}
	return token, true
}

// Logout revokes the token until it would have expired. Invalid tokens are
// ignored.
func (g *Gate) Logout(ctx context.Context, token string) {
	claims, err := g.parse(token)
	if err != nil {
		return
	}
	if err := g.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		g.log.Error("auth", "failed to revoke session", map[string]interface{}{"error": err})
	}
}

// IsAuthenticated reports whether token is a live session for the admin.
func (g *Gate) IsAuthenticated(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	claims, err := g.parse(token)
	if err != nil {
		return false
	}
	revoked, err := g.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		g.log.Error("auth", "revocation lookup failed, denying session", map[string]interface{}{"error": err})
		return false
	}
	return !revoked
}

func (g *Gate) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(string(g.identifier)),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.New("session token has no id")
	}
	return claims, nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ResolvePasswordHash picks the configured hash, else hashes the configured
// plain password, else falls back to DevPassword. usedDefault reports the
// last case so the caller can warn.
func ResolvePasswordHash(hash, plain string) (resolved []byte, usedDefault bool, err error) {
	if hash != "" {
		return []byte(hash), false, nil
	}
	if plain == "" {
		plain = DevPassword
		usedDefault = true
	}
	h, err := HashPassword(plain)
	if err != nil {
		return nil, false, err
	}
	return []byte(h), usedDefault, nil
}
