// Package auth resolves caller identities from bearer credentials and owns
// the ownership predicate used by mutating event operations.
package auth

import (
	"fmt"
	"strings"
	"time"

	"workouttribe/apperr"
	"workouttribe/utils"
)

type Guard struct {
	secret []byte
	ttl    time.Duration
}

func NewGuard(secret string, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Guard{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token for userID.
func (g *Guard) Issue(userID string) (string, error) {
	return utils.GenerateToken(g.secret, userID, g.ttl)
}

// Resolve accepts "Bearer <token>" or the bare token and returns the user id.
func (g *Guard) Resolve(credential string) (string, error) {
	token := strings.TrimSpace(credential)
	if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return "", fmt.Errorf("no token: %w", apperr.ErrUnauthorized)
	}
	userID, err := utils.VerifyToken(g.secret, token)
	if err != nil {
		return "", fmt.Errorf("token failed: %v: %w", err, apperr.ErrUnauthorized)
	}
	return userID, nil
}

// RequireOwner fails with ErrForbidden unless callerID is the creator.
func RequireOwner(creatorID, callerID string) error {
	if callerID == "" || creatorID != callerID {
		return fmt.Errorf("not the creator: %w", apperr.ErrForbidden)
	}
	return nil
}
