package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/goldenticket/goldenticket/pkg/util"
)

// ClaimsKey is the fiber.Ctx locals key under which verified claims
// survive the websocket upgrade.
const ClaimsKey = "auth_claims"

// HandshakeGuard validates the token presented on the websocket
// upgrade request and stashes the claims for the connection handler.
// A nil TokenManager disables verification: the connection announces
// an unverified identity, which suits local development.
type HandshakeGuard struct {
	tokens *TokenManager
}

// NewHandshakeGuard constructs the guard.
func NewHandshakeGuard(tokens *TokenManager) *HandshakeGuard {
	return &HandshakeGuard{tokens: tokens}
}

// Handle extracts the token from the Authorization header or, because
// browser websocket clients cannot set headers, the "token" query
// parameter.
func (g *HandshakeGuard) Handle(c *fiber.Ctx) error {
	if g.tokens == nil {
		return c.Next()
	}

	raw := c.Query("token")
	if raw == "" {
		header := c.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			raw = parts[1]
		}
	}
	if raw == "" {
		return util.NewUnauthorized("missing token")
	}

	claims, err := g.tokens.ParseToken(raw)
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}
	c.Locals(ClaimsKey, claims)
	return c.Next()
}
