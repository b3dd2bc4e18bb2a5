package serverutils

import (
	"strings"

	"notesync-be/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	LocalUserId = "user_id"
	LocalRole   = "role"
)

// Identity is what the external identity provider vouches for on every request.
type Identity struct {
	Id   uuid.UUID
	Role string
}

// ParseToken verifies an HS256 token and extracts the identity claims.
func ParseToken(tokenStr, secret string) (*Identity, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.Unauthorized("Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperror.Unauthorized("Invalid claims")
	}

	userIdStr, _ := claims["user_id"].(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return nil, apperror.Unauthorized("Token missing user_id")
	}

	role, _ := claims["role"].(string)
	return &Identity{Id: userId, Role: role}, nil
}

// BearerToken returns the token from the Authorization header, falling back to the
// "token" query parameter that browsers use for websocket handshakes.
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

func NewJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerToken(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token"))
		}

		identity, err := ParseToken(tokenStr, secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, err.Error()))
		}

		ctx.Locals(LocalUserId, identity.Id.String())
		ctx.Locals(LocalRole, identity.Role)
		return ctx.Next()
	}
}

// UserId reads the caller set by the JWT middleware.
func UserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, _ := ctx.Locals(LocalUserId).(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, apperror.Unauthorized("Unauthorized")
	}
	return userId, nil
}
