package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"larder/internal/core/actor"
)

const HeaderActorID = "X-Actor-ID"

// Actor middleware extracts the acting user for audit attribution.
// Authentication itself happens upstream (API gateway); this middleware only
// reads identity from an already-issued JWT, falling back to the X-Actor-ID
// header. Requests without identity proceed with empty attribution.
func Actor(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actorFromRequest(c, jwtSecret)
		if a != nil {
			ctx := actor.WithActor(c.Request.Context(), a)
			c.Request = c.Request.WithContext(ctx)
			c.Set("user_id", a.UserID)
		}
		c.Next()
	}
}

func actorFromRequest(c *gin.Context, jwtSecret []byte) *actor.Actor {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if a := actorFromToken(parts[1], jwtSecret); a != nil {
				return a
			}
		}
	}

	if actorID := c.GetHeader(HeaderActorID); actorID != "" {
		return &actor.Actor{UserID: actorID}
	}

	return nil
}

func actorFromToken(tokenString string, jwtSecret []byte) *actor.Actor {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	a := &actor.Actor{}
	if sub, err := claims.GetSubject(); err == nil {
		a.UserID = sub
	}
	if email, ok := claims["email"].(string); ok {
		a.Email = email
	}
	if a.UserID == "" {
		return nil
	}

	return a
}
