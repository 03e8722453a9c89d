package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/pkg/auth"
	apperrors "github.com/jwalitptl/compliance-api/pkg/errors"
)

const ContextActor = "actor"

var (
	errMissingAuthorization   = errors.New("missing authorization header")
	errMalformedAuthorization = errors.New("invalid authorization format")
	errNoActor                = errors.New("no authenticated actor")
	errInsufficientRole       = errors.New("insufficient role")
)

// Actor is the authenticated user behind a request.
type Actor struct {
	UserID   uuid.UUID
	FullName string
	Email    string
	Role     string
	Roles    []string
}

// Party renders the actor as a notification party.
func (a Actor) Party() model.NotificationParty {
	return model.NotificationParty{
		UserID:   a.UserID,
		FullName: a.FullName,
		Email:    a.Email,
		Roles:    a.Roles,
	}
}

// HasRole reports whether the actor holds any of roles.
func (a Actor) HasRole(roles ...string) bool {
	for _, want := range roles {
		if a.Role == want {
			return true
		}
		for _, r := range a.Roles {
			if r == want {
				return true
			}
		}
	}
	return false
}

type AuthMiddleware struct {
	tokens auth.TokenValidator
}

func NewAuthMiddleware(tokens auth.TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and stores the actor in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Error(apperrors.Unauthorized(errMissingAuthorization))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Error(apperrors.Unauthorized(errMalformedAuthorization))
			c.Abort()
			return
		}

		claims, err := m.tokens.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			c.Error(apperrors.Unauthorized(err))
			c.Abort()
			return
		}

		role := claims.Role
		if role == "" && len(claims.Roles) > 0 {
			role = claims.Roles[0]
		}
		c.Set(ContextActor, Actor{
			UserID:   claims.UserID,
			FullName: claims.FullName,
			Email:    claims.Email,
			Role:     role,
			Roles:    claims.Roles,
		})
		c.Next()
	}
}

// ActorFrom returns the actor set by Authenticate.
func ActorFrom(c *gin.Context) (Actor, error) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return Actor{}, apperrors.Unauthorized(errNoActor)
	}
	actor, ok := v.(Actor)
	if !ok {
		return Actor{}, apperrors.Unauthorized(errNoActor)
	}
	return actor, nil
}

// RequireRole rejects actors holding none of roles. It must run after
// Authenticate.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := ActorFrom(c)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		if !actor.HasRole(roles...) {
			c.Error(apperrors.Forbidden("insufficient role", fmt.Errorf("%w: requires one of %s", errInsufficientRole, strings.Join(roles, ", "))))
			c.Abort()
			return
		}
		c.Next()
	}
}
