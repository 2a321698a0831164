package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/localnerve/voternet/internal/types"
)

// SessionCookie is the Authorizer session cookie.
const SessionCookie = "cookie_session"

const (
	localEmail = "email"
	localActor = "actor"
	localPlace = "place"
)

// Auth resolves the signed in user from the Authorizer session.
type Auth struct {
	Sessions services.SessionValidator
	Access   *services.Access
	// Roles are the Authorizer roles a session must carry. Defaults to "user".
	Roles []string
}

// Required rejects requests without a valid session.
func (a *Auth) Required() fiber.Handler {
	return a.authorize
}

func (a *Auth) authorize(c *fiber.Ctx) error {
	session := c.Cookies(SessionCookie)
	if session == "" {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Authorizer cookie %q not found", SessionCookie),
			Type:    "authorization",
		}
	}

	roles := a.Roles
	if len(roles) == 0 {
		roles = []string{"user"}
	}
	email, err := a.Sessions.ValidateSession(session, roles)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    "authorization",
		}
	}

	actor, err := a.Access.Actor(c.UserContext(), email)
	if err != nil {
		return err
	}
	c.Locals(localEmail, email)
	c.Locals(localActor, actor)

	return c.Next()
}

// Email is the signed in user's email, or "" for anonymous requests.
func Email(c *fiber.Ctx) string {
	email, _ := c.Locals(localEmail).(string)
	return email
}

// Actor is the person acting for the signed in user, or nil for anonymous requests.
func Actor(c *fiber.Ctx) *models.Person {
	actor, _ := c.Locals(localActor).(*models.Person)
	return actor
}
