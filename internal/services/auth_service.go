package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	authorizer "github.com/localnerve/authorizer-go"
	"github.com/localnerve/voternet/internal/config"
	"github.com/localnerve/voternet/internal/utils"
)

// SessionValidator resolves a session cookie to the signed in user's email.
type SessionValidator interface {
	ValidateSession(cookie string, roles []string) (string, error)
}

// SessionAuth validates sessions against the Authorizer service.
type SessionAuth struct {
	cfg    *config.Config
	log    *slog.Logger
	once   sync.Once
	client *authorizer.AuthorizerClient
	err    error
}

// NewSessionAuth creates a SessionAuth. The client is created on first use.
func NewSessionAuth(cfg *config.Config, log *slog.Logger) *SessionAuth {
	return &SessionAuth{cfg: cfg, log: log}
}

// Init pings the Authorizer service and creates the client.
func (a *SessionAuth) Init() error {
	a.once.Do(func() {
		if a.cfg.AuthzURL == "" {
			a.err = fmt.Errorf("AUTHZ_URL is not configured")
			return
		}
		// Ping the Authorizer service first
		if err := utils.PingAuthorizer(context.Background(), a.cfg.AuthzURL); err != nil {
			a.err = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}

		a.log.Info("initializing authorizer", "url", a.cfg.AuthzURL, "client_id", a.cfg.AuthzClientID, "redirect", a.cfg.BaseURL)
		a.client, a.err = authorizer.NewAuthorizerClient(a.cfg.AuthzClientID, a.cfg.AuthzURL, a.cfg.BaseURL, nil)
		if a.err != nil {
			a.err = fmt.Errorf("failed to create authorizer client: %w", a.err)
		}
	})
	return a.err
}

// ValidateSession validates a session cookie for the given roles and returns the user's email.
func (a *SessionAuth) ValidateSession(cookie string, roles []string) (string, error) {
	if err := a.Init(); err != nil {
		return "", err
	}

	// Convert roles to []*string
	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := a.client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return "", fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid {
		return "", fmt.Errorf("session is not valid")
	}

	// the user shape differs between Authorizer versions; only the email is needed
	raw, err := json.Marshal(res.User)
	if err != nil {
		return "", fmt.Errorf("decode session user: %w", err)
	}
	var user struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &user); err != nil {
		return "", fmt.Errorf("decode session user: %w", err)
	}
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" {
		return "", fmt.Errorf("session has no email")
	}
	return email, nil
}
