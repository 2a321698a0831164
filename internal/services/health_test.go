package services_test

import (
	"context"
	"testing"

	"github.com/localnerve/voternet/internal/config"
	"github.com/localnerve/voternet/internal/logging"
	"github.com/localnerve/voternet/internal/services"
	"github.com/localnerve/voternet/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHealthCheck(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := &config.Config{DBType: "sqlite", DBDatabase: "voternet"}

	result := services.HealthCheck(context.Background(), cfg, db, logging.Discard())
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "disabled", result.Authorizer)
	assert.Equal(t, "disabled", result.Mail)

	cfg.SMTPHost, cfg.SMTPPort = "127.0.0.1", 1
	result = services.HealthCheck(context.Background(), cfg, db, logging.Discard())
	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "unreachable", result.Mail)
	assert.Contains(t, result.Details, "mail_error")
}
