package services

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/localnerve/voternet/internal/config"
	"github.com/localnerve/voternet/internal/utils"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Authorizer   string            `json:"authorizer"`
	Mail         string            `json:"mail"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(component, msg string, err error) {
	r.Status = "unhealthy"
	r.Details[component+"_error"] = err.Error()
	line := fmt.Sprintf("%s: %v", msg, err)
	if r.ErrorMessage == "" {
		r.ErrorMessage = line
	} else {
		r.ErrorMessage += "; " + line
	}
}

// HealthCheck performs a comprehensive health check of the service. Optional services
// that are not configured are reported as "disabled".
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, log *slog.Logger) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.fail("database", "Database connection error", err)
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.fail("database_ping", "Database ping failed", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	// Check Authorizer connectivity
	switch {
	case cfg.AuthzURL == "":
		result.Authorizer = "disabled"
	default:
		if err := utils.PingAuthorizer(ctx, cfg.AuthzURL); err != nil {
			result.Authorizer = "unreachable"
			result.fail("authorizer", "Authorizer ping failed", err)
		} else {
			result.Authorizer = "ok"
			result.Details["authorizer_url"] = cfg.AuthzURL
		}
	}

	// Check SMTP connectivity
	switch {
	case cfg.DebugMail || cfg.SMTPHost == "":
		result.Mail = "disabled"
	default:
		addr := net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort))
		if err := utils.PingSMTP(ctx, cfg.SMTPHost, cfg.SMTPPort); err != nil {
			result.Mail = "unreachable"
			result.fail("mail", "SMTP ping failed", err)
		} else {
			result.Mail = "ok"
			result.Details["smtp_host"] = addr
		}
	}

	if result.Status == "healthy" {
		log.Info("health check passed")
	} else {
		log.Warn("health check failed", "error", result.ErrorMessage)
	}
	return result
}
