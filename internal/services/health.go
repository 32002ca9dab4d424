package services

import (
	"context"
	"fmt"
	"log"

	"github.com/localnerve/chapterviewer/internal/config"
	"github.com/localnerve/chapterviewer/internal/utils"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Store        string            `json:"store"`
	Authorizer   string            `json:"authorizer,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// Healthy reports whether every dependency answered
func (r HealthCheckResult) Healthy() bool {
	return r.Status == "healthy"
}

func (r *HealthCheckResult) fail(message string) {
	r.Status = "unhealthy"
	if r.ErrorMessage == "" {
		r.ErrorMessage = message
	} else {
		r.ErrorMessage += "; " + message
	}
}

// HealthCheck pings the record store and, when configured, the Authorizer
func HealthCheck(ctx context.Context, cfg *config.Config, store RecordStore) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	result.Details["store_type"] = cfg.StoreType
	if err := store.Ping(ctx); err != nil {
		result.Store = "unreachable"
		result.Details["store_error"] = err.Error()
		result.fail(fmt.Sprintf("Store ping failed: %v", err))
		log.Printf("Health check failed - store ping: %v", err)
	} else {
		result.Store = "ok"
		if cfg.StoreType == config.StoreGorm {
			result.Details["database_type"] = cfg.DBType
			result.Details["database_name"] = cfg.DBDatabase
		} else {
			result.Details["repository"] = cfg.GitHubRepo
		}
	}

	if cfg.AuthEnabled() {
		if err := utils.PingAuthorizer(ctx, cfg.AuthzURL); err != nil {
			result.Authorizer = "unreachable"
			result.Details["authorizer_error"] = err.Error()
			result.fail(fmt.Sprintf("Authorizer ping failed: %v", err))
			log.Printf("Health check failed - authorizer ping: %v", err)
		} else {
			result.Authorizer = "ok"
			result.Details["authorizer_url"] = cfg.AuthzURL
		}
	}

	return result
}
