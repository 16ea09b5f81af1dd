package controllers

import (
	"net/http"

	"github.com/shopora/storefront-backend/api/responses"
	"github.com/shopora/storefront-backend/pkg/config"
	"github.com/shopora/storefront-backend/pkg/db"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/logger"
	"github.com/shopora/storefront-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live", "env": cfg.App.Env})
	}
}

// HealthReady verifies the Postgres and Redis dependencies respond.
func HealthReady(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dbClient != nil {
			if err := dbClient.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready", "env": cfg.App.Env})
	}
}
