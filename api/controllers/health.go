package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/adityaverma/getmeachai-backend/api/responses"
	"github.com/adityaverma/getmeachai-backend/pkg/config"
	"github.com/adityaverma/getmeachai-backend/pkg/db"
	pkgerrors "github.com/adityaverma/getmeachai-backend/pkg/errors"
	"github.com/adityaverma/getmeachai-backend/pkg/logger"
	"github.com/adityaverma/getmeachai-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Chai-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Chai-Env", cfg.App.Env)

		checks := []struct {
			name string
			ping func(context.Context) error
		}{
			{"database", pingFunc(dbP)},
			{"redis", pingFunc(redisP)},
		}
		for _, check := range checks {
			if check.ping == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			err := check.ping(ctx)
			cancel()
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodePersistence, err, check.name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

func pingFunc(p interface{ Ping(context.Context) error }) func(context.Context) error {
	if p == nil {
		return nil
	}
	return p.Ping
}
