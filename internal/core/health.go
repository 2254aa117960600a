package core

import (
	"context"
	"net/http"
	"time"

	"printbridge/internal/types"
)

// Pinger abstracts the database liveness probe (satisfied by *pgxpool.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

// healthCheckTimeout bounds the database probe so the endpoint itself cannot
// hang when the pool is exhausted.
const healthCheckTimeout = 2 * time.Second

// HealthHandler serves GET /health. With a nil pinger it reports process
// liveness only.
func HealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := map[string]string{"status": "ok"}

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				Error(w, types.NewAppError(
					types.ErrCodeInternalDB,
					"database unreachable",
					err,
				))
				return
			}
			result["database"] = "ok"
		}

		JSON(w, http.StatusOK, result)
	}
}
