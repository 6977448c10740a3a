package http

import (
	"net/http"
	"time"

	"github.com/lydia-game/payflow/internal/payments/service"
	"github.com/lydia-game/payflow/internal/payments/store"
	"github.com/lydia-game/payflow/pkg/httpx"
)

// HealthChecks reports the status of each critical dependency.
type HealthChecks struct {
	Database     string `json:"database"`
	ServiceToken string `json:"serviceToken"`
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks"`
}

// HealthHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Readiness probe returning overall status plus database and service token checks.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/health [get].
func HealthHandler(
	startTime time.Time,
	version string,
	st store.Store,
	tokens *service.TokenManager,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Database:     "ok",
			ServiceToken: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if status := tokens.Status(); !status.HasToken {
			checks.ServiceToken = "error: no service token held"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		} else if status.RefreshDue {
			// Still serving; the background renewal will catch up.
			checks.ServiceToken = "refresh due"
		}

		response := HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
