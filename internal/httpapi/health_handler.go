package httpapi

import (
	"net/http"
	"time"

	"vision_gateway/internal/utils"
)

// handleHealth reports liveness plus the state of optional dependencies.
// Degraded dependencies do not fail the check: the gateway keeps serving
// with in-memory fallbacks.
func (deps *Dependencies) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	checks := map[string]string{}

	if deps.DB != nil {
		if err := deps.DB.Ping(r.Context()); err != nil {
			checks["database"] = "unreachable"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "disabled"
	}

	if deps.Redis != nil {
		if err := deps.Redis.Ping(r.Context()).Err(); err != nil {
			checks["redis"] = "unreachable"
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "disabled"
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"message":   "API is working",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
