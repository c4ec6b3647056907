package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"vision_gateway/internal/auth"
	"vision_gateway/internal/models"
	"vision_gateway/internal/utils"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// handleAdminLogin exchanges admin credentials for a short-lived JWT.
func (deps *Dependencies) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	token, expiresAt, err := auth.Login(payload.Username, payload.Password, deps.Config)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}

// handleAdminStats returns today's ledger aggregates for the dashboard.
func (deps *Dependencies) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = models.DateKey(time.Now())
	}

	stats, err := deps.Ledger.Daily(r.Context(), date)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load daily stats")
		return
	}

	// The spend counter is the fast path the billing engine writes on every
	// charge. When it is unavailable or empty, fall back to the ledger
	// aggregate so the dashboard never shows less than what was recorded.
	spent, err := deps.Spend.DailySpend(r.Context(), date)
	if err != nil || spent == 0 {
		spent = stats.TotalSpent
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"dailyStats":    stats,
		"dailySpendSTX": spent,
		"dailyLimitSTX": deps.Config.Pricing.DailyLimitSTX,
	})
}

// handleAdminTransactions returns the most recent ledger entries, newest
// first. Truncation here is display-only; totals always come from the
// daily aggregates.
func (deps *Dependencies) handleAdminTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			utils.RespondWithError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	transactions, err := deps.Ledger.Recent(r.Context(), limit)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}
