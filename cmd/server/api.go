package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"token-crowdsale/internal/crowdsale"
	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/identity"
	"token-crowdsale/internal/observability"
)

// callerHeader carries the caller's base58 identity on every mutating request.
const callerHeader = "X-Caller-Identity"

// api exposes the coordinator over HTTP JSON.
type api struct {
	coord  *crowdsale.Coordinator
	hub    *hub
	logger *log.Logger
}

func newAPI(coord *crowdsale.Coordinator, hub *hub, logger *log.Logger) *api {
	return &api{coord: coord, hub: hub, logger: logger}
}

func (a *api) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/sale/start", a.instrument("start", post(a.handleStart)))
	mux.HandleFunc("/sale/allowlist", a.instrument("allowlist", post(a.handleAllow)))
	mux.HandleFunc("/sale/contributions", a.instrument("contribute", post(a.handleContribute)))
	mux.HandleFunc("/sale/release", a.instrument("release", post(a.handleRelease)))
	mux.HandleFunc("/sale/withdrawals", a.instrument("withdraw", post(a.handleWithdraw)))
	mux.HandleFunc("/sale/status", a.instrument("status", a.handleStatus))
	mux.HandleFunc("/sale/events", a.hub.handleWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// post rejects non-POST requests.
func post(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request metrics per endpoint.
func (a *api) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		observability.RecordHTTPRequest(endpoint, strconv.Itoa(rec.status), time.Since(start).Seconds())
	}
}

type startRequest struct {
	DurationMs      int64 `json:"duration_ms"`
	UnitPrice       int64 `json:"unit_price"`
	AvailableTokens int64 `json:"available_tokens"`
	MinContribution int64 `json:"min_contribution"`
	MaxContribution int64 `json:"max_contribution"`
}

type allowRequest struct {
	Participant string `json:"participant"`
}

type contributeRequest struct {
	Value int64 `json:"value"`
}

type withdrawRequest struct {
	Destination string `json:"destination"`
	Amount      int64  `json:"amount"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}

func (a *api) handleStart(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	var req startRequest
	if !decode(w, r, &req) {
		return
	}

	sale, err := a.coord.Start(r.Context(), caller, crowdsale.StartParams{
		Duration:        time.Duration(req.DurationMs) * time.Millisecond,
		UnitPrice:       req.UnitPrice,
		AvailableTokens: req.AvailableTokens,
		MinContribution: req.MinContribution,
		MaxContribution: req.MaxContribution,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"sale_id":  sale.SaleID,
		"end_time": sale.EndTime,
	})
}

func (a *api) handleAllow(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	var req allowRequest
	if !decode(w, r, &req) {
		return
	}
	participant, err := identity.Parse(req.Participant)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:    fmt.Sprintf("invalid participant: %v", err),
			Category: string(crowdsale.CategoryConfiguration),
		})
		return
	}

	if err := a.coord.Allow(r.Context(), caller, participant); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"participant": participant})
}

func (a *api) handleContribute(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	var req contributeRequest
	if !decode(w, r, &req) {
		return
	}

	purchase, err := a.coord.Contribute(r.Context(), caller, req.Value)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"purchase_id": purchase.PurchaseID,
		"seq":         purchase.Seq,
		"value":       purchase.Value,
		"quantity":    purchase.Quantity,
	})
}

func (a *api) handleRelease(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	if err := a.coord.Release(r.Context(), caller); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"released": true})
}

func (a *api) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.caller(w, r)
	if !ok {
		return
	}
	var req withdrawRequest
	if !decode(w, r, &req) {
		return
	}
	destination, err := identity.Parse(req.Destination)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:    fmt.Sprintf("invalid destination: %v", err),
			Category: string(crowdsale.CategoryConfiguration),
		})
		return
	}

	if err := a.coord.Withdraw(r.Context(), caller, destination, req.Amount); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"withdrawn": req.Amount})
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, a.coord.Status())
}

// caller parses the identity header. Writes a 400 response and returns
// false when missing or malformed.
func (a *api) caller(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	raw := r.Header.Get(callerHeader)
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:    callerHeader + " header is required",
			Category: string(crowdsale.CategoryConfiguration),
		})
		return "", false
	}
	id, err := identity.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:    fmt.Sprintf("invalid caller identity: %v", err),
			Category: string(crowdsale.CategoryConfiguration),
		})
		return "", false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:    fmt.Sprintf("invalid request body: %v", err),
			Category: string(crowdsale.CategoryConfiguration),
		})
		return false
	}
	return true
}

func (a *api) writeError(w http.ResponseWriter, err error) {
	category := crowdsale.Category(err)
	status := statusForCategory(category)
	if status == http.StatusInternalServerError {
		a.logger.Printf("Internal error: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Category: string(category)})
}

// statusForCategory maps coordinator error categories to HTTP statuses.
func statusForCategory(c crowdsale.ErrorCategory) int {
	switch c {
	case crowdsale.CategoryAuthorization, crowdsale.CategoryEligibility:
		return http.StatusForbidden
	case crowdsale.CategoryConfiguration, crowdsale.CategoryBounds:
		return http.StatusBadRequest
	case crowdsale.CategoryPhase, crowdsale.CategoryInventory, crowdsale.CategoryLedger:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
