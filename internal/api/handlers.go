// Package api provides the HTTP surface for the case service
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hexforge/lootcase/internal/animation"
	"github.com/hexforge/lootcase/internal/auth"
	"github.com/hexforge/lootcase/internal/cases"
	"github.com/hexforge/lootcase/internal/control"
	"github.com/hexforge/lootcase/internal/cooldown"
	"github.com/hexforge/lootcase/internal/domain"
	"github.com/hexforge/lootcase/internal/history"
	"github.com/hexforge/lootcase/internal/keys"
	"github.com/hexforge/lootcase/pkg/skins"
)

// Handler contains all HTTP handlers
type Handler struct {
	auth     *auth.Service
	registry *cases.Registry
	loader   *cases.Loader
	ledger   *keys.Ledger
	history  *history.Log
	engine   *animation.Engine
	control  *control.Service
	hub      *Hub
	skins    *skins.Client
	log      *zap.Logger
}

// New creates a new API handler
func New(authSvc *auth.Service, registry *cases.Registry, loader *cases.Loader, ledger *keys.Ledger, hist *history.Log, engine *animation.Engine, ctrl *control.Service, hub *Hub, skinsClient *skins.Client, log *zap.Logger) *Handler {
	return &Handler{
		auth:     authSvc,
		registry: registry,
		loader:   loader,
		ledger:   ledger,
		history:  hist,
		engine:   engine,
		control:  ctrl,
		hub:      hub,
		skins:    skinsClient,
		log:      log.Named("api"),
	}
}

// Response helpers

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	})
}

// === Health & Info ===

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"cases":       h.registry.Len(),
		"active_runs": h.engine.ActiveRuns(),
	})
}

// ServerInfo handles GET /
func (h *Handler) ServerInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "lootcase",
		"version":     "1.0.0",
		"description": "Loot case opening service",
	})
}

// === Authentication ===

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player string `json:"player"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	req.Player = strings.TrimSpace(req.Player)
	if req.Player == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Player name required")
		return
	}

	token, err := h.auth.IssueToken(req.Player, false)
	if err != nil {
		h.log.Error("issue token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":  token,
		"player": req.Player,
	})
}

// AdminLogin handles POST /api/v1/auth/admin
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Operator string `json:"operator"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.Operator == "" {
		req.Operator = "admin"
	}

	token, err := h.auth.LoginAdmin(req.Operator, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "BAD_CREDENTIALS", "Invalid credentials")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":    token,
		"operator": req.Operator,
	})
}

// === Cases ===

type caseSummary struct {
	CaseID      string `json:"case_id"`
	Title       string `json:"title"`
	DisplayName string `json:"display_name"`
	Animation   string `json:"animation"`
	OpenType    string `json:"open_type"`
	Items       int    `json:"items"`
}

// ListCases handles GET /api/v1/cases
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	ids := h.registry.IDs()
	summaries := make([]caseSummary, 0, len(ids))
	for _, id := range ids {
		def, ok := h.registry.Get(id)
		if !ok {
			continue
		}
		summaries = append(summaries, caseSummary{
			CaseID:      def.CaseID,
			Title:       def.Title,
			DisplayName: def.DisplayName,
			Animation:   def.AnimationName,
			OpenType:    string(def.OpenType),
			Items:       len(def.Items),
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"cases": summaries})
}

// GetCase handles GET /api/v1/cases/{id}
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["id"]
	def, ok := h.registry.Get(caseID)
	if !ok {
		respondError(w, http.StatusNotFound, "CASE_NOT_FOUND", "Case not found")
		return
	}
	respondJSON(w, http.StatusOK, def)
}

// OpenCase handles POST /api/v1/cases/{id}/open
func (h *Handler) OpenCase(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	caseID := mux.Vars(r)["id"]

	var req struct {
		Location domain.Location `json:"location"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return
		}
	}

	run, err := h.engine.Open(r.Context(), caseID, claims.Player, req.Location)
	if err != nil {
		h.respondOpenError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"run_id":  run.ID,
		"case_id": run.CaseID,
		"player":  run.Player,
	})
}

func (h *Handler) respondOpenError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, animation.ErrCaseNotFound):
		respondError(w, http.StatusNotFound, "CASE_NOT_FOUND", "Case not found")
	case errors.Is(err, animation.ErrNoKeys):
		respondError(w, http.StatusPaymentRequired, "NO_KEYS", "Not enough keys")
	case errors.Is(err, animation.ErrNoReward):
		respondError(w, http.StatusConflict, "NO_REWARD", "Case has no winnable reward")
	case errors.Is(err, animation.ErrCancelled):
		respondError(w, http.StatusConflict, "CANCELLED", "Open was cancelled")
	case errors.Is(err, cooldown.ErrCoolingDown):
		respondError(w, http.StatusTooManyRequests, "COOLING_DOWN", "Case was opened too recently")
	case errors.Is(err, control.ErrServiceDisabled), errors.Is(err, control.ErrCaseDisabled):
		respondError(w, http.StatusServiceUnavailable, "DISABLED", err.Error())
	default:
		h.log.Error("open case", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// GetHistory handles GET /api/v1/cases/{id}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["id"]
	if _, ok := h.registry.Get(caseID); !ok {
		respondError(w, http.StatusNotFound, "CASE_NOT_FOUND", "Case not found")
		return
	}
	entries := h.history.Recent(caseID)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"case_id": caseID,
		"history": entries,
	})
}

// === Keys ===

// GetKeys handles GET /api/v1/keys/{case_id}
func (h *Handler) GetKeys(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	caseID := mux.Vars(r)["case_id"]

	balance, err := h.ledger.Get(r.Context(), caseID, claims.Player)
	if err != nil {
		h.log.Error("get key balance", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch balance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"case_id": caseID,
		"player":  claims.Player,
		"keys":    balance,
	})
}

type keysRequest struct {
	CaseID string `json:"case_id"`
	Player string `json:"player"`
	Amount int    `json:"amount"`
}

// AddKeys handles POST /api/v1/admin/keys/add
func (h *Handler) AddKeys(w http.ResponseWriter, r *http.Request) {
	h.mutateKeys(w, r, h.ledger.Add)
}

// RemoveKeys handles POST /api/v1/admin/keys/remove
func (h *Handler) RemoveKeys(w http.ResponseWriter, r *http.Request) {
	h.mutateKeys(w, r, h.ledger.Remove)
}

func (h *Handler) mutateKeys(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, caseID, player string, amount int) (int, error)) {
	var req keysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	balance, err := op(r.Context(), req.CaseID, req.Player, req.Amount)
	if err != nil {
		if errors.Is(err, keys.ErrInvalidAmount) || errors.Is(err, keys.ErrInvalidKey) {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		h.log.Error("mutate keys", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update balance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"case_id": req.CaseID,
		"player":  req.Player,
		"keys":    balance,
	})
}

// SetKeys handles POST /api/v1/admin/keys/set
func (h *Handler) SetKeys(w http.ResponseWriter, r *http.Request) {
	var req keysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.ledger.Set(r.Context(), req.CaseID, req.Player, req.Amount); err != nil {
		if errors.Is(err, keys.ErrInvalidKey) {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		h.log.Error("set keys", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update balance")
		return
	}

	balance, err := h.ledger.Get(r.Context(), req.CaseID, req.Player)
	if err != nil {
		h.log.Error("get keys after set", zap.Error(err))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"case_id": req.CaseID,
		"player":  req.Player,
		"keys":    balance,
	})
}

// === Skins ===

// GetSkin handles GET /api/v1/skins/{material}
func (h *Handler) GetSkin(w http.ResponseWriter, r *http.Request) {
	materialID := mux.Vars(r)["material"]

	tex, err := h.skins.Resolve(r.Context(), materialID)
	if err != nil {
		if apiErr, ok := err.(*skins.APIError); ok && apiErr.Code == skins.ErrNotFound {
			respondError(w, http.StatusNotFound, "TEXTURE_NOT_FOUND", "No texture for this material")
			return
		}
		h.log.Warn("resolve texture", zap.String("material", materialID), zap.Error(err))
		respondError(w, http.StatusBadGateway, "TEXTURE_UNAVAILABLE", "Texture service unavailable")
		return
	}
	if tex == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"material": materialID,
			"texture":  nil,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"material": materialID,
		"texture":  tex,
	})
}

// === Administration ===

// Reload handles POST /api/v1/admin/reload
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	count, err := h.loader.LoadAll()
	if err != nil {
		h.log.Error("reload cases", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "RELOAD_FAILED", "Failed to reload case definitions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"loaded": count})
}

// ControlStatus handles GET /api/v1/admin/control
func (h *Handler) ControlStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.control.Status())
}

type controlRequest struct {
	CaseID string `json:"case_id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Disable handles POST /api/v1/admin/control/disable
func (h *Handler) Disable(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	var req controlRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return
		}
	}

	if req.CaseID != "" {
		h.control.DisableCase(req.CaseID, req.Reason)
	} else {
		h.control.DisableAll(req.Reason, claims.Player)
	}
	respondJSON(w, http.StatusOK, h.control.Status())
}

// Enable handles POST /api/v1/admin/control/enable
func (h *Handler) Enable(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	var req controlRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return
		}
	}

	if req.CaseID != "" {
		h.control.EnableCase(req.CaseID)
	} else {
		h.control.EnableAll(claims.Player)
	}
	respondJSON(w, http.StatusOK, h.control.Status())
}
