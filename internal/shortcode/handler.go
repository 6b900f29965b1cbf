package shortcode

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/okoapay/c2b-console/internal/middleware"
	"github.com/okoapay/c2b-console/internal/model"
	"github.com/okoapay/c2b-console/pkg/types"
)

type ShortcodeHandler struct {
	service *ShortcodeService
}

func NewShortcodeHandler(service *ShortcodeService) *ShortcodeHandler {
	return &ShortcodeHandler{
		service: service,
	}
}

var validate = validator.New()

type detailResponse struct {
	Shortcode   *model.Shortcode      `json:"shortcode"`
	WebhookURLs types.WebhookURLs     `json:"webhook_urls"`
	Rule        *model.ValidationRule `json:"rule,omitempty"`
}

func parseID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (sh *ShortcodeHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	shortcodes, err := sh.service.List(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list shortcodes")
		http.Error(w, "Failed to list shortcodes", http.StatusInternalServerError)
		return
	}
	if shortcodes == nil {
		shortcodes = []model.Shortcode{}
	}
	writeJSON(w, http.StatusOK, shortcodes)
}

func (sh *ShortcodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)
	logger.Info().Msg("Received request to create shortcode")

	var req types.CreateShortcodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(&req); err != nil {
		http.Error(w, "Validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	sc, err := sh.service.Create(ctx, &req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create shortcode")
		http.Error(w, "Failed to create shortcode", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, detailResponse{
		Shortcode:   sc,
		WebhookURLs: sh.service.WebhookURLs(sc),
	})
}

func (sh *ShortcodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid shortcode id", http.StatusBadRequest)
		return
	}

	sc, rule, err := sh.service.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "Shortcode not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get shortcode")
		http.Error(w, "Failed to get shortcode", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, detailResponse{
		Shortcode:   sc,
		WebhookURLs: sh.service.WebhookURLs(sc),
		Rule:        rule,
	})
}

func (sh *ShortcodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid shortcode id", http.StatusBadRequest)
		return
	}

	var req types.UpdateShortcodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(&req); err != nil {
		http.Error(w, "Validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	sc, err := sh.service.Update(ctx, id, &req)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "Shortcode not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to update shortcode")
		http.Error(w, "Failed to update shortcode", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, detailResponse{
		Shortcode:   sc,
		WebhookURLs: sh.service.WebhookURLs(sc),
	})
}

func (sh *ShortcodeHandler) UpsertRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid shortcode id", http.StatusBadRequest)
		return
	}

	var req types.UpsertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(&req); err != nil {
		http.Error(w, "Validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	rule, err := sh.service.UpsertRule(ctx, id, &req)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "Shortcode not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to save validation rule")
		http.Error(w, "Failed to save validation rule", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

func (sh *ShortcodeHandler) RegisterURLs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid shortcode id", http.StatusBadRequest)
		return
	}

	resp, err := sh.service.RegisterURLs(ctx, id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "Shortcode not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("RegisterURL call failed")
		http.Error(w, "RegisterURL failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (sh *ShortcodeHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Invalid shortcode id", http.StatusBadRequest)
		return
	}

	var req types.SimulateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request payload", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(&req); err != nil {
			http.Error(w, "Validation error: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	resp, err := sh.service.Simulate(ctx, id, &req)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "Shortcode not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Simulate call failed")
		http.Error(w, "Simulate failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
