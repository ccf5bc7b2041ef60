package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/wattfinder/wattfinder/internal/auth"
	"github.com/wattfinder/wattfinder/internal/importer"
	"github.com/wattfinder/wattfinder/internal/plans"
	"github.com/wattfinder/wattfinder/internal/storage"
	"github.com/wattfinder/wattfinder/pkg/sources"
)

type V2Handler struct {
	planSvc *plans.Service
	st      storage.Storage
	authSvc *auth.Service
}

// RegisterV2Routes wires the authenticated admin API.
func RegisterV2Routes(mux *http.ServeMux, planSvc *plans.Service, st storage.Storage, authSvc *auth.Service) {
	h := &V2Handler{planSvc: planSvc, st: st, authSvc: authSvc}

	withAuth := func(handler http.HandlerFunc) http.Handler {
		if authSvc == nil {
			return handler
		}
		return authSvc.Middleware(handler)
	}
	// protected is for routes covered by a single permission; the plan routes
	// multiplex read and write methods on one path and check per method inside
	// the handler instead.
	protected := func(obj, act string, handler http.HandlerFunc) http.Handler {
		if authSvc == nil {
			return handler
		}
		return authSvc.Middleware(authSvc.RequirePermission(obj, act, handler))
	}

	mux.Handle("/api/v2/auth/login", http.HandlerFunc(h.Login))
	mux.Handle("/api/v2/plans", withAuth(h.HandlePlans))
	mux.Handle("/api/v2/plans/", withAuth(h.HandlePlan))
	mux.Handle("/api/v2/leads", protected("leads", "read", h.ListLeads))
	mux.Handle("/api/v2/import/", protected("imports", "write", h.HandleImport))
	mux.Handle("/api/v2/import-sources", protected("imports", "write", h.ListSources))
}

func (h *V2Handler) allowed(r *http.Request, obj, act string) bool {
	if h.authSvc == nil {
		return true
	}
	ok, err := h.authSvc.Enforce(getUserID(r), obj, act)
	return err == nil && ok
}

// Login exchanges credentials for a bearer token.
func (h *V2Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.authSvc == nil {
		http.Error(w, "auth disabled", http.StatusNotImplemented)
		return
	}

	var req struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		ExpiresIn string `json:"expires_in,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.authSvc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	expiresAt, err := auth.ParseExpirationDuration(req.ExpiresIn)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tok, raw, err := h.authSvc.CreateToken(r.Context(), u.ID, "login", u.Role, expiresAt)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, struct {
		Token     string         `json:"token"`
		ExpiresAt interface{}    `json:"expires_at,omitempty"`
		User      *storage.User  `json:"user"`
		TokenMeta *storage.Token `json:"token_meta"`
	}{Token: raw, ExpiresAt: tok.ExpiresAt, User: u, TokenMeta: tok})
}

// HandlePlans lists the full catalog (inactive plans included) or upserts a
// plan.
func (h *V2Handler) HandlePlans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !h.allowed(r, "plans", "read") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		list, err := h.st.ListPlans(r.Context(), false)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, list)

	case http.MethodPost, http.MethodPut:
		if !h.allowed(r, "plans", "write") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		var rec plans.PlanRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if rec.ID == "" {
			http.Error(w, "plan id is required", http.StatusBadRequest)
			return
		}
		if err := h.planSvc.SavePlan(r.Context(), rec); err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandlePlan serves /api/v2/plans/{id} and /api/v2/plans/{id}/coverage.
func (h *V2Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v2/plans/")
	parts := strings.Split(path, "/")
	if len(parts) < 1 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	if len(parts) > 1 && parts[1] == "coverage" {
		h.handleCoverage(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !h.allowed(r, "plans", "read") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		p, err := h.st.GetPlan(r.Context(), id)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		if p == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, p)

	case http.MethodDelete:
		if !h.allowed(r, "plans", "write") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if err := h.st.DeletePlan(r.Context(), id); err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *V2Handler) handleCoverage(w http.ResponseWriter, r *http.Request, planID string) {
	switch r.Method {
	case http.MethodGet:
		if !h.allowed(r, "plans", "read") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		zips, err := h.st.ListCoverage(r.Context(), planID)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, struct {
			PlanID string   `json:"plan_id"`
			Zips   []string `json:"zips"`
		}{PlanID: planID, Zips: zips})

	case http.MethodPut:
		if !h.allowed(r, "plans", "write") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		var req struct {
			Zips []string `json:"zips"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := h.st.ReplaceCoverage(r.Context(), planID, req.Zips); err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ListLeads exposes captured leads to operators.
func (h *V2Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	leads, err := h.st.ListLeads(r.Context(), 200)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, leads)
}

// ListSources lists the registered import sources and their latest runs.
func (h *V2Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type sourceStatus struct {
		Key     string             `json:"key"`
		Name    string             `json:"name"`
		LastRun *storage.ImportRun `json:"last_run,omitempty"`
	}
	var out []sourceStatus
	for _, key := range sources.List() {
		src, _ := sources.Get(key)
		run, err := h.st.LatestImportRun(r.Context(), key)
		if err != nil {
			log.Printf("latest import run for %s: %v", key, err)
		}
		out = append(out, sourceStatus{Key: key, Name: src.Name(), LastRun: run})
	}
	writeJSON(w, out)
}

// HandleImport serves POST /api/v2/import/{source}/refresh.
func (h *V2Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v2/import/")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[1] != "refresh" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	src, ok := sources.Get(parts[0])
	if !ok {
		http.Error(w, sources.ErrSourceNotFound.Error(), http.StatusNotFound)
		return
	}

	count, err := importer.New(h.st, nil).RunSource(r.Context(), src)
	if err != nil {
		if errors.Is(err, sources.ErrParseFailed) || errors.Is(err, sources.ErrNoListings) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, struct {
		Source    string `json:"source"`
		Status    string `json:"status"`
		PlanCount int    `json:"plan_count"`
	}{Source: src.Key(), Status: "succeeded", PlanCount: count})
}

func getUserID(r *http.Request) string {
	token, ok := r.Context().Value(auth.TokenContextKey).(*storage.Token)
	if !ok {
		return ""
	}
	return token.UserID
}
