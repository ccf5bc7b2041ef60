package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wattfinder/wattfinder/internal/auth"
	"github.com/wattfinder/wattfinder/internal/climate"
	"github.com/wattfinder/wattfinder/internal/config"
	"github.com/wattfinder/wattfinder/internal/importer"
	"github.com/wattfinder/wattfinder/internal/metrics"
	migrate "github.com/wattfinder/wattfinder/internal/migrate"
	"github.com/wattfinder/wattfinder/internal/notification"
	"github.com/wattfinder/wattfinder/internal/plans"
	"github.com/wattfinder/wattfinder/internal/storage"
	"github.com/wattfinder/wattfinder/internal/ui"
	"github.com/wattfinder/wattfinder/internal/usage"

	"github.com/wattfinder/wattfinder/internal/api/swagger"
)

// NewMux constructs the HTTP mux: the public comparison API, the
// authenticated admin API, metrics, health endpoints, docs, and the UI.
func NewMux(ctx context.Context, cfg config.Config) (*http.ServeMux, error) {
	// Optional auto-migration: run `goose up` on startup when enabled.
	autoMig := strings.ToLower(os.Getenv("WATTFINDER_AUTO_MIGRATE"))
	if autoMig == "1" || autoMig == "true" || autoMig == "yes" {
		if err := migrate.Up(ctx, cfg.StorageDriver, cfg.StorageDSN); err != nil {
			log.Printf("auto-migration failed: %v", err)
		}
	}

	st, err := storage.Open(ctx, storage.Config{
		Driver:    cfg.StorageDriver,
		DSN:       cfg.StorageDSN,
		Providers: importer.ProviderSeed(),
	})
	if err != nil {
		return nil, err
	}
	log.Printf("storage backend ready, driver=%s", cfg.StorageDriver)

	planSvc := plans.NewService(st)
	notifSvc := notification.NewService(st)

	authSvc, err := auth.NewService(st)
	if err != nil {
		return nil, err
	}
	if cfg.AdminPassword != "" {
		if _, err := authSvc.Register(ctx, cfg.AdminUsername, cfg.AdminPassword, "admin"); err != nil {
			log.Printf("admin bootstrap: %v", err)
		}
	}

	mux := http.NewServeMux()

	// Metrics endpoint.
	mux.Handle("/metrics", promhttp.Handler())

	// Health / readiness / liveness.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			log.Printf("readyz: db ping failed: %v", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	// Public comparison API.
	mux.HandleFunc("/api/zones", instrument("/api/zones", handleZones))
	mux.HandleFunc("/api/estimate", instrument("/api/estimate", handleEstimate))
	mux.HandleFunc("/api/plans", instrument("/api/plans", handlePlans(planSvc)))
	mux.HandleFunc("/api/compare", instrument("/api/compare", handleCompare(planSvc)))
	mux.HandleFunc("/api/leads", instrument("/api/leads", handleLeads(st, notifSvc)))
	mux.HandleFunc("/providers", instrument("/providers", handleProviders(st)))

	// Authenticated admin API and email settings.
	RegisterV2Routes(mux, planSvc, st, authSvc)
	registerNotificationRoutes(mux, authSvc, notifSvc)

	// API docs.
	mux.Handle("/swagger/", http.StripPrefix("/swagger", swagger.Handler()))

	// Web UI
	mux.Handle("/ui/", http.StripPrefix("/ui/", ui.Handler()))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	return mux, nil
}

// instrument wraps a handler with the request counter, duration histogram,
// and error counter under a fixed path label.
func instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(path).Inc()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)

		metrics.RequestDurationSeconds.WithLabelValues(path).Observe(time.Since(start).Seconds())
		if sw.status >= 400 {
			metrics.RequestErrorsTotal.WithLabelValues(path, strconv.Itoa(sw.status)).Inc()
		}
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response failed: %v", err)
	}
}

func handleZones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, struct {
		Zones []climate.Zone `json:"zones"`
	}{Zones: climate.Zones()})
}

// EstimateResponse carries the usage estimate plus the tier it maps to.
type EstimateResponse struct {
	Estimate *usage.Estimate `json:"estimate"`
	Tier     plans.Tier      `json:"tier"`
}

func handleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var profile usage.HouseholdProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	est, err := usage.EstimateUsage(profile)
	if err != nil {
		if errors.Is(err, usage.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	metrics.EstimatesTotal.WithLabelValues(string(est.Zone.ID)).Inc()
	writeJSON(w, EstimateResponse{Estimate: est, Tier: plans.NearestTier(est.TotalUsage)})
}

// PlansResponse is the ranked plan list for a ZIP at a tier.
type PlansResponse struct {
	Zip   string             `json:"zip"`
	Tier  plans.Tier         `json:"tier"`
	Plans []plans.PlanRecord `json:"plans"`
}

func handlePlans(svc *plans.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		zip := r.URL.Query().Get("zip")
		if zip == "" {
			http.Error(w, "zip parameter is required", http.StatusBadRequest)
			return
		}

		tier := plans.Tier1000
		if raw := r.URL.Query().Get("tier"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "tier must be an integer", http.StatusBadRequest)
				return
			}
			tier = plans.Tier(v)
		}

		ranked, err := svc.Compare(r.Context(), zip, tier)
		if err != nil {
			switch {
			case errors.Is(err, plans.ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, plans.ErrNoPlans):
				http.Error(w, err.Error(), http.StatusNotFound)
			default:
				log.Printf("compare plans for %s failed: %v", zip, err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, PlansResponse{Zip: zip, Tier: tier, Plans: ranked})
	}
}

// CompareResponse bundles an estimate with the plans ranked at its tier.
type CompareResponse struct {
	Estimate *usage.Estimate    `json:"estimate"`
	Tier     plans.Tier         `json:"tier"`
	Plans    []plans.PlanRecord `json:"plans"`
}

func handleCompare(svc *plans.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var profile usage.HouseholdProfile
		if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		est, tier, ranked, err := svc.CompareForProfile(r.Context(), profile)
		if err != nil {
			switch {
			case errors.Is(err, usage.ErrInvalidInput), errors.Is(err, plans.ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, plans.ErrNoPlans):
				http.Error(w, err.Error(), http.StatusNotFound)
			default:
				log.Printf("compare for profile failed: %v", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		metrics.EstimatesTotal.WithLabelValues(string(est.Zone.ID)).Inc()
		writeJSON(w, CompareResponse{Estimate: est, Tier: tier, Plans: ranked})
	}
}

// LeadRequest is the lead capture payload.
type LeadRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	SelectedPlanID string `json:"selected_plan_id"`

	usage.HouseholdProfile
}

func handleLeads(st storage.Storage, notifSvc *notification.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LeadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" || req.Email == "" {
			http.Error(w, "name and email are required", http.StatusBadRequest)
			return
		}

		est, err := usage.EstimateUsage(req.HouseholdProfile)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		lead := storage.Lead{
			ID:             uuid.New().String(),
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			ZipCode:        req.ZipCode,
			BedroomCount:   req.BedroomCount,
			SquareFootage:  req.SquareFootage,
			HasEV:          req.HasElectricVehicle,
			HasSolar:       req.HasSolarPanels,
			EstimatedUsage: est.TotalUsage,
			SelectedPlanID: req.SelectedPlanID,
			CreatedAt:      time.Now(),
		}
		if err := st.CreateLead(r.Context(), lead); err != nil {
			log.Printf("create lead failed: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		metrics.LeadsTotal.Inc()

		planName := ""
		if req.SelectedPlanID != "" {
			if p, err := st.GetPlan(r.Context(), req.SelectedPlanID); err == nil && p != nil {
				planName = p.Name
			}
		}
		if err := notifSvc.NotifyNewLead(r.Context(), lead, planName); err != nil && !errors.Is(err, notification.ErrNotConfigured) {
			log.Printf("lead notification failed: %v", err)
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, lead)
	}
}

func handleProviders(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		list, err := st.ListProviders(r.Context())
		if err != nil {
			log.Printf("list providers failed: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, struct {
			Providers []storage.ProviderInfo `json:"providers"`
		}{Providers: list})
	}
}
