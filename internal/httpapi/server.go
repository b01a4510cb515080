package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kwchan/pricewatch/internal/catalog"
	"github.com/kwchan/pricewatch/internal/engine"
	"github.com/kwchan/pricewatch/internal/httpapi/middleware"
	"github.com/kwchan/pricewatch/internal/store"
)

// Server exposes the latest snapshot to the dashboard and lets it
// trigger a fresh pass.
type Server struct {
	Logger     *zap.Logger
	Catalog    []catalog.SKU
	Snapshots  store.SnapshotStore
	Runner     *engine.Runner
	RefreshRPM int
}

func NewServer(l *zap.Logger, skus []catalog.SKU, st store.SnapshotStore, r *engine.Runner, refreshRPM int) *Server {
	return &Server{Logger: l, Catalog: skus, Snapshots: st, Runner: r, RefreshRPM: refreshRPM}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/snapshot", s.handleSnapshot)
	r.Get("/api/skus", s.handleListSKUs)
	r.With(middleware.RateLimit(s.RefreshRPM, 2)).Post("/api/refresh", s.handleRefresh)

	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Snapshots.Latest(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNoSnapshot) {
			http.Error(w, "no snapshot yet", http.StatusNotFound)
			return
		}
		s.Logger.Warn("snapshot_read_error", zap.Error(err))
		http.Error(w, "snapshot read error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

type skuSummary struct {
	SKU       string            `json:"sku"`
	Platforms []catalog.Listing `json:"platforms"`
}

func (s *Server) handleListSKUs(w http.ResponseWriter, r *http.Request) {
	out := make([]skuSummary, 0, len(s.Catalog))
	for _, sku := range s.Catalog {
		out = append(out, skuSummary{SKU: sku.Name, Platforms: sku.Listings})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

type refreshResponse struct {
	Snapshot *engine.Snapshot `json:"snapshot"`
	Skipped  []skippedSKU     `json:"skipped,omitempty"`
}

type skippedSKU struct {
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}

// handleRefresh runs one pass synchronously. Misconfigured SKUs come
// back in the response instead of fabricated rows.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, errs := s.Runner.Run(r.Context(), s.Catalog)
	if err := s.Snapshots.Save(r.Context(), snap); err != nil {
		s.Logger.Warn("snapshot_save_error", zap.Error(err))
		http.Error(w, "could not save snapshot", http.StatusInternalServerError)
		return
	}

	resp := refreshResponse{Snapshot: snap}
	for _, e := range errs {
		resp.Skipped = append(resp.Skipped, skippedSKU{SKU: e.SKU, Reason: e.Err.Error()})
	}

	s.Logger.Info("refresh_complete",
		zap.Int("rows", len(snap.Rows)),
		zap.Int("skipped", len(errs)),
	)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
