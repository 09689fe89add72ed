package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/log"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/metrics"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/urgency"
)

// Store is the persistence the API reads and writes. Every vehicle lookup
// is scoped to the caller's fleet.
type Store interface {
	Ping(ctx context.Context) error
	ListVehicles(ctx context.Context, fleetID string) ([]domain.Vehicle, error)
	GetVehicle(ctx context.Context, fleetID, vehicleID string) (domain.Vehicle, error)
	CreateVehicle(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
	ListMaintenance(ctx context.Context, vehicleID string) ([]domain.MaintenanceRecord, error)
	ListUpcoming(ctx context.Context, vehicleID string) ([]domain.MaintenanceRecord, error)
	UpcomingByFleet(ctx context.Context, fleetID string) (map[string][]domain.MaintenanceRecord, error)
	CreateMaintenance(ctx context.Context, r domain.MaintenanceRecord) (domain.MaintenanceRecord, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type ReadingDispatcher interface {
	Dispatch(reading *domain.OdometerReading)
}

type Deps struct {
	Store      Store
	Redis      Pinger
	Engine     *urgency.Engine
	Dispatcher ReadingDispatcher
	Auth       FleetResolver
	Feed       AlertFeed
	Now        func() time.Time
}

type handlers struct {
	store      Store
	redis      Pinger
	engine     *urgency.Engine
	dispatcher ReadingDispatcher
	feed       AlertFeed
	now        func() time.Time
	logger     log.Logger
}

// NewRouter builds the API. /health and /metrics are public; everything
// else requires an API key.
func NewRouter(d Deps) http.Handler {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	h := &handlers{
		store:      d.Store,
		redis:      d.Redis,
		engine:     d.Engine,
		dispatcher: d.Dispatcher,
		feed:       d.Feed,
		now:        now,
		logger:     log.WithName("http"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(NewAuthMiddleware(d.Auth).Wrap)
	api.HandleFunc("/vehicles", h.listVehicles).Methods(http.MethodGet)
	api.HandleFunc("/vehicles", h.createVehicle).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}/maintenance", h.listMaintenance).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}/maintenance", h.createMaintenance).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}/upcoming", h.upcoming).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}/alerts", h.vehicleAlerts).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}/odometer", h.recordOdometer).Methods(http.MethodPost)
	api.HandleFunc("/alerts", h.fleetAlerts).Methods(http.MethodGet)
	api.HandleFunc("/badge", h.badge).Methods(http.MethodGet)

	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(NewAuthMiddleware(d.Auth).Wrap)
	ws.HandleFunc("/alerts", h.streamAlerts).Methods(http.MethodGet)

	return r
}

type Server struct {
	server *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
