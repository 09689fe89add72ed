package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/store"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/urgency"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *handlers) storeError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	h.logger.Error(err, msg)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// preset reads ?preset=, falling back to def.
func (h *handlers) preset(r *http.Request, def urgency.Preset) (urgency.Thresholds, bool) {
	p := urgency.Preset(r.URL.Query().Get("preset"))
	if p == "" {
		p = def
	}
	return h.engine.Thresholds(p)
}

// vehicle loads the {id} vehicle of the caller's fleet and writes the error
// response itself when it cannot.
func (h *handlers) vehicle(w http.ResponseWriter, r *http.Request) (domain.Vehicle, bool) {
	v, err := h.store.GetVehicle(r.Context(), FleetFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		h.storeError(w, err, "get vehicle failed")
		return domain.Vehicle{}, false
	}
	return v, true
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"postgres": "ok"}
	status := http.StatusOK

	if err := h.store.Ping(r.Context()); err != nil {
		checks["postgres"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(r.Context()); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "unavailable"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}

func (h *handlers) listVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.store.ListVehicles(r.Context(), FleetFromContext(r.Context()))
	if err != nil {
		h.storeError(w, err, "list vehicles failed")
		return
	}
	if vehicles == nil {
		vehicles = []domain.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vehicles)
}

type createVehicleRequest struct {
	Name      string `json:"name"`
	CurrentKm *int   `json:"current_km"`
}

func (h *handlers) createVehicle(w http.ResponseWriter, r *http.Request) {
	var req createVehicleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.CurrentKm != nil && *req.CurrentKm < 0 {
		writeError(w, http.StatusBadRequest, "current_km must be non-negative")
		return
	}

	v, err := h.store.CreateVehicle(r.Context(), domain.Vehicle{
		FleetID:   FleetFromContext(r.Context()),
		Name:      req.Name,
		CurrentKm: req.CurrentKm,
	})
	if err != nil {
		h.storeError(w, err, "create vehicle failed")
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *handlers) listMaintenance(w http.ResponseWriter, r *http.Request) {
	v, ok := h.vehicle(w, r)
	if !ok {
		return
	}
	records, err := h.store.ListMaintenance(r.Context(), v.ID)
	if err != nil {
		h.storeError(w, err, "list maintenance failed")
		return
	}
	if records == nil {
		records = []domain.MaintenanceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type createMaintenanceRequest struct {
	Type            string   `json:"type"`
	Date            string   `json:"date"`
	Km              *int     `json:"km"`
	NextServiceKm   *int     `json:"next_service_km"`
	NextServiceDate string   `json:"next_service_date"`
	Cost            *float64 `json:"cost"`
	Notes           string   `json:"notes"`
}

func (h *handlers) createMaintenance(w http.ResponseWriter, r *http.Request) {
	v, ok := h.vehicle(w, r)
	if !ok {
		return
	}

	var req createMaintenanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	if req.Date == "" {
		req.Date = h.engine.Today().String()
	}
	// An unparseable next_service_date is stored as given; the engine
	// treats it as absent.

	record, err := h.store.CreateMaintenance(r.Context(), domain.MaintenanceRecord{
		VehicleID:       v.ID,
		Type:            req.Type,
		Date:            req.Date,
		Km:              req.Km,
		NextServiceKm:   req.NextServiceKm,
		NextServiceDate: strings.TrimSpace(req.NextServiceDate),
		Cost:            req.Cost,
		Notes:           req.Notes,
	})
	if err != nil {
		h.storeError(w, err, "create maintenance failed")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// UpcomingItem is one ranked record with its display classification.
type UpcomingItem struct {
	domain.MaintenanceRecord
	Urgency   domain.UrgencyClassification `json:"urgency"`
	KmLabel   string                       `json:"km_label,omitempty"`
	DaysLabel string                       `json:"days_label,omitempty"`
}

func (h *handlers) upcoming(w http.ResponseWriter, r *http.Request) {
	v, ok := h.vehicle(w, r)
	if !ok {
		return
	}
	t, ok := h.preset(r, urgency.PresetDisplay)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown preset")
		return
	}
	records, err := h.store.ListUpcoming(r.Context(), v.ID)
	if err != nil {
		h.storeError(w, err, "list upcoming failed")
		return
	}

	ranked := h.engine.RankByUrgency(records, v.CurrentKm)
	items := make([]UpcomingItem, 0, len(ranked))
	for _, rec := range ranked {
		c := h.engine.Classify(t, v.CurrentKm, rec.NextServiceKm, rec.NextServiceDate)
		items = append(items, UpcomingItem{
			MaintenanceRecord: rec,
			Urgency:           c,
			KmLabel:           urgency.FormatKmRemaining(c.KmRemaining),
			DaysLabel:         urgency.FormatDaysRemaining(c.DaysRemaining),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handlers) vehicleAlerts(w http.ResponseWriter, r *http.Request) {
	v, ok := h.vehicle(w, r)
	if !ok {
		return
	}
	t, ok := h.preset(r, urgency.PresetBadge)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown preset")
		return
	}
	records, err := h.store.ListUpcoming(r.Context(), v.ID)
	if err != nil {
		h.storeError(w, err, "list upcoming failed")
		return
	}
	summary := h.engine.Summarize(t, []domain.Vehicle{v}, map[string][]domain.MaintenanceRecord{v.ID: records})
	writeJSON(w, http.StatusOK, summary)
}

func (h *handlers) fleetSummary(r *http.Request, t urgency.Thresholds) (domain.AlertSummary, error) {
	fleetID := FleetFromContext(r.Context())
	vehicles, err := h.store.ListVehicles(r.Context(), fleetID)
	if err != nil {
		return domain.AlertSummary{}, err
	}
	upcoming, err := h.store.UpcomingByFleet(r.Context(), fleetID)
	if err != nil {
		return domain.AlertSummary{}, err
	}
	return h.engine.Summarize(t, vehicles, upcoming), nil
}

func (h *handlers) fleetAlerts(w http.ResponseWriter, r *http.Request) {
	t, ok := h.preset(r, urgency.PresetBadge)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown preset")
		return
	}
	summary, err := h.fleetSummary(r, t)
	if err != nil {
		h.storeError(w, err, "fleet summary failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type badgeResponse struct {
	Count   int `json:"count"`
	Overdue int `json:"overdue"`
	Urgent  int `json:"urgent"`
}

func (h *handlers) badge(w http.ResponseWriter, r *http.Request) {
	summary, err := h.fleetSummary(r, h.engine.Badge())
	if err != nil {
		h.storeError(w, err, "badge summary failed")
		return
	}
	writeJSON(w, http.StatusOK, badgeResponse{
		Count:   summary.BadgeCount(),
		Overdue: summary.TotalOverdue,
		Urgent:  summary.TotalUrgent,
	})
}

type odometerRequest struct {
	Km         *int       `json:"km"`
	RecordedAt *time.Time `json:"recorded_at"`
}

func (h *handlers) recordOdometer(w http.ResponseWriter, r *http.Request) {
	var req odometerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Km == nil || *req.Km < 0 {
		writeError(w, http.StatusBadRequest, "km must be a non-negative integer")
		return
	}

	v, ok := h.vehicle(w, r)
	if !ok {
		return
	}

	now := h.now()
	reading := &domain.OdometerReading{
		ReceivedAt: now,
		RecordedAt: now,
		VehicleID:  v.ID,
		FleetID:    v.FleetID,
		Km:         *req.Km,
	}
	if req.RecordedAt != nil {
		reading.RecordedAt = *req.RecordedAt
	}

	h.dispatcher.Dispatch(reading)
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "vehicle_id": v.ID, "km": reading.Km})
}
