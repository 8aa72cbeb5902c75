package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"travel-wallet/internal/models"

	"github.com/go-kit/log/level"
)

// TripsResponse lists a user's trips.
type TripsResponse struct {
	Trips []models.Trip `json:"trips"`
}

// StatisticsResponse is a trip with its recent expenses and totals.
type StatisticsResponse struct {
	Trip     *models.Trip       `json:"trip"`
	Expenses []models.Expense   `json:"expenses"`
	Summary  models.TripSummary `json:"summary"`
}

// ListTrips returns every trip of the user in the path, most recent first.
func (h *Handlers) ListTrips(w http.ResponseWriter, r *http.Request) {
	user := models.UserID(r.PathValue("id"))

	trips, err := h.trips.Trips(r.Context(), user)
	if err != nil {
		level.Error(h.logger).Log("msg", "listing trips failed", "user", user, "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if trips == nil {
		trips = []models.Trip{}
	}
	writeJSON(w, http.StatusOK, TripsResponse{Trips: trips})
}

// Statistics returns the newest expenses of a trip and its totals. The
// optional limit query parameter overrides the configured history size.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	user := models.UserID(r.PathValue("id"))
	tripID, err := strconv.ParseInt(r.PathValue("trip"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "trip not found")
		return
	}

	limit := h.historyLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 {
			limit = l
		}
	}

	trip, err := h.trips.Trip(r.Context(), tripID)
	if errors.Is(err, models.ErrTripNotFound) || (err == nil && trip.UserID != user) {
		h.writeError(w, http.StatusNotFound, "trip not found")
		return
	}
	if err != nil {
		level.Error(h.logger).Log("msg", "loading trip failed", "trip", tripID, "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	expenses, err := h.trips.Expenses(r.Context(), tripID, limit)
	if err != nil {
		level.Error(h.logger).Log("msg", "listing expenses failed", "trip", tripID, "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	summary, err := h.trips.Summary(r.Context(), tripID)
	if err != nil {
		level.Error(h.logger).Log("msg", "summarizing trip failed", "trip", tripID, "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}

	writeJSON(w, http.StatusOK, StatisticsResponse{Trip: trip, Expenses: expenses, Summary: summary})
}
