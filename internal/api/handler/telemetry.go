package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kohizeri/smartcollar-api/internal/api/respond"
	"github.com/kohizeri/smartcollar-api/internal/collar"
)

// metricUpdate is the request body for POST /bpm and POST /temperature.
type metricUpdate struct {
	UID   string   `json:"uid"`
	PetID string   `json:"petId"`
	Value *float64 `json:"value"`
}

// locationUpdate is the request body for POST /location.
type locationUpdate struct {
	UID       string   `json:"uid"`
	PetID     string   `json:"petId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// PostBPM evaluates a heart-rate reading against the pet's thresholds.
func (h *Handler) PostBPM(w http.ResponseWriter, r *http.Request) {
	h.postMetric(w, r, collar.MetricBPM)
}

// PostTemperature evaluates a temperature reading against the pet's
// thresholds.
func (h *Handler) PostTemperature(w http.ResponseWriter, r *http.Request) {
	h.postMetric(w, r, collar.MetricTemperature)
}

func (h *Handler) postMetric(w http.ResponseWriter, r *http.Request, metric string) {
	var req metricUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	if req.UID == "" || req.PetID == "" || req.Value == nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "uid, petId and value are required")
		return
	}

	h.evaluator.EvaluateMetric(r.Context(), req.UID, req.PetID, metric, *req.Value)
	respond.WriteJSONObject(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PostLocation evaluates a GPS position against the pet's geofence.
func (h *Handler) PostLocation(w http.ResponseWriter, r *http.Request) {
	var req locationUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	if req.UID == "" || req.PetID == "" || req.Latitude == nil || req.Longitude == nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "uid, petId, latitude and longitude are required")
		return
	}

	h.evaluator.EvaluateLocation(r.Context(), req.UID, req.PetID, *req.Latitude, *req.Longitude)
	respond.WriteJSONObject(w, http.StatusOK, map[string]string{"status": "ok"})
}
