package adapthttp

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"weighttracker/internal/domain"
)

func (s *Server) handleWeights(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listWeights(w, r)
	case http.MethodPost:
		s.appendWeight(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) listWeights(w http.ResponseWriter, r *http.Request) {
	unit, err := unitQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	points, err := s.weight.History(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	points = domain.ConvertTrend(points, unit)

	var latest *domain.WeightRecord
	if len(points) > 0 {
		latest = &points[0].WeightRecord
	}
	writeJSON(w, http.StatusOK, map[string]any{"unit": unit, "items": points, "latest": latest})
}

func (s *Server) appendWeight(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value      float64 `json:"value"`
		Unit       string  `json:"unit"`
		RecordedAt *int64  `json:"recordedAt"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Unit == "" {
		body.Unit = domain.UnitKg
	}
	if !domain.ValidUnit(body.Unit) {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidUnit)
		return
	}

	var recordedAt time.Time
	if body.RecordedAt != nil {
		recordedAt = time.UnixMilli(*body.RecordedAt)
	}
	kg := domain.ConvertWeight(body.Value, body.Unit, domain.UnitKg)

	rec, err := s.weight.Append(r.Context(), kg, recordedAt)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleWeightByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid id"))
		return
	}
	if err := s.weight.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (s *Server) handleWeightUndoLast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	entry, err := s.weight.UndoLast(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": entry != nil, "entry": entry})
}

// handleWeightStream sends a "snapshot" event with the full trend history
// after every change until the client disconnects.
func (s *Server) handleWeightStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	unit, err := unitQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snapshots, err := s.weight.ObserveTrend(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	stream, err := startEventStream(w)
	if err != nil {
		s.logger().Warn("weight stream", zap.Error(err))
		return
	}
	for points := range snapshots {
		if err := stream.send("snapshot", domain.ConvertTrend(points, unit)); err != nil {
			return
		}
	}
}
