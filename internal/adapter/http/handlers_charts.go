package adapthttp

import (
	"net/http"
	"time"

	"weighttracker/internal/app"
)

func (s *Server) handleChartsDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	days := intQuery(r, "days", 90)
	if days > app.MaxChartDays {
		days = app.MaxChartDays
	}
	unit, err := unitQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	points, err := s.charts.GetDaily(r.Context(), days, unit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days":  days,
		"unit":  unit,
		"today": app.LocalDay(time.Now()),
		"items": points,
	})
}
