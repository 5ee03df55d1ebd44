package adapthttp

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"weighttracker/internal/domain"
)

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	settings, err := s.settings.Settings(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSettingByKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var body struct {
		Value string `json:"value"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	key := domain.PreferenceKey(r.PathValue("key"))
	var err error
	switch key {
	case domain.PreferenceTheme:
		t, ok := domain.LookupTheme(body.Value)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown theme %q", body.Value))
			return
		}
		err = s.settings.SetTheme(r.Context(), t)
	case domain.PreferenceLanguage:
		l, ok := domain.LookupLanguage(body.Value)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown language %q", body.Value))
			return
		}
		err = s.settings.SetLanguage(r.Context(), l)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown setting %q", key))
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "key": key, "value": body.Value})
}

// handleSettingsStream sends a "settings" event with both preferences
// whenever either one changes.
func (s *Server) handleSettingsStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ctx := r.Context()
	themes, err := s.settings.ObserveTheme(ctx)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	languages, err := s.settings.ObserveLanguage(ctx)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	stream, err := startEventStream(w)
	if err != nil {
		s.logger().Warn("settings stream", zap.Error(err))
		return
	}

	theme, ok := <-themes
	if !ok {
		return
	}
	language, ok := <-languages
	if !ok {
		return
	}
	cur := domain.Settings{Theme: theme, Language: language}
	if err := stream.send("settings", cur); err != nil {
		return
	}
	for {
		select {
		case t, ok := <-themes:
			if !ok {
				return
			}
			cur.Theme = t
		case l, ok := <-languages:
			if !ok {
				return
			}
			cur.Language = l
		}
		if err := stream.send("settings", cur); err != nil {
			return
		}
	}
}
