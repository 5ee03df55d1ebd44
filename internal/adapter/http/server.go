package adapthttp

import (
	"context"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"weighttracker/internal/app"
)

// OIDCConfig holds the single-sign-on provider settings. The zero value
// disables SSO.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// NewOIDCConfig discovers the issuer and returns an enabled OIDCConfig.
func NewOIDCConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return OIDCConfig{}, err
	}
	return OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	weight   *app.WeightService
	settings *app.SettingsService
	charts   *app.ChartsService
	authSvc  *app.AuthService
	log      *zap.Logger
	webDir   string

	oidcConfig  OIDCConfig
	disableAuth bool
}

// New creates a Server wired to the given application services.
func New(ws *app.WeightService, ss *app.SettingsService, cs *app.ChartsService, as *app.AuthService, log *zap.Logger, webDir string) *Server {
	return &Server{weight: ws, settings: ss, charts: cs, authSvc: as, log: log, webDir: webDir}
}

// WithOIDC enables single sign-on.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithoutAuth serves every route without a session.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	protected := http.NewServeMux()
	protected.HandleFunc("/weights", s.handleWeights)
	protected.HandleFunc("/weights/{id}", s.handleWeightByID)
	protected.HandleFunc("/weights/undo-last", s.handleWeightUndoLast)
	protected.HandleFunc("/weights/stream", s.handleWeightStream)

	protected.HandleFunc("/settings", s.handleSettings)
	protected.HandleFunc("/settings/{key}", s.handleSettingByKey)
	protected.HandleFunc("/settings/stream", s.handleSettingsStream)

	protected.HandleFunc("/charts/daily", s.handleChartsDaily)
	protected.HandleFunc("/auth/me", s.handleMe)

	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/setup", s.handleSetupUser)
	api.HandleFunc("/auth/config", s.handleConfig)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)
	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}
