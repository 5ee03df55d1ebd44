package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	adapthttp "weighttracker/internal/adapter/http"
	"weighttracker/internal/app"
	"weighttracker/internal/config"
)

const (
	sessionSweepInterval = time.Hour
	shutdownTimeout      = 10 * time.Second
)

func newServeCmd(c *cli, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().String("web-dir", "", "directory of static web assets")
	_ = v.BindPFlag(config.KeyAddr, cmd.Flags().Lookup("addr"))
	_ = v.BindPFlag(config.KeyWebDir, cmd.Flags().Lookup("web-dir"))
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	return c.withServices(func(svc *services) error {
		srv := adapthttp.New(svc.weight, svc.settings, svc.charts, svc.auth, c.log.Named("http"), c.cfg.WebDir)
		if !c.cfg.Auth.Enabled {
			c.log.Warn("authentication disabled")
			srv.WithoutAuth()
		}
		if c.cfg.OIDC.Enabled() {
			oc, err := adapthttp.NewOIDCConfig(ctx, c.cfg.OIDC.Issuer, c.cfg.OIDC.ClientID, c.cfg.OIDC.ClientSecret, c.cfg.OIDC.RedirectURL)
			if err != nil {
				return sysError{fmt.Errorf("oidc discovery: %w", err)}
			}
			srv.WithOIDC(oc)
		}

		httpServer := &http.Server{
			Addr:              c.cfg.Addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			c.log.Info("listening", zap.String("addr", c.cfg.Addr), zap.String("storage", c.cfg.Storage.Driver))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return sysError{err}
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			// Live streams hold connections open until their observers end.
			svc.Close()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
		g.Go(func() error {
			sweepSessions(gctx, svc.auth, c.log)
			return nil
		})

		err := g.Wait()
		c.log.Info("server stopped")
		return err
	})
}

// sweepSessions purges expired sessions every sessionSweepInterval until ctx
// is done.
func sweepSessions(ctx context.Context, auth *app.AuthService, log *zap.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.PurgeExpiredSessions(ctx)
			if err != nil {
				log.Warn("purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}
