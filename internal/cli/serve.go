package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"locamark/internal/middleware"
	"locamark/internal/routes"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), s)
		},
	}

	cmd.Flags().StringVar(&s.cfg.Addr, "addr", s.cfg.Addr, "Listen address")

	return cmd
}

func serve(ctx context.Context, s *session) error {
	cfg := *s.cfg

	a, err := openApp(cfg)
	if err != nil {
		log.Printf("❌ %v", err)
		return err
	}
	defer a.Close()

	auth := middleware.NewAuth(cfg.JWTSecret, cfg.AuthPassphraseHash)
	if !auth.Enabled() {
		logrus.Warn("AUTH_PASSPHRASE_HASH is not set, the API is open to anyone who can reach it")
	}

	router := routes.SetupRouter(routes.Dependencies{
		Service:    a.svc,
		Tracker:    a.tracker,
		Auth:       auth,
		RequestLog: s.logs,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.EnableCORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server running at %s", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
