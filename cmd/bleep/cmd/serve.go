package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/kevintanjc/bleep/api"
	"github.com/kevintanjc/bleep/auth"
	"github.com/kevintanjc/bleep/gate"
	"github.com/kevintanjc/bleep/web"
)

var (
	serveAddr string
	tlsCert   string
	tlsKey    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the unlock UI, the session API and the gated originals",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Addr = serveAddr
		}
		if (tlsCert == "") != (tlsKey == "") {
			return errors.New("--tls-cert and --tls-key must be given together")
		}

		// PIN entry happens in the browser, which polls /api/v1/pin/challenge.
		prompter := auth.PinPrompterFunc(func(e auth.PinEntry) {
			slog.Info("PIN requested, waiting for the browser", slog.String("challenge", e.ID()))
		})
		a, err := openApp(cmd.Context(), cfg, prompter)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.manager.Restore(cmd.Context()) {
			slog.Info("restored unlocked session")
		}

		handler, sessionAPI, err := newServeHandler(a)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			sessionAPI.Close(ctx)
		}()

		server := &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// Unlock and watch responses stay open for as long as the user takes.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		}
		if tlsCert != "" {
			cert, err := tls.LoadX509KeyPair(tlsCert, tlsKey)
			if err != nil {
				return fmt.Errorf("failed to load TLS key pair: %w", err)
			}
			server.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			}
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			var err error
			if server.TLSConfig != nil {
				err = server.ListenAndServeTLS("", "")
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		out := cmd.OutOrStdout()
		printBanner(out)
		fmt.Fprintf(out, "Listening on %s (data: %s, backend: %s)...\n", cfg.Addr, cfg.DataDir, cfg.Backend)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
			// Release requests parked on a PIN challenge before draining.
			a.manager.Lock(context.Background())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func newServeHandler(a *app) (http.Handler, *api.API, error) {
	g := gate.New(a.manager, gate.WithReason(a.cfg.Reason), gate.WithUnlockPath("/unlock"))
	sessionAPI := api.New(a.manager,
		api.WithAuditRepository(a.repo, a.cfg.AuditMaxEntries),
		api.WithAuditWebhook(a.cfg.AuditWebhookURL, a.cfg.AuditWebhookHeader),
		api.WithAlertFunc(func(ev api.AlertEvent) {
			slog.Warn("security alert",
				slog.String("type", string(ev.Type)),
				slog.String("message", ev.Message),
				slog.Int("count", ev.Count),
			)
		}),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.SecurityHeaders)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Mount("/api/v1", sessionAPI.Router())
	r.Handle("/unlock", api.CSRFMiddleware(g.UnlockHandler()))

	if dir := a.cfg.OriginalsDir; dir != "" {
		r.With(g.Middleware).Handle("/originals/*",
			http.StripPrefix("/originals", http.FileServer(http.Dir(dir))))
	}
	if dir := a.cfg.RedactedDir; dir != "" {
		r.Handle("/redacted/*", http.StripPrefix("/redacted", http.FileServer(http.Dir(dir))))
	}

	webHandler, err := web.Handler()
	if err != nil {
		sessionAPI.Close(context.Background())
		return nil, nil, err
	}
	r.Handle("/*", webHandler)
	return r, sessionAPI, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default $BLEEP_ADDR)")
	serveCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	serveCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
}
