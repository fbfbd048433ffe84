package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/killallgit/loom/pkg/config"
	"github.com/killallgit/loom/pkg/logger"
	"github.com/killallgit/loom/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session server",
	Long: `Starts the HTTP session server. Clients POST turns to /api/turn and
receive the turn's events as a server-sent event stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		log := logger.WithComponent("serve")

		executor, store, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		manager := session.NewManager(executor, store)
		server := &http.Server{
			Addr:    cfg.Server.Listen,
			Handler: session.NewServer(manager).Handler(),
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("listening on %s", cfg.Server.Listen)
			fmt.Printf("loom listening on %s\n", cfg.Server.Listen)
			errCh <- server.ListenAndServe()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case sig := <-stop:
			log.Info("received %v, shutting down", sig)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
