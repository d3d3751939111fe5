package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/chasedut/anonchat/internal/server"
)

const shutdownTimeout = 5 * time.Second

func init() {
	serveCmd.Flags().String("addr", ":7070", "Address to listen on")
	serveCmd.Flags().String("data-path", "", "Directory for message storage; messages are kept in memory when empty")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a chat server",
	Long:  "Run a minimal chat server that stores messages and serves the /messages endpoint the client polls.",
	Example: heredoc.Doc(`
		# Keep messages in memory
		anonchat serve

		# Persist messages across restarts
		anonchat serve --addr 127.0.0.1:8080 --data-path ./messages
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		dataPath, _ := cmd.Flags().GetString("data-path")
		debug, _ := cmd.Flags().GetBool("debug")

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

		store, err := openMessageStore(dataPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		logger.Info("Serving messages", "addr", ln.Addr().String(), "persistent", dataPath != "")
		return runServer(cmd.Context(), ln, store, logger)
	},
}

func openMessageStore(dataPath string) (server.Store, error) {
	if dataPath == "" {
		return server.NewMemoryStore(), nil
	}
	return server.OpenPebbleStore(dataPath)
}

// runServer serves on ln until ctx is done, then shuts down gracefully.
func runServer(ctx context.Context, ln net.Listener, store server.Store, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           server.NewHandler(store, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
