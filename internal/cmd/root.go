package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/chasedut/anonchat/internal/api/messages"
	"github.com/chasedut/anonchat/internal/config"
	"github.com/chasedut/anonchat/internal/db"
	"github.com/chasedut/anonchat/internal/env"
	"github.com/chasedut/anonchat/internal/identity"
	"github.com/chasedut/anonchat/internal/log"
	"github.com/chasedut/anonchat/internal/tui"
	"github.com/chasedut/anonchat/internal/tui/page/chat"
	"github.com/chasedut/anonchat/internal/version"
)

type terminalSize struct {
	Width  int
	Height int
}

func termSize() terminalSize {
	if w, h, err := term.GetSize(os.Stdout.Fd()); err == nil {
		return terminalSize{Width: max(w, 80), Height: max(h, 24)}
	}
	slog.Warn("Failed to get terminal size, using defaults")
	return terminalSize{Width: 80, Height: 24}
}

func init() {
	rootCmd.PersistentFlags().StringP("data-dir", "D", "", "Directory for the identity database, config and logs")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().StringP("server", "s", "", "Chat server base URL")
	rootCmd.Flags().Duration("interval", 0, "How often to poll for messages")

	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(serveCmd)
}

var rootCmd = &cobra.Command{
	Use:   "anonchat",
	Short: "Anonymous group chat in your terminal",
	Long: `anonchat is a terminal client for a shared anonymous chat room.
You get a random identity on first run, messages are polled from the
server and every other participant shows up in their own colour.`,
	Example: heredoc.Doc(`
		# Join the room on the default server
		anonchat

		# Join a room on another server, polling twice a second
		anonchat -s https://chat.example.com --interval 500ms

		# Keep identity and logs somewhere else
		anonchat -D /tmp/anonchat

		# Print your identity
		anonchat whoami

		# Run a local server to chat against
		anonchat serve --addr :7070
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log.Setup(cfg.LogFile(), cfg.Options.Debug)
		defer log.RecoverPanic("main", nil)

		store, closeStore := openIdentityStore(ctx, cfg)
		defer closeStore()

		// Validate has already checked both.
		pal, _ := cfg.Palette()
		reconcile, _ := cfg.Reconciler()

		page := chat.New(ctx, chat.Options{
			Identity:   identity.Resolve(ctx, store),
			Client:     messages.NewClient(cfg.Options.ServerURL),
			Palette:    pal,
			Interval:   cfg.PollInterval(),
			Reconciler: reconcile,
		})
		slog.Info("Starting chat", "server", cfg.Options.ServerURL, "identity", page.Identity())

		size := termSize()
		program := tea.NewProgram(
			tui.NewWithSize(page, size.Width, size.Height),
			tea.WithAltScreen(),
			tea.WithContext(ctx),
			tea.WithMouseCellMotion(),
			tea.WithFilter(tui.MouseEventFilter),
			tea.WithWindowSize(size.Width, size.Height),
		)

		_, err = program.Run()
		page.Close()
		if err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := env.LoadDotEnv(); err != nil {
		// .env is optional
		slog.Warn("Failed to load .env file", "error", err)
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies the flags that were set
// on cmd on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	dataDir, _ := flags.GetString("data-dir")

	cfg, err := config.Load(dataDir, env.New())
	if err != nil {
		return nil, err
	}

	if flags.Changed("debug") {
		cfg.Options.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("server") {
		cfg.Options.ServerURL, _ = flags.GetString("server")
	}
	if flags.Changed("interval") {
		interval, _ := flags.GetDuration("interval")
		cfg.Options.PollIntervalMS = int(interval / time.Millisecond)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openIdentityStore opens the settings database in the data directory. When
// that fails the identity only lives as long as the process.
func openIdentityStore(ctx context.Context, cfg *config.Config) (identity.Store, func()) {
	conn, err := db.Connect(ctx, cfg.Options.DataDirectory)
	if err != nil {
		slog.Warn("Identity will not persist", "error", err)
		return identity.NewMemoryStore(), func() {}
	}
	return identity.NewSettingsStore(db.New(conn)), func() {
		if err := conn.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}
}
