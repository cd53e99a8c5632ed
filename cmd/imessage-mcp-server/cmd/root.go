package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/imessage-mcp-server/internal/config"
	"github.com/haasonsaas/imessage-mcp-server/internal/store"
)

var (
	cfgFile string
	dbPath  string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "imessage-mcp-server",
	Short: "Local MCP server over the macOS Messages database",
	Long: `imessage-mcp-server exposes a read-only query layer over the local
iMessage database (~/Library/Messages/chat.db) as MCP tools, plus message
sending and contact lookup through Messages.app and Contacts.app automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr; stdout belongs to the MCP stdio transport.
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level: level,
		}))

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

// openStore resolves the database path from flags and config, flag winning.
func openStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		path = cfg.Store.DatabasePath
	}
	return store.New(path)
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context, enabling
// graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.imessage-mcp/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to chat.db (default ~/Library/Messages/chat.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
