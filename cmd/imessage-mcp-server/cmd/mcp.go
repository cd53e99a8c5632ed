package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/imessage-mcp-server/internal/automation"
	mcpserver "github.com/haasonsaas/imessage-mcp-server/internal/mcp"
	"github.com/haasonsaas/imessage-mcp-server/internal/query"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server over stdio",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

This lets Claude Desktop (or any MCP client) read your iMessages with tools
like get_recent_messages, get_conversation, search_messages, and list_chats,
and send messages through Messages.app.

Add to Claude Desktop config:
  {
    "mcpServers": {
      "imessage": {
        "command": "imessage-mcp-server",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return fmt.Errorf("locate message store: %w", err)
		}

		if result := s.CheckAccess(); !result.Accessible {
			logger.Warn("message store not accessible; query tools will fail until fixed",
				"error", result.Error)
		}

		logger.Info("starting MCP server", "db", s.Path())
		return mcpserver.Serve(cmd.Context(), mcpserver.Options{
			Repository:  query.NewSQLiteRepository(s),
			Store:       s,
			Messenger:   automation.NewMessenger(),
			Contacts:    automation.NewContactsClient(),
			MaxLimit:    cfg.Query.MaxMessageLimit,
			SendEnabled: cfg.Automation.SendEnabled,
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
