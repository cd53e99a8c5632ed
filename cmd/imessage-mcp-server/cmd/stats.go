package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/imessage-mcp-server/internal/query"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate message store counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return fmt.Errorf("locate message store: %w", err)
		}

		repo := query.NewSQLiteRepository(s)
		stats, err := repo.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}

		fmt.Printf("Messages: %d\n", stats.TotalMessages)
		fmt.Printf("Chats:    %d\n", stats.TotalChats)
		fmt.Printf("Handles:  %d\n", stats.TotalHandles)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
