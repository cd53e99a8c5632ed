package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check access to the iMessage database",
	Long: `Verify that the iMessage database exists, is readable, and opens as a
SQLite database. Prints a remediation hint when any step fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return fmt.Errorf("locate message store: %w", err)
		}

		result := s.CheckAccess()
		if result.Accessible {
			fmt.Printf("OK: %s is readable\n", s.Path())
			return nil
		}
		fmt.Printf("NOT ACCESSIBLE: %s\n", result.Error)
		return fmt.Errorf("message store is not accessible")
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
