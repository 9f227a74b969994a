package handlers

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// NewFeedsCmd creates the feeds command which lists configured feeds
func NewFeedsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feeds",
		Short: "List the configured arXiv feeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			nameStyle := lipgloss.NewStyle().Bold(true).Width(14)
			kindStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(9)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d configured feeds:\n", len(cfg.Feeds))
			for _, f := range cfg.Feeds {
				fmt.Fprintf(out, "  %s%s%s\n", nameStyle.Render(f.Name), kindStyle.Render(f.Kind), f.URL)
			}
			return nil
		},
	}
}
