package handlers

import (
	"github.com/spf13/cobra"

	"arxivreco/internal/tui"
)

// NewBrowseCmd creates the browse command
func NewBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [date]",
		Short: "Browse an archived digest in the terminal",
		Long:  `Launch the arxivreco TUI to page through an archived digest (latest when no date is given).`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			d, err := resolveDigest(cfg.Output.Directory, args)
			if err != nil {
				return err
			}
			return tui.Run(d)
		},
	}
}
