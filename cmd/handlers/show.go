package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"arxivreco/internal/core"
	"arxivreco/internal/digest"
	"arxivreco/internal/tui"
)

// NewShowCmd creates the show command which prints an archived digest
func NewShowCmd() *cobra.Command {
	var (
		showAuthors bool
		asJSON      bool
		width       int
	)

	cmd := &cobra.Command{
		Use:   "show [date]",
		Short: "Print an archived digest (latest when no date is given)",
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

			if asJSON {
				data, err := digest.Encode(d.Entries)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), tui.RenderTable(d, showAuthors, width))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showAuthors, "authors", "a", false, "include authors")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the archived JSON")
	cmd.Flags().IntVar(&width, "width", 100, "output width")

	return cmd
}

// resolveDigest loads the digest for args[0] or the latest one
func resolveDigest(outputDir string, args []string) (*digest.Digest, error) {
	if len(args) == 0 {
		d, err := digest.LoadLatest(outputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load latest digest from %s: %w", outputDir, err)
		}
		return d, nil
	}

	date, err := core.ParseDay(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", args[0], err)
	}
	return digest.LoadDate(outputDir, date)
}
