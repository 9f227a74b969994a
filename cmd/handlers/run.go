package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"arxivreco/internal/core"
	"arxivreco/internal/embedding"
	"arxivreco/internal/pipeline"
)

// NewRunCmd creates the run command which executes the whole pipeline
func NewRunCmd() *cobra.Command {
	var (
		profilePath string
		outputDir   string
		topN        int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, rank and publish today's recommendations",
		Long: `Fetch the configured feeds, merge the newest listing into one candidate per
paper, rank candidates by embedding similarity to the profile and write
<output>/data/<date>.json, <output>/index.html and <output>/.nojekyll.

Any fetch or embedding failure aborts the run without writing output.

Examples:
  arxivreco run
  arxivreco run --profile interests.md --output site --top-n 25`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPipeline(ctx, cmd, profilePath, outputDir, topN)
		},
	}

	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "interest profile file (default from config: profile.md)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config: docs)")
	cmd.Flags().IntVarP(&topN, "top-n", "n", 0, "number of papers to keep (default from config: 40)")

	return cmd
}

func runPipeline(ctx context.Context, cmd *cobra.Command, profilePath, outputDir string, topN int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override config from flags if provided
	if profilePath != "" {
		cfg.App.ProfilePath = profilePath
	}
	if outputDir != "" {
		cfg.Output.Directory = outputDir
	}
	if cmd.Flags().Changed("top-n") {
		cfg.Ranking.TopN = topN
	}

	profile, err := os.ReadFile(cfg.App.ProfilePath)
	if err != nil {
		return &core.ConfigurationError{Field: "profile", Err: fmt.Errorf("failed to read %s: %w", cfg.App.ProfilePath, err)}
	}

	embedder, err := embedding.New(ctx, cfg.EmbeddingOptions())
	if err != nil {
		return err
	}

	p, err := pipeline.NewBuilder().
		WithConfig(cfg.Pipeline()).
		WithEmbedder(embedder).
		Build()
	if err != nil {
		return err
	}

	res, err := p.Run(ctx, string(profile))
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Listing date: %s\n", core.FormatDay(res.TargetDate))
	fmt.Fprintf(out, "Candidates:   %d (%d cross-listed duplicates merged)\n", res.Candidates, res.MergeStats.Duplicates)
	fmt.Fprintf(out, "Published:    %d papers to %s\n", len(res.Digest.Entries), res.Digest.ArchivePath)
	if len(res.Digest.Entries) > 0 {
		top := res.Digest.Entries[0]
		fmt.Fprintf(out, "Top match:    %s %s (%.3f)\n", top.ArxivID, top.Title, float64(top.Score))
	}
	fmt.Fprintf(out, "Run %s finished in %s\n", res.RunID, res.Duration.Round(time.Millisecond))
	return nil
}
