package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Bardin08/docify/internal/app"
	"github.com/Bardin08/docify/internal/domain"
	"github.com/Bardin08/docify/internal/infrastructure/collector"
	"github.com/Bardin08/docify/internal/infrastructure/index"
)

func newGenerateCommand(container *app.Container) *cobra.Command {
	var (
		indexPath   string
		projectID   string
		provider    string
		parallelism int
		dryRun      bool
		includeAll  bool
		estimate    bool
		noConfirm   bool
		includes    []string
		excludes    []string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate documentation drafts for undocumented APIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			if noConfirm {
				container.InitFactory(autoDecline{})
			} else {
				container.InitFactory(NewPrompter(nil, nil))
			}

			store, err := index.Open(indexPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if projectID == "" {
				projectID = strings.TrimSuffix(filepath.Base(indexPath), filepath.Ext(indexPath))
			}

			cfg, err := container.ConfigLoader.Load(ctx)
			if err != nil {
				return err
			}

			symbols, err := store.Symbols(ctx)
			if err != nil {
				return err
			}
			symbols = filterSymbols(symbols, cfg.Filters, includes, excludes, includeAll)
			if len(symbols) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No candidate APIs found.")
				return nil
			}

			coll := collector.New(store, store, container.Logger,
				collector.WithSampling(cfg.Generation.MaxExamples, cfg.Generation.ContextLines))

			if estimate {
				return printEstimate(ctx, cmd, container, cfg, provider, coll, symbols)
			}

			bar := progressbar.NewOptions(len(symbols),
				progressbar.OptionSetDescription("generating"),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionClearOnFinish(),
			)
			service := container.NewGenerateService(coll, func(done, total int) {
				_ = bar.Set(done)
			})

			report, err := service.Generate(ctx, domain.GenerationRequest{
				ProjectID:   projectID,
				Symbols:     symbols,
				Provider:    provider,
				Parallelism: parallelism,
				DryRun:      dryRun,
			})
			_ = bar.Finish()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %d/%d drafts (%d cache hits, %d misses) in %s\n",
				report.Succeeded, report.Attempted, report.CacheHits, report.CacheMisses,
				report.Duration.Round(time.Millisecond))

			writer := NewPreviewWriter(out)
			if err := writer.Write(ctx, report.Docs); err != nil {
				return err
			}
			if !dryRun && report.Succeeded > 0 {
				// The drafts left dry-run mode; cached copies are spent.
				if err := container.Cache.Clear(projectID); err != nil {
					container.Logger.Warn("cache clear failed", map[string]interface{}{"error": err.Error()})
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "path to the analyzer-produced symbol index database (required)")
	cmd.Flags().StringVar(&projectID, "project", "", "project identity for caching (default: index file name)")
	cmd.Flags().StringVar(&provider, "provider", "", "provider name from config (default: configured provider)")
	cmd.Flags().IntVarP(&parallelism, "parallel", "p", 0, "concurrent generations, 1-10 (default: from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "generate and cache drafts without accepting them for writing")
	cmd.Flags().BoolVar(&includeAll, "all", false, "include already documented APIs")
	cmd.Flags().BoolVar(&estimate, "estimate", false, "print the estimated cost without calling the provider")
	cmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "never switch to a fallback provider")
	cmd.Flags().StringSliceVar(&includes, "include", nil, "glob patterns of files to include (overrides config)")
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "glob patterns of files to exclude (overrides config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall run timeout")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}

// filterSymbols applies the documentation-status filter and doublestar
// include/exclude patterns. Flag patterns override config patterns.
func filterSymbols(symbols []domain.APISymbol, cfg domain.FilterSettings, includes, excludes []string, includeAll bool) []domain.APISymbol {
	if len(includes) == 0 {
		includes = cfg.Include
	}
	if len(excludes) == 0 {
		excludes = cfg.Exclude
	}

	var kept []domain.APISymbol
	for _, sym := range symbols {
		if !includeAll && !sym.DocStatus.NeedsDocumentation() {
			continue
		}
		if len(includes) > 0 && !matchesAny(includes, sym.FilePath) {
			continue
		}
		if matchesAny(excludes, sym.FilePath) {
			continue
		}
		kept = append(kept, sym)
	}
	return kept
}

func matchesAny(patterns []string, path string) bool {
	normalized := filepath.ToSlash(path)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, normalized); err == nil && ok {
			return true
		}
	}
	return false
}

func printEstimate(
	ctx context.Context,
	cmd *cobra.Command,
	container *app.Container,
	cfg domain.Config,
	providerName string,
	coll *collector.Collector,
	symbols []domain.APISymbol,
) error {
	provider, err := container.Factory.GetProvider(cfg, providerName)
	if err != nil {
		return err
	}

	var total float64
	counted := 0
	for _, sym := range symbols {
		apiCtx, err := coll.Collect(ctx, sym)
		if err != nil {
			continue
		}
		total += provider.EstimateCost(apiCtx)
		counted++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Estimated cost for %d APIs via %s: $%.4f\n",
		counted, provider.Name(), total)
	return nil
}
