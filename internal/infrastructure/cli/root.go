// Package cli wires the cobra command tree for docify.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Bardin08/docify/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:   "docify",
		Short: "docify - bulk LLM documentation generation for public APIs",
		Long: `docify discovers undocumented public APIs in an analyzer-produced symbol
index, gathers contextual evidence per API, drafts XML documentation
comments through an LLM provider, validates the output, and hands accepted
drafts to the writer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGenerateCommand(container))
	root.AddCommand(newCacheCommand(container))
	root.AddCommand(newHistoryCommand(container))
	return root, nil
}
