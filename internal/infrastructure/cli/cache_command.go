package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Bardin08/docify/internal/app"
)

func newCacheCommand(container *app.Container) *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the dry-run cache",
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the cache file path for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), container.Cache.PathFor(projectID))
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "List cached drafts for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cached, err := container.Cache.Load(projectID)
			if err != nil || cached == nil || len(cached.Entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty.")
				return nil
			}
			for _, entry := range cached.Entries {
				status := "valid"
				if container.Cache.IsExpired(entry.CachedAt) {
					status = "expired"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s/%s  %s  %s\n",
					entry.APISymbolID, entry.Provider, entry.Model,
					entry.CachedAt.Format("2006-01-02 15:04"), status)
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the cached drafts for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Cache.Clear(projectID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&projectID, "project", "", "project identity")
	_ = cmd.MarkPersistentFlagRequired("project")

	cmd.AddCommand(pathCmd, showCmd, clearCmd)
	return cmd
}
