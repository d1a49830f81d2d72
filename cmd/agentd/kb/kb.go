package kb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"agentplatform/internal/app"
)

var (
	collection string
	limit      int
)

var Cmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the knowledge base searched by knowledge_lookup",
}

var addCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Add documents to a collection",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := app.OpenKnowledge(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		for _, path := range args {
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			id, err := store.AddDocument(cmd.Context(), collection, title, string(content))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s as #%d in %q\n", path, id, collection)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search a collection",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := app.OpenKnowledge(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		docs, err := store.SearchDocuments(cmd.Context(), collection, strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		for _, d := range docs {
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f  #%d  %s\n", d.Score, d.ID, d.Title)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections and their document counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := app.OpenKnowledge(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Collections(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range stats {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %d\n", c.Name, c.Documents)
		}
		return nil
	},
}

func init() {
	Cmd.PersistentFlags().StringVar(&collection, "collection", "default", "collection name")
	searchCmd.Flags().IntVarP(&limit, "limit", "n", 5, "maximum results")
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(searchCmd)
	Cmd.AddCommand(listCmd)
}
