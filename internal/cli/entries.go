package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/codexrender/pkg/entry"
)

func (c *CLI) entriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Inspect and manage codex entries",
	}

	cmd.AddCommand(c.entriesListCommand())
	cmd.AddCommand(c.entriesShowCommand())
	cmd.AddCommand(c.entriesImportCommand())

	return cmd
}

func (c *CLI) entriesListCommand() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entry ids and titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if list, err = entry.Filter(list, match); err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No entries")
				return nil
			}
			out := cmd.OutOrStdout()
			for _, s := range list {
				fmt.Fprintf(out, "%s\t%s\n", s.ID, s.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&match, "match", "m", "", "only list ids matching a glob, e.g. 'lore-*'")
	return cmd
}

func (c *CLI) entriesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show <entry-id>",
		Short:             "Print an entry as JSON",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeEntryIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := entry.EncodeJSON(rec)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func (c *CLI) entriesImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Store entry documents (JSON or YAML) in the configured backend",
		Long: `Store entry documents in the configured backend.

Each file holds one entry. A document without an id takes the file name
without its extension.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			for _, path := range args {
				rec, err := readEntryFile(path)
				if err != nil {
					return err
				}
				if err := store.Save(cmd.Context(), rec); err != nil {
					return err
				}
				printSuccess("Imported %s", rec.ID)
			}
			return nil
		},
	}
}

// readEntryFile decodes a JSON, YAML or YML entry document.
func readEntryFile(path string) (entry.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entry.Record{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))

	var rec entry.Record
	switch ext {
	case ".json":
		rec, err = entry.DecodeJSON(data)
	case ".yaml", ".yml":
		rec, err = entry.DecodeYAML(data)
	default:
		return entry.Record{}, fmt.Errorf("%s: unsupported entry format %q (want .json, .yaml or .yml)", path, ext)
	}
	if err != nil {
		return entry.Record{}, fmt.Errorf("%s: %w", path, err)
	}
	if rec.ID == "" {
		rec.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return rec, nil
}
