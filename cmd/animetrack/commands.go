package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/amaumene/animetrack/internal/completion"
	"github.com/amaumene/animetrack/internal/controllers"
	"github.com/amaumene/animetrack/internal/export"
	"github.com/amaumene/animetrack/internal/legacy"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	var query, xlsxPath string
	var tier int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List titles with their completion tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := controllers.ListOptions{Query: query}
			if cmd.Flags().Changed("tier") {
				t := completion.Tier(tier)
				if !t.Valid() {
					return fmt.Errorf("--tier must be between %d and %d", completion.TierNotStarted, completion.TierComplete)
				}
				opts.Tier = &t
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			summaries, err := a.controllers().Completion.ResolveAll(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				return writeXLSX(xlsxPath, summaries)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTitles(summaries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Fuzzy filter on the title")
	cmd.Flags().IntVar(&tier, "tier", 0, "Only titles at this tier (0 not started .. 4 complete)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the listing to this spreadsheet instead of stdout")
	return cmd
}

func writeXLSX(path string, summaries []controllers.TitleSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WriteTitles(f, summaries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func renderTitles(summaries []controllers.TitleSummary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Title", "Final", "Source", "Partners", "Completion"})

	for _, s := range summaries {
		tw.AppendRow(table.Row{s.ID, s.Title, s.LastEpisode, s.Source, len(s.WatchPartners), s.Completion.String()})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	tw.AppendFooter(table.Row{"", strconv.Itoa(len(summaries)) + " titles"})
	return tw.Render()
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <anime.db>",
		Short: "Import a legacy SQLite database into an empty store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := legacy.NewImporter(a.db, a.logger).Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printImportResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func printImportResult(w io.Writer, result *legacy.Result) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Records", "Imported"})
	tw.AppendRows([]table.Row{
		{"Sources", result.Sources},
		{"Tags", result.Tags},
		{"Watch partners", result.WatchPartners},
		{"Series", result.Series},
		{"Titles", result.Titles},
		{"Title tags", result.TitleTags},
		{"Extras", result.Extras},
		{"Watchthroughs", result.Watchthroughs},
		{"Extra completions", result.ExtraCompletions},
	})
	fmt.Fprintln(w, tw.Render())
}

func newBackupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Write a snapshot of the store to a file",
		Long: "Write a snapshot of the store to a file. The store is locked while the server " +
			"runs; use GET /backup against a running server instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.db.BackupToFile(args[0]); err != nil {
				return err
			}
			a.logger.WithField("path", args[0]).Info("Backup written")
			return nil
		},
	}
}
