package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dgallion1/kozlony/internal/export"
	"github.com/spf13/cobra"
)

func tocCmd() *cobra.Command {
	var (
		title  string
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "toc <file|url>",
		Short: "Extract the table of contents of an issue",
		Long: `Extract the table of contents of an issue PDF and write it in the chosen
format. The title selects the layout rules: titles containing the bulletin
phrase ("Hivatalos Értesítő") are read as bulletins, everything else as a gazette.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.loadDocument(cmd.Context(), args[0], title)
			if err != nil {
				return err
			}
			if doc.Empty() {
				a.log.Warn("no table of contents found", "source", args[0], "variant", doc.Variant)
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer file.Close()
				w = file
			}
			return export.Write(w, doc, f)
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "issue title used to pick gazette or bulletin rules")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: html, text, tsv, json, docx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	return cmd
}
