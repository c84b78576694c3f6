package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgallion1/kozlony/internal/summary"
	"github.com/spf13/cobra"
)

func summaryCmd() *cobra.Command {
	var (
		title string
		html  bool
	)
	cmd := &cobra.Command{
		Use:   "summary <file|url>",
		Short: "Summarize the main chapter of an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, off := a.summarizer.(summary.Noop); off {
				return errors.New("summaries are disabled: set summary.provider to claude or gemini")
			}

			doc, err := a.loadDocument(cmd.Context(), args[0], title)
			if err != nil {
				return err
			}
			if doc.Empty() {
				return errors.New("no table of contents found")
			}

			text, err := a.summarizer.Summarize(cmd.Context(), doc.Blocks[0])
			if err != nil {
				return fmt.Errorf("summarize: %w", err)
			}
			if html {
				if text, err = summary.RenderHTML(text); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "issue title used to pick gazette or bulletin rules")
	cmd.Flags().BoolVar(&html, "html", false, "render the summary as HTML")
	return cmd
}
