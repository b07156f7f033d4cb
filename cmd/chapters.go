package cmd

import (
	"fmt"
	"strings"

	"mangapdf/internal/parse"

	"github.com/spf13/cobra"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters [title]",
	Short: "List the chapters available for a manga",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		title := strings.Join(args, " ")
		if strings.HasPrefix(title, "[") {
			t, err := parse.Title(title)
			if err != nil {
				return err
			}
			title = t
		}

		a, err := newApp(configPath, language, out)
		if err != nil {
			return err
		}

		workID, chapters, err := a.driver.Lookup(ctx, title)
		if err != nil {
			return err
		}

		work, err := a.catalog.GetWork(ctx, workID)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s (%s), %d chapters\n", work.DisplayTitle(), workID, len(chapters))
		printChapters(out, chapters)

		return nil
	},
}
