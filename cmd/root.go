package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mangapdf [title] -c start end",
	Short: "Download manga chapters from MangaDex as PDF documents.",
	Long: `Download manga chapters from MangaDex as PDF documents.

Every chapter in the range becomes one PDF with one page per image, stored in
a directory named after the manga. Start and end are positions in the list of
available chapters, starting at 1.

Examples:
  mangapdf "[I want to eat your pancreas]" -c 1 5
  mangapdf "[One Piece]" -c 1 3 --low-res
  mangapdf                      (interactive)

Provide a configuration file using one of the following methods:
1. Use the --config <path> flag.
2. Place a config.yaml file in the default user configuration directory (e.g., ~/.config/mangapdf/).
3. Place a config.yaml file a folder inside your home directory (e.g., ~/.mangapdf/).
4. Place a config.yaml file in the current directory.

The API token can also be set with MANGAPDF__API_TOKEN, e.g. in a .env file.`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceErrors:      true,
	SilenceUsage:       true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Load .env file if present (ignore errors)
		_ = godotenv.Load()
	},
	RunE: runDownload,
}

func init() {
	initRootFlags()
	initChaptersFlags()

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chaptersCmd)
}

func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
