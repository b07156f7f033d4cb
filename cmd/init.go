package cmd

var (
	configPath string
	language   string
)

func initRootFlags() {
	// the root command parses its own arguments, this is inherited by subcommands
	rootCmd.PersistentFlags().StringVar(
		&configPath,
		"config",
		"",
		"specifies the path to your config directory",
	)
}

func initChaptersFlags() {
	chaptersCmd.Flags().StringVarP(
		&language,
		"language",
		"l",
		"",
		"specifies the language of the listed chapters, overrides the config",
	)
}
