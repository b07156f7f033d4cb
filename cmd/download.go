package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"mangapdf/internal/buildinfo"
	"mangapdf/internal/catalog"
	"mangapdf/internal/config"
	"mangapdf/internal/domain"
	"mangapdf/internal/download"
	"mangapdf/internal/files"
	"mangapdf/internal/logger"
	"mangapdf/internal/parse"
	"mangapdf/internal/pipeline"
	"mangapdf/internal/sharedhttp"
	"mangapdf/internal/utils"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const usage = parse.Usage + `
  [title]         title of the manga enclosed in square brackets
  -c start end    first and last chapter to download, 1-based
  --low-res       halve width and height of every page
  --config <dir>  directory of config.yaml
  -h              display this help message

Run without arguments to be asked for everything interactively.`

type app struct {
	cfg     *config.AppConfig
	log     *logger.DefaultLogger
	catalog *catalog.Mangadex
	driver  *pipeline.Driver
}

// newApp wires config, logging, catalog client and pipeline. A non empty
// language overrides the configured one.
func newApp(configDir, language string, out io.Writer) (*app, error) {
	cfg, err := config.New(configDir, buildinfo.Version)
	if err != nil {
		return nil, err
	}

	if language != "" {
		cfg.Config.Language = language
	}

	log := logger.New(cfg.Config)
	cfg.DynamicReload(log)

	if err := files.IsValidLocation(cfg.Config.DownloadLocation); err != nil {
		return nil, errors.Wrap(err, "invalid download location")
	}

	mangadex := catalog.NewMangadex(cfg.CatalogConfig())
	fetcher := download.NewFetcher(sharedhttp.NewClient(cfg.RequestTimeout()), cfg.RetryPolicy())

	opts := pipeline.Options{
		DownloadLocation: cfg.Config.DownloadLocation,
		NamingTemplate:   cfg.Config.NamingTemplate,
		Overwrite:        cfg.Config.Overwrite,
	}

	return &app{
		cfg:     cfg,
		log:     log,
		catalog: mangadex,
		driver:  pipeline.New(mangadex, fetcher, log, opts, progressHooks(out)),
	}, nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	parsed, err := parse.CommandLine(args)
	if err != nil {
		return err
	}

	if parsed.Help {
		fmt.Fprintln(out, usage)
		return nil
	}

	a, err := newApp(parsed.ConfigPath, "", out)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Title:         parsed.Title,
		Start:         parsed.Start,
		End:           parsed.End,
		LowResolution: parsed.LowRes || a.cfg.Config.LowResolution,
	}

	var result pipeline.Result

	if parsed.Interactive {
		result, err = a.interactive(ctx, bufio.NewReader(cmd.InOrStdin()), out, req)
	} else {
		result, err = a.driver.Run(ctx, req)
	}
	if err != nil {
		return err
	}

	if failed := result.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d chapters could not be downloaded", len(failed), len(result.Chapters))
	}

	return nil
}

func (a *app) interactive(ctx context.Context, in *bufio.Reader, out io.Writer, req pipeline.Request) (pipeline.Result, error) {
	title, err := prompt(in, out, "Enter title of manga: ")
	if err != nil {
		return pipeline.Result{}, err
	}
	req.Title = title

	workID, chapters, err := a.driver.Lookup(ctx, title)
	if err != nil {
		return pipeline.Result{}, err
	}

	printChapters(out, chapters)

	answer, err := prompt(in, out, "Enter chapter number to start download: ")
	if err != nil {
		return pipeline.Result{}, err
	}
	if req.Start, err = parse.Chapter(answer); err != nil {
		return pipeline.Result{}, err
	}

	answer, err = prompt(in, out, "Enter chapter number to end download: ")
	if err != nil {
		return pipeline.Result{}, err
	}
	if req.End, err = parse.Chapter(answer); err != nil {
		return pipeline.Result{}, err
	}

	answer, err = prompt(in, out, "Want lower resolution image(y/n): ")
	if err != nil {
		return pipeline.Result{}, err
	}
	if req.LowResolution, err = parse.YesNo(answer); err != nil {
		return pipeline.Result{}, err
	}

	return a.driver.Download(ctx, req, workID, chapters)
}

func prompt(in *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)

	answer, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || answer == "") {
		return "", fmt.Errorf("%w: no answer given", domain.ErrInvalidInput)
	}

	return strings.TrimSpace(answer), nil
}

func printChapters(out io.Writer, chapters []domain.Chapter) {
	for i, chapter := range chapters {
		if chapter.Title != "" {
			fmt.Fprintf(out, "%4d. Chapter %s: %s\n", i+1, utils.FormatNumber(chapter.Number), chapter.Title)
		} else {
			fmt.Fprintf(out, "%4d. Chapter %s\n", i+1, utils.FormatNumber(chapter.Number))
		}
	}
}

// progressHooks prints one progress bar per chapter.
func progressHooks(out io.Writer) pipeline.Hooks {
	var bar *progressbar.ProgressBar
	var total, done int

	return pipeline.Hooks{
		OnChapterStart: func(chapter domain.Chapter, index, pages int) {
			fmt.Fprintf(out, "Downloading Chapter %s...\n", utils.FormatNumber(chapter.Number))

			total, done = pages, 0
			bar = progressbar.NewOptions(pages,
				progressbar.OptionSetWriter(out),
				progressbar.OptionSetDescription(fmt.Sprintf("Chapter %d", index)),
				progressbar.OptionSetItsString("image"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(out)
				}),
			)
		},
		OnImage: func(_ domain.Chapter) {
			done++
			if bar != nil {
				_ = bar.Add(1)
			}
		},
		OnChapterDone: func(result pipeline.ChapterResult) {
			// the bar only ends its line by itself when every page made it
			if bar != nil && done < total {
				fmt.Fprintln(out)
			}
			bar = nil

			num := utils.FormatNumber(result.Chapter.Number)

			switch result.Status {
			case pipeline.StatusWritten:
				if result.Skipped > 0 {
					fmt.Fprintf(out, "Chapter %s saved as PDF (%d pages, %d skipped).\n", num, result.Pages, result.Skipped)
				} else {
					fmt.Fprintf(out, "Chapter %s saved as PDF.\n", num)
				}
			case pipeline.StatusExists:
				fmt.Fprintf(out, "Chapter %s has already been downloaded, skipping %q\n", num, result.Path)
			case pipeline.StatusEmpty:
				fmt.Fprintf(out, "Chapter %s has no downloadable pages, no PDF written.\n", num)
			case pipeline.StatusFailed:
				fmt.Fprintf(out, "Failed to download chapter %s: %v\n", num, result.Err)
			}
		},
	}
}
