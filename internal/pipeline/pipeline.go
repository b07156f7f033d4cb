package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mangapdf/internal/domain"
	"mangapdf/internal/files"
	"mangapdf/internal/logger"
	"mangapdf/internal/parse"
	"mangapdf/internal/sanitize"
	"mangapdf/internal/templater"
	"mangapdf/internal/utils"
)

type Status string

const (
	StatusWritten Status = "written"
	StatusExists  Status = "exists"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
)

type Options struct {
	DownloadLocation string
	NamingTemplate   string
	Overwrite        bool
}

// Hooks are optional presentation callbacks. OnImage is called once for every
// page that made it into a document.
type Hooks struct {
	OnChapterStart func(chapter domain.Chapter, index, pages int)
	OnImage        func(chapter domain.Chapter)
	OnChapterDone  func(result ChapterResult)
}

type Request struct {
	Title         string
	Start         int
	End           int
	LowResolution bool
}

type ChapterResult struct {
	Index   int
	Chapter domain.Chapter
	Path    string
	Pages   int
	Skipped int
	Status  Status
	Err     error
}

type Result struct {
	WorkID   string
	Chapters []ChapterResult
}

// Failed returns the chapters that didn't produce a document.
func (r Result) Failed() []ChapterResult {
	var failed []ChapterResult
	for _, c := range r.Chapters {
		if c.Status == StatusFailed || c.Status == StatusEmpty {
			failed = append(failed, c)
		}
	}
	return failed
}

type Driver struct {
	catalog domain.Catalog
	fetcher domain.ImageFetcher
	log     logger.Logger
	opts    Options
	hooks   Hooks
}

func New(catalog domain.Catalog, fetcher domain.ImageFetcher, log logger.Logger, opts Options, hooks Hooks) *Driver {
	return &Driver{
		catalog: catalog,
		fetcher: fetcher,
		log:     log,
		opts:    opts,
		hooks:   hooks,
	}
}

// Run resolves the title, lists its chapters and downloads the requested range.
func (d *Driver) Run(ctx context.Context, req Request) (Result, error) {
	workID, chapters, err := d.Lookup(ctx, req.Title)
	if err != nil {
		return Result{}, err
	}

	return d.Download(ctx, req, workID, chapters)
}

// Lookup resolves title and lists the chapters of the matching work. A work
// without chapters is reported as domain.ErrNotFound.
func (d *Driver) Lookup(ctx context.Context, title string) (string, []domain.Chapter, error) {
	workID, err := d.catalog.ResolveTitle(ctx, title)
	if err != nil {
		return "", nil, err
	}

	d.log.Debug().Str("title", title).Str("id", workID).Msgf("resolved title on %s", d.catalog)

	chapters, err := d.catalog.ListChapters(ctx, workID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list chapters for %q: %w", title, err)
	}

	if len(chapters) == 0 {
		return "", nil, fmt.Errorf("%w: no chapters found for %q", domain.ErrNotFound, title)
	}

	d.log.Debug().Str("title", title).Int("chapters", len(chapters)).Msg("listed chapters")

	return workID, chapters, nil
}

// Download writes one document per chapter in the 1-based range
// [req.Start, req.End] of chapters. An invalid range is rejected before
// anything is fetched. A failing chapter doesn't stop the run.
func (d *Driver) Download(ctx context.Context, req Request, workID string, chapters []domain.Chapter) (Result, error) {
	if err := parse.ValidateRange(req.Start, req.End, len(chapters)); err != nil {
		return Result{}, err
	}

	result := Result{WorkID: workID}

	for i := req.Start; i <= req.End; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		chapterResult := d.chapter(ctx, req, i, chapters[i-1])
		result.Chapters = append(result.Chapters, chapterResult)

		if d.hooks.OnChapterDone != nil {
			d.hooks.OnChapterDone(chapterResult)
		}
	}

	return result, nil
}

func (d *Driver) chapter(ctx context.Context, req Request, index int, chapter domain.Chapter) ChapterResult {
	title := req.Title
	cLog := d.log.With().Str("title", title).Str("chapter", utils.FormatNumber(chapter.Number)).Logger()

	t := templater.New(title, chapter, index)
	name := sanitize.Filename(t.ExecTemplate(d.opts.NamingTemplate))
	pdfPath := filepath.Join(d.opts.DownloadLocation, sanitize.Filename(title), name+".pdf")

	res := ChapterResult{
		Index:   index,
		Chapter: chapter,
		Path:    pdfPath,
	}

	if !d.opts.Overwrite {
		if _, err := os.Stat(pdfPath); err == nil {
			cLog.Info().Msgf("chapter has already been downloaded, skipping %q", pdfPath)
			res.Status = StatusExists
			return res
		}
	}

	imageURLs, err := d.catalog.GetPageManifest(ctx, chapter.ID)
	if err != nil {
		cLog.Error().Err(err).Msg("error getting image urls")
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	if d.hooks.OnChapterStart != nil {
		d.hooks.OnChapterStart(chapter, index, len(imageURLs))
	}

	doc, err := files.NewDocument(pdfPath, req.LowResolution)
	if err != nil {
		cLog.Error().Err(err).Msg("error creating document")
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	for _, imageURL := range imageURLs {
		if err := ctx.Err(); err != nil {
			res.Status = StatusFailed
			res.Err = err
			return res
		}

		data, err := d.fetcher.Fetch(ctx, imageURL)
		if err != nil {
			cLog.Warn().Err(err).Str("url", imageURL).Msg("skipping page")
			res.Skipped++
			continue
		}

		if err := doc.AddImage(data); err != nil {
			cLog.Warn().Err(err).Str("url", imageURL).Msg("skipping page")
			res.Skipped++
			continue
		}

		if d.hooks.OnImage != nil {
			d.hooks.OnImage(chapter)
		}
	}

	res.Pages = doc.PageCount()

	if err := doc.Finalize(); err != nil {
		if errors.Is(err, files.ErrEmptyDocument) {
			cLog.Warn().Msg("no page could be downloaded, no document written")
			res.Status = StatusEmpty
			res.Err = err
			return res
		}

		cLog.Error().Err(err).Msg("error writing document")
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	cLog.Info().Int("pages", res.Pages).Int("skipped", res.Skipped).Msgf("finished downloading %q", pdfPath)
	res.Status = StatusWritten

	return res
}
