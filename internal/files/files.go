package files

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // needed to decode gif
	"image/jpeg"
	_ "image/png" // needed to decode png
	"os"
	"path/filepath"

	"mangapdf/internal/domain"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // needed to decode webp
)

const jpegQuality = 92

// ErrEmptyDocument is returned by Finalize when no page was added.
var ErrEmptyDocument = errors.New("document has no pages")

func IsValidLocation(location string) error {
	info, err := os.Stat(location)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", location)
	}

	return nil
}

type PageSize struct {
	Width  int
	Height int
}

// Document collects page images and writes them as a PDF with one page per
// image. Pages are measured in points, so a page is exactly as large as its
// image in pixels.
type Document struct {
	path   string
	lowRes bool
	pdf    *fpdf.Fpdf
	pages  []PageSize
}

// NewDocument prepares a PDF at pdfPath and creates its directory if needed.
// With lowRes every image is scaled down to half its width and height.
func NewDocument(pdfPath string, lowRes bool) (*Document, error) {
	if err := os.MkdirAll(filepath.Dir(pdfPath), os.ModePerm); err != nil {
		return nil, err
	}

	pdf := fpdf.New(fpdf.OrientationPortrait, fpdf.UnitPoint, "", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	return &Document{
		path:   pdfPath,
		lowRes: lowRes,
		pdf:    pdf,
	}, nil
}

func (d *Document) PageCount() int {
	return len(d.pages)
}

func (d *Document) Pages() []PageSize {
	return d.pages
}

// AddImage decodes data and appends it as a new page. Undecodable data wraps
// domain.ErrFetch and leaves the document untouched.
func (d *Document) AddImage(data []byte) error {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: failed to decode image: %w", domain.ErrFetch, err)
	}

	rgb := normalize(src, d.lowRes)
	size := PageSize{Width: rgb.Bounds().Dx(), Height: rgb.Bounds().Dy()}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}

	name := fmt.Sprintf("page-%03d", len(d.pages)+1)
	opts := fpdf.ImageOptions{ImageType: "JPG"}

	d.pdf.RegisterImageOptionsReader(name, opts, &buf)
	d.pdf.AddPageFormat(fpdf.OrientationPortrait, fpdf.SizeType{Wd: float64(size.Width), Ht: float64(size.Height)})
	d.pdf.ImageOptions(name, 0, 0, float64(size.Width), float64(size.Height), false, opts, 0, "")

	if err := d.pdf.Error(); err != nil {
		return errors.Wrapf(err, "could not add page %d", len(d.pages)+1)
	}

	d.pages = append(d.pages, size)

	return nil
}

// Finalize writes the document. The PDF is written next to its destination
// and renamed into place, so the file is either complete or absent.
func (d *Document) Finalize() error {
	if len(d.pages) == 0 {
		return ErrEmptyDocument
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), ".mangapdf-*.pdf")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	writeBuf := bufio.NewWriter(tmp)

	if err := d.pdf.Output(writeBuf); err != nil {
		tmp.Close()
		return errors.Wrap(err, "could not write pdf")
	}

	if err := writeBuf.Flush(); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), d.path)
}

// normalize returns an opaque RGB copy of src composited over white, halved in
// both dimensions when lowRes is set.
func normalize(src image.Image, lowRes bool) *image.RGBA {
	sb := src.Bounds()
	width, height := sb.Dx(), sb.Dy()

	if lowRes {
		width, height = max(width/2, 1), max(height/2, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	if lowRes {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	} else {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
	}

	return dst
}
