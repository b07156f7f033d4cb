package templater

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mangapdf/internal/domain"
	"mangapdf/internal/utils"
)

const DefaultTemplate = "Chapter_{num}"

var templatePattern = regexp.MustCompile(`{((\w+?)(:.*?)?)}`)

// Templater names output documents. Supported variables:
//
//	{manga}          work title
//	{num} {num:3}    chapter number, optionally zero padded
//	{index}          1-based position in the chapter list
//	{title: - <.>}   chapter title, options are only used when the title is set
type Templater struct {
	Title   string
	Chapter domain.Chapter
	Index   int
}

func New(title string, chapter domain.Chapter, index int) *Templater {
	return &Templater{
		Title:   title,
		Chapter: chapter,
		Index:   index,
	}
}

func (t *Templater) handleNum(options string) string {
	if options == "" {
		return utils.FormatNumber(t.Chapter.Number)
	}

	length, _ := strconv.ParseInt(strings.ReplaceAll(options, ":", ""), 10, 32)
	return utils.PadFloat(t.Chapter.Number, int(length))
}

func (t *Templater) handleIndex(options string) string {
	if options == "" {
		return strconv.Itoa(t.Index)
	}

	length, _ := strconv.ParseInt(strings.ReplaceAll(options, ":", ""), 10, 32)
	return fmt.Sprintf("%0*d", int(length), t.Index)
}

func (t *Templater) handleMangaTitle(options string) string {
	if t.Title == "" {
		return ""
	}

	if options == "" {
		return t.Title
	}

	cleanString := strings.ReplaceAll(options, ":", "")
	return strings.ReplaceAll(cleanString, "<.>", t.Title)
}

func (t *Templater) handleChapterTitle(options string) string {
	if t.Chapter.Title == "" {
		return ""
	}

	if options == "" {
		return t.Chapter.Title
	}

	cleanString := strings.ReplaceAll(options, ":", "")
	return strings.ReplaceAll(cleanString, "<.>", t.Chapter.Title)
}

func (t *Templater) ExecTemplate(template string) string {
	if template == "" {
		template = DefaultTemplate
	}

	newString := template
	for _, match := range templatePattern.FindAllStringSubmatch(template, -1) {
		replace := match[0]

		options := ""
		if len(match) > 3 {
			options = match[3]
		}

		switch match[2] {
		case "num":
			replace = t.handleNum(options)
		case "index":
			replace = t.handleIndex(options)
		case "manga":
			replace = t.handleMangaTitle(options)
		case "title":
			replace = t.handleChapterTitle(options)
		}

		newString = strings.Replace(newString, match[0], replace, 1)
	}

	return newString
}
