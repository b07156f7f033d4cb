package parse

import (
	"fmt"
	"strconv"
	"strings"

	"mangapdf/internal/domain"
)

const Usage = "Usage: mangapdf [title] [-c start end]"

// Args is the parsed command line of a download run.
type Args struct {
	Help        bool
	Interactive bool
	Title       string
	Start       int
	End         int
	LowRes      bool
	ConfigPath  string
}

// CommandLine parses `[title] -c start end`. Without arguments the run is
// interactive. The title has to be enclosed in square brackets, unquoted
// titles spanning several arguments are joined back together.
// --config <dir> and --low-res are accepted anywhere.
func CommandLine(argv []string) (Args, error) {
	var args Args
	var rest []string

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		switch {
		case arg == "--low-res":
			args.LowRes = true
		case arg == "--config":
			if i+1 >= len(argv) {
				return Args{}, fmt.Errorf("%w: --config needs a path", domain.ErrInvalidInput)
			}
			i++
			args.ConfigPath = argv[i]
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
		default:
			rest = append(rest, arg)
		}
	}

	if len(rest) == 0 {
		args.Interactive = true
		return args, nil
	}

	if rest[0] == "-h" || rest[0] == "--help" {
		args.Help = true
		return args, nil
	}

	titleArg, rest := joinTitle(rest)

	if len(rest) != 3 {
		return Args{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, Usage)
	}

	if rest[0] != "-c" {
		return Args{}, fmt.Errorf("%w: invalid flag %q, use '-c'", domain.ErrInvalidInput, rest[0])
	}

	title, err := Title(titleArg)
	if err != nil {
		return Args{}, err
	}

	start, end, err := getRange(rest[1:])
	if err != nil {
		return Args{}, err
	}

	args.Title = title
	args.Start = start
	args.End = end

	return args, nil
}

// Title strips the square brackets around a title argument.
func Title(arg string) (string, error) {
	if len(arg) < 3 || !strings.HasPrefix(arg, "[") || !strings.HasSuffix(arg, "]") {
		return "", fmt.Errorf("%w: title should be enclosed in square brackets, e.g. [title]", domain.ErrInvalidInput)
	}

	title := strings.TrimSpace(arg[1 : len(arg)-1])
	if title == "" {
		return "", fmt.Errorf("%w: title is empty", domain.ErrInvalidInput)
	}

	return title, nil
}

// Chapter parses a 1-based chapter bound.
func Chapter(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("%w: start and end of chapter should be integers: %q", domain.ErrInvalidInput, input)
	}

	return n, nil
}

// YesNo parses the answer to a y/n prompt.
func YesNo(input string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, fmt.Errorf("%w: choose only between y/n", domain.ErrInvalidInput)
	}
}

// ValidateRange checks a 1-based, inclusive chapter range against the number
// of available chapters.
func ValidateRange(start, end, count int) error {
	switch {
	case start < 1:
		return fmt.Errorf("%w: invalid chapter range: start %d is lower than 1", domain.ErrInvalidInput, start)
	case end < start:
		return fmt.Errorf("%w: invalid chapter range: end %d is lower than start %d", domain.ErrInvalidInput, end, start)
	case end > count:
		return fmt.Errorf("%w: invalid chapter range: end %d exceeds the %d available chapters", domain.ErrInvalidInput, end, count)
	}

	return nil
}

// joinTitle joins a bracketed title that the shell split into several
// arguments and returns it together with the remaining arguments.
func joinTitle(argv []string) (string, []string) {
	if !strings.HasPrefix(argv[0], "[") || strings.HasSuffix(argv[0], "]") {
		return argv[0], argv[1:]
	}

	for i := 1; i < len(argv); i++ {
		if strings.HasSuffix(argv[i], "]") {
			return strings.Join(argv[:i+1], " "), argv[i+1:]
		}
	}

	return argv[0], argv[1:]
}

// getRange parses the start and end of a chapter range
func getRange(rangeParts []string) (int, int, error) {
	start, err := Chapter(rangeParts[0])
	if err != nil {
		return 0, 0, err
	}

	end, err := Chapter(rangeParts[1])
	if err != nil {
		return 0, 0, err
	}

	return start, end, nil
}
