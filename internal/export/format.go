package export

import (
	"strings"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
)

// Format is the output format of a diagram page.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "md" or "html", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMarkdown, FormatHTML:
		return f, nil
	default:
		return "", errs.Newf(errs.ErrKindConfig, "unsupported output format %q (want md or html)", s)
	}
}

// Filename is the file name of a module page in this format.
func (f Format) Filename() string {
	return "erd." + string(f)
}

// HasIndex reports whether the format produces a project index page.
func (f Format) HasIndex() bool {
	return f == FormatHTML
}
