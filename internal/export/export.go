// Package export writes rendered diagrams to a filestore.Store as
// Markdown or HTML pages, plus the HTML index that links them.
package export

import (
	"bytes"
	"context"
	"embed"
	htmltemplate "html/template"
	"path"
	"path/filepath"
	"sort"
	"strings"
	texttemplate "text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore"
	"github.com/david-delgrosso/django-er-diagram/internal/metadata"
)

// IndexFilename is the index page written at the project root.
const IndexFilename = "erd_index.html"

// MermaidURL is the ES module the HTML pages load mermaid from.
const MermaidURL = "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs"

//go:embed templates/*
var templatesFS embed.FS

var (
	markdownTmpl = texttemplate.Must(texttemplate.ParseFS(templatesFS, "templates/erd.md.tmpl"))
	pageTmpl     = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/erd.html.tmpl"))
	indexTmpl    = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/erd_index.html.tmpl"))
)

// Page is one written module page.
type Page struct {
	Module string
	// Key is the store key of the page, relative to the project root.
	Key string
}

// Exporter writes pages for one run.
type Exporter struct {
	store       filestore.Store
	format      Format
	outputDir   string
	projectRoot string
}

// New returns an Exporter writing format pages into outputDir under each
// module directory. projectRoot anchors the store keys.
func New(store filestore.Store, format Format, outputDir, projectRoot string) (*Exporter, error) {
	format, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}
	dir, err := filestore.CleanKey(filepath.ToSlash(outputDir))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "invalid output directory", err)
	}
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "cannot resolve project root", err)
	}
	return &Exporter{store: store, format: format, outputDir: dir, projectRoot: root}, nil
}

// Format returns the configured output format.
func (e *Exporter) Format() Format {
	return e.format
}

// Key returns the store key of mod's page.
func (e *Exporter) Key(mod metadata.Module) (string, error) {
	rel, err := filepath.Rel(e.projectRoot, mod.Path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errs.Newf(errs.ErrKindInvalidInput, "module %s at %s is outside the project root", mod.Name, mod.Path)
	}
	return filestore.CleanKey(path.Join(filepath.ToSlash(rel), e.outputDir, e.format.Filename()))
}

// Export writes the page for mod containing the Mermaid document doc.
func (e *Exporter) Export(ctx context.Context, mod metadata.Module, doc string) (Page, error) {
	key, err := e.Key(mod)
	if err != nil {
		return Page{}, err
	}

	content, err := e.render(mod.Name, key, doc)
	if err != nil {
		return Page{}, err
	}

	if _, err := e.store.PutObject(ctx, key, content, ""); err != nil {
		return Page{}, err
	}
	return Page{Module: mod.Name, Key: key}, nil
}

// WriteIndex writes the index page linking pages, sorted by module name.
func (e *Exporter) WriteIndex(ctx context.Context, project string, pages []Page) (*filestore.ObjectInfo, error) {
	sorted := make([]Page, len(pages))
	copy(sorted, pages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Module < sorted[j].Module
	})

	var buf bytes.Buffer
	err := indexTmpl.Execute(&buf, struct {
		Project string
		Pages   []Page
	}{Project: project, Pages: sorted})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindUnknown, "render index", err)
	}
	return e.store.PutObject(ctx, IndexFilename, buf.Bytes(), "")
}

func (e *Exporter) render(module, key, doc string) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch e.format {
	case FormatMarkdown:
		err = markdownTmpl.Execute(&buf, struct{ Document string }{doc})
	case FormatHTML:
		err = pageTmpl.Execute(&buf, struct {
			Module     string
			Document   string
			IndexHref  string
			MermaidURL string
		}{
			Module:     module,
			Document:   doc,
			IndexHref:  indexHref(key),
			MermaidURL: MermaidURL,
		})
	default:
		return nil, errs.Newf(errs.ErrKindConfig, "unsupported output format %q", e.format)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindUnknown, "render page for module "+module, err)
	}
	return buf.Bytes(), nil
}

// IsPageKey reports whether key names the index or a module page written
// into outputDir.
func IsPageKey(key, outputDir string) bool {
	key, err := filestore.CleanKey(key)
	if err != nil {
		return false
	}
	if key == IndexFilename {
		return true
	}
	dir, err := filestore.CleanKey(filepath.ToSlash(outputDir))
	if err != nil {
		return false
	}
	for _, f := range []Format{FormatMarkdown, FormatHTML} {
		page := dir + "/" + f.Filename()
		if key == page || strings.HasSuffix(key, "/"+page) {
			return true
		}
	}
	return false
}

// indexHref is the relative link from the page at key back to the index.
func indexHref(key string) string {
	return strings.Repeat("../", strings.Count(key, "/")) + IndexFilename
}

// ProjectTitle returns override when set, otherwise the base name of root
// title cased with separators turned into spaces.
func ProjectTitle(root, override string) string {
	if override != "" {
		return override
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	name := strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(filepath.Base(abs))
	return cases.Title(language.English).String(name)
}
