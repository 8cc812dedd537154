// Package generate runs the diagram pipeline over every selected module
// of a project: load metadata, build and render each diagram, export the
// pages and finally the index.
package generate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/david-delgrosso/django-er-diagram/internal/erd"
	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/export"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore"
	"github.com/david-delgrosso/django-er-diagram/internal/logger"
	"github.com/david-delgrosso/django-er-diagram/internal/metadata"
)

// ModuleError records a module whose page could not be written.
type ModuleError struct {
	Module string
	Err    error
}

// Result is what a run produced.
type Result struct {
	Pages []export.Page
	// Index is the index page key; empty in Markdown mode.
	Index    string
	Skipped  []string
	Warnings []erd.Warning
	Failed   []ModuleError
}

// Runner wires a metadata provider to an output store.
type Runner struct {
	provider metadata.Provider
	store    filestore.Store
	log      *logger.Logger
}

// NewRunner returns a Runner. A nil log discards all output.
func NewRunner(provider metadata.Provider, store filestore.Store, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{provider: provider, store: store, log: log}
}

// Run generates a diagram page for every selected module. Invalid options
// fail before anything is loaded or written. A module that cannot be
// written does not stop the others; the returned error then lists every
// failed module and Result still describes what was written.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(opts.ProjectRoot)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "cannot resolve project root", err)
	}
	exp, err := export.New(r.store, opts.Format, opts.OutputDir, root)
	if err != nil {
		return nil, err
	}

	modules, err := r.provider.Modules(ctx)
	if err != nil {
		return nil, err
	}

	classifier := erd.NewClassifier(opts.ExtraTypes...)
	sel := newSelector(root, opts.Only, opts.Ignore)
	res := &Result{}

	for _, mod := range modules {
		if reason := sel.reason(mod); reason != "" {
			r.log.With().Str("module", mod.Name).Str("reason", reason).Logger().Debug("skipping module")
			res.Skipped = append(res.Skipped, mod.Name)
			continue
		}

		page, warnings, err := r.generate(ctx, exp, classifier, mod)
		res.Warnings = append(res.Warnings, warnings...)
		if err != nil {
			r.log.ErrorWith("failed to write diagram", err, map[string]interface{}{"module": mod.Name})
			res.Failed = append(res.Failed, ModuleError{Module: mod.Name, Err: err})
			continue
		}
		res.Pages = append(res.Pages, page)
	}

	if len(res.Pages) == 0 && len(res.Failed) == 0 {
		r.log.Warnf("no module selected out of %d under %s", len(modules), root)
	}

	if exp.Format().HasIndex() {
		info, err := exp.WriteIndex(ctx, export.ProjectTitle(root, opts.ProjectName), res.Pages)
		if err != nil {
			return res, err
		}
		res.Index = info.Key
		r.log.With().Str("key", info.Key).Int("pages", len(res.Pages)).Logger().Info("wrote index")
	}

	return res, res.err()
}

func (r *Runner) generate(ctx context.Context, exp *export.Exporter, c *erd.Classifier, mod metadata.Module) (export.Page, []erd.Warning, error) {
	diagram := erd.Build(mod, c)
	for _, w := range diagram.Warnings {
		r.log.WarnWith(w.Reason, map[string]interface{}{
			"module": w.Module,
			"model":  w.Model,
			"field":  w.Field,
			"type":   w.Type,
		})
	}

	page, err := exp.Export(ctx, mod, diagram.Render())
	if err != nil {
		return export.Page{}, diagram.Warnings, err
	}
	r.log.InfoWith(SuccessMessage(mod.Name), map[string]interface{}{
		"module":    mod.Name,
		"key":       page.Key,
		"models":    len(diagram.Models),
		"relations": diagram.Relations.Len(),
	})
	return page, diagram.Warnings, nil
}

// SuccessMessage is the line reported for each generated module.
func SuccessMessage(module string) string {
	return fmt.Sprintf("Generated ER diagram for module '%s'", module)
}

func (res *Result) err() error {
	if len(res.Failed) == 0 {
		return nil
	}
	names := make([]string, len(res.Failed))
	causes := make([]error, len(res.Failed))
	for i, f := range res.Failed {
		names[i] = f.Module
		causes[i] = f.Err
	}
	return errs.Wrap(errs.ErrKindIO,
		fmt.Sprintf("failed to write diagrams for %d module(s): %s", len(names), strings.Join(names, ", ")),
		errors.Join(causes...))
}
