package generate

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/export"
	"github.com/david-delgrosso/django-er-diagram/internal/metadata"
)

// vendoredDirs mark third-party code that is never diagrammed.
var vendoredDirs = map[string]struct{}{
	"site-packages": {},
	"dist-packages": {},
	"vendor":        {},
	"node_modules":  {},
}

// Options controls one generation run.
type Options struct {
	// Only restricts the run to these modules (by name or label).
	Only []string
	// Ignore skips these modules (by name or label).
	Ignore []string

	Format      export.Format
	OutputDir   string
	ProjectRoot string
	// ProjectName overrides the index title derived from ProjectRoot.
	ProjectName string
	// ExtraTypes are field type tags recognised on top of the built-ins.
	ExtraTypes []string
}

// Validate checks the options that must hold before anything is written.
func (o *Options) Validate() error {
	if overlap := intersect(o.Only, o.Ignore); len(overlap) > 0 {
		return errs.Newf(errs.ErrKindConfig,
			"modules cannot be both included and ignored: %s", strings.Join(overlap, ", "))
	}
	f, err := export.ParseFormat(string(o.Format))
	if err != nil {
		return err
	}
	o.Format = f
	return nil
}

// selector decides which modules a run processes.
type selector struct {
	root   string
	only   map[string]struct{}
	ignore map[string]struct{}
}

func newSelector(root string, only, ignore []string) *selector {
	return &selector{root: root, only: toSet(only), ignore: toSet(ignore)}
}

// reason returns why mod is skipped, or "" when it is selected.
func (s *selector) reason(mod metadata.Module) string {
	if len(mod.Models) == 0 {
		return "no models"
	}
	rel, ok := s.relative(mod.Path)
	if !ok {
		return "outside project root"
	}
	if vendored(rel) {
		return "third-party module"
	}
	if len(s.only) > 0 && !matches(s.only, mod) {
		return "not in only list"
	}
	if matches(s.ignore, mod) {
		return "ignored"
	}
	return ""
}

// relative returns path relative to the project root, and false when
// path lies outside it.
func (s *selector) relative(path string) (string, bool) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func vendored(rel string) bool {
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if _, ok := vendoredDirs[part]; ok {
			return true
		}
	}
	return false
}

func matches(set map[string]struct{}, mod metadata.Module) bool {
	if _, ok := set[mod.Name]; ok {
		return true
	}
	_, ok := set[mod.Label]
	return ok && mod.Label != ""
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func intersect(a, b []string) []string {
	bs := toSet(b)
	seen := make(map[string]struct{})
	var out []string
	for _, n := range a {
		n = strings.TrimSpace(n)
		if _, ok := bs[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
