package epubsplit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
)

// Options configures a Builder.
type Options struct {
	// Logger receives progress and warnings. Nil disables logging.
	Logger *zap.Logger

	// Normalizer cleans each fragment. The zero value uses DefaultStages.
	Normalizer Normalizer

	// StopOnError aborts the run at the first failed unit. By default a
	// failed unit is recorded and the remaining units are still built.
	StopOnError bool

	// Verify reads every written package back with Inspect.
	Verify bool
}

// UnitResult is the outcome of building one unit.
type UnitResult struct {
	Unit Unit

	// Path and Size describe the written package; empty on failure.
	Path string
	Size int64

	// EmptyFragments lists fragments that had no <body> and contributed
	// nothing to the package.
	EmptyFragments []string

	Err error
}

// Report summarizes a Run.
type Report struct {
	Extraction Extraction
	Results    []UnitResult
}

// Failed returns the results whose unit could not be built.
func (r Report) Failed() []UnitResult {
	var out []UnitResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Bytes returns the total size of the packages written.
func (r Report) Bytes() int64 {
	var n int64
	for _, res := range r.Results {
		n += res.Size
	}
	return n
}

// Builder runs the extract, normalize and assemble stages for a unit table.
// A Builder is not safe for concurrent use.
type Builder struct {
	opts Options
	log  *zap.Logger

	// normalized caches fragment output by path; fragments are immutable
	// for the duration of a run.
	normalized map[string]normalizedFragment
}

type normalizedFragment struct {
	body  string
	empty bool
}

// NewBuilder returns a Builder using opts.
func NewBuilder(opts Options) *Builder {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{opts: opts, log: log}
}

// Run extracts cfg.Source and builds every unit of cfg.Units in order.
// Extraction failures abort the run. Unit failures are joined into the
// returned error; see Options.StopOnError.
func (b *Builder) Run(cfg Config) (Report, error) {
	var report Report
	if err := cfg.Validate(); err != nil {
		return report, err
	}
	b.normalized = make(map[string]normalizedFragment)

	b.log.Info("extracting source", zap.String("source", cfg.Source), zap.String("dir", cfg.WorkDir))
	ex, err := Extract(cfg.Source, cfg.WorkDir)
	if err != nil {
		return report, err
	}
	report.Extraction = ex
	b.log.Debug("source extracted", zap.Int("files", ex.Files), zap.Int64("bytes", ex.Bytes))
	if ex.ObfuscatedFonts {
		b.log.Warn("source uses font obfuscation; fonts are not carried into packages")
	}

	var errs []error
	for _, u := range cfg.Units {
		res := b.BuildUnit(cfg, u)
		report.Results = append(report.Results, res)
		if res.Err != nil {
			b.log.Error("unit failed", zap.String("unit", u.ID), zap.Error(res.Err))
			errs = append(errs, res.Err)
			if b.opts.StopOnError {
				break
			}
			continue
		}
		b.log.Info("wrote package",
			zap.String("unit", u.ID),
			zap.String("path", res.Path),
			zap.Int64("size", res.Size),
		)
	}
	return report, errors.Join(errs...)
}

// BuildUnit normalizes, assembles and writes a single unit from an already
// extracted source tree.
func (b *Builder) BuildUnit(cfg Config, u Unit) UnitResult {
	res := UnitResult{Unit: u}
	if b.normalized == nil {
		b.normalized = make(map[string]normalizedFragment)
	}

	bodies := make([]string, 0, len(u.Fragments))
	for _, name := range u.Fragments {
		frag, err := b.fragment(cfg, name)
		if err != nil {
			res.Err = fmt.Errorf("epubsplit: unit %q: %w", u.ID, err)
			return res
		}
		if frag.empty {
			b.log.Warn("fragment has no body", zap.String("unit", u.ID), zap.String("fragment", name))
			res.EmptyFragments = append(res.EmptyFragments, name)
		}
		bodies = append(bodies, frag.body)
	}

	doc, err := Assemble(u, bodies, cfg.Attribution)
	if err != nil {
		res.Err = fmt.Errorf("epubsplit: unit %q: %w", u.ID, err)
		return res
	}
	path, size, err := WritePackage(cfg.OutputDir, doc)
	if err != nil {
		res.Err = fmt.Errorf("epubsplit: unit %q: %w", u.ID, err)
		return res
	}
	res.Path, res.Size = path, size

	if b.opts.Verify {
		if _, err := Inspect(path); err != nil {
			res.Err = fmt.Errorf("epubsplit: unit %q: verify: %w", u.ID, err)
			return res
		}
		b.log.Debug("package verified", zap.String("unit", u.ID))
	}
	return res
}

// fragment reads and normalizes one fragment, using the run cache.
func (b *Builder) fragment(cfg Config, name string) (normalizedFragment, error) {
	p := cfg.FragmentPath(name)
	if frag, ok := b.normalized[p]; ok {
		return frag, nil
	}

	raw, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return normalizedFragment{}, fmt.Errorf("%w: %s", ErrFragmentNotFound, name)
		}
		return normalizedFragment{}, fmt.Errorf("epubsplit: read fragment %s: %w", name, err)
	}

	content := string(stripBOM(raw))
	_, hasBody := BodyContent(content)
	frag := normalizedFragment{
		body:  b.opts.Normalizer.Normalize(content),
		empty: !hasBody,
	}
	b.normalized[p] = frag
	return frag, nil
}
