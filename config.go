package epubsplit

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/simp-lee/epubsplit/internal/yamlutil"
)

// Config describes one run: where the source lives, where to extract and
// write, the attribution stamped into every package and the unit table.
type Config struct {
	// Source is the path of the source ePub.
	Source string `yaml:"source"`

	// WorkDir receives the extracted source tree.
	WorkDir string `yaml:"workDir"`

	// OutputDir receives one <unit-id>.epub per unit.
	OutputDir string `yaml:"outputDir"`

	// FragmentDir is the directory inside the source archive that holds
	// the fragment documents (forward-slash separated).
	FragmentDir string `yaml:"fragmentDir"`

	Attribution Attribution `yaml:"attribution"`

	Units Units `yaml:"units"`
}

// Units is the ordered unit table of a run.
type Units []Unit

// Values of the built-in config (defaults.yaml).
const (
	DefaultWorkDir     = "build/source"
	DefaultOutputDir   = "public/books"
	DefaultFragmentDir = "OPS"
	DefaultLanguage    = "ru"
	DefaultModified    = "2026-02-18T00:00:00Z"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var builtinConfig = sync.OnceValue(func() Config {
	var cfg Config
	if err := yamlutil.UnmarshalStrict(defaultsYAML, &cfg); err != nil {
		panic("epubsplit: built-in defaults: " + err.Error())
	}
	return cfg
})

// DefaultConfig returns the built-in config: the compiled-in unit table
// and attribution with every optional field set. Source is left empty.
func DefaultConfig() Config {
	cfg := builtinConfig()
	cfg.Units = cfg.Units.clone()
	return cfg
}

func (us Units) clone() Units {
	if us == nil {
		return nil
	}
	out := make(Units, len(us))
	for i, u := range us {
		u.Fragments = slices.Clone(u.Fragments)
		out[i] = u
	}
	return out
}

// LoadConfig reads a YAML config file over DefaultConfig and validates it.
// Relative source, work and output paths are resolved against the
// directory of the config file.
func LoadConfig(name string) (Config, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return Config{}, fmt.Errorf("epubsplit: read config %s: %w: %w", name, ErrConfig, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("epubsplit: config %s: %w", name, err)
	}

	base := filepath.Dir(name)
	for _, p := range []*string{&cfg.Source, &cfg.WorkDir, &cfg.OutputDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return cfg, nil
}

// ParseConfig decodes YAML config data over DefaultConfig and validates it.
// Unknown keys are rejected. A units list replaces the built-in table and
// an attribution block replaces the built-in attribution; keys left out
// or empty keep their defaults.
func ParseConfig(data []byte) (Config, error) {
	var user Config
	if err := yamlutil.UnmarshalStrict(data, &user); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	cfg := DefaultConfig()
	cfg.merge(user)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// merge overlays the non-empty fields of user onto c.
func (c *Config) merge(user Config) {
	setField(&c.Source, user.Source)
	setField(&c.WorkDir, user.WorkDir)
	setField(&c.OutputDir, user.OutputDir)
	setField(&c.FragmentDir, user.FragmentDir)
	if user.Attribution != (Attribution{}) {
		attr := user.Attribution
		setDefault(&attr.Language, c.Attribution.Language)
		setDefault(&attr.Modified, c.Attribution.Modified)
		c.Attribution = attr
	}
	if user.Units != nil {
		c.Units = user.Units
	}
}

func setField(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func setDefault(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}

// Validate checks the config's required fields and its unit table.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Source) == "" {
		errs = append(errs, fmt.Errorf("epubsplit: source is required: %w", ErrConfig))
	}
	if strings.TrimSpace(c.WorkDir) == "" {
		errs = append(errs, fmt.Errorf("epubsplit: workDir is required: %w", ErrConfig))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, fmt.Errorf("epubsplit: outputDir is required: %w", ErrConfig))
	}
	if c.FragmentDir != "" && !isSafePath(c.FragmentDir) {
		errs = append(errs, fmt.Errorf("epubsplit: fragmentDir %q escapes the source: %w", c.FragmentDir, ErrConfig))
	}
	if c.Attribution.Modified != "" {
		if _, err := time.Parse(time.RFC3339, c.Attribution.Modified); err != nil || !strings.HasSuffix(c.Attribution.Modified, "Z") {
			errs = append(errs, fmt.Errorf("epubsplit: attribution.modified %q is not CCYY-MM-DDThh:mm:ssZ: %w", c.Attribution.Modified, ErrConfig))
		}
	}
	if err := c.Units.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// FragmentPath returns the on-disk path of a fragment in the extracted tree.
func (c Config) FragmentPath(fragment string) string {
	return filepath.Join(c.WorkDir, filepath.FromSlash(path.Join(c.FragmentDir, fragment)))
}

// unitIDPattern restricts unit ids to names that are safe as file names.
var unitIDPattern = regexp.MustCompile(`^[A-Za-z0-9\p{Han}][A-Za-z0-9\p{Han}._-]*$`)

// Validate checks that the table is non-empty, ids are unique file-safe
// names, and every unit has a title and at least one safe fragment name.
func (us Units) Validate() error {
	if len(us) == 0 {
		return fmt.Errorf("epubsplit: unit table is empty: %w", ErrInvalidUnit)
	}
	seen := make(map[string]bool, len(us))
	for i, u := range us {
		switch {
		case !unitIDPattern.MatchString(u.ID):
			return fmt.Errorf("epubsplit: unit %d: id %q is not a safe file name: %w", i, u.ID, ErrInvalidUnit)
		case seen[u.ID]:
			return fmt.Errorf("epubsplit: unit %q: duplicate id: %w", u.ID, ErrInvalidUnit)
		case strings.TrimSpace(u.Title) == "":
			return fmt.Errorf("epubsplit: unit %q: empty title: %w", u.ID, ErrInvalidUnit)
		case len(u.Fragments) == 0:
			return fmt.Errorf("epubsplit: unit %q: no fragments: %w", u.ID, ErrInvalidUnit)
		}
		for _, f := range u.Fragments {
			if strings.TrimSpace(f) == "" || !isSafePath(f) {
				return fmt.Errorf("epubsplit: unit %q: unsafe fragment name %q: %w", u.ID, f, ErrInvalidUnit)
			}
		}
		seen[u.ID] = true
	}
	return nil
}

// Lookup returns the unit with the given id.
func (us Units) Lookup(id string) (Unit, bool) {
	for _, u := range us {
		if u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}

// Select returns the units whose ids are listed, in table order.
// Unknown ids are reported as ErrInvalidUnit.
func (us Units) Select(ids []string) (Units, error) {
	if len(ids) == 0 {
		return us, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := us.Lookup(id); !ok {
			return nil, fmt.Errorf("epubsplit: unknown unit %q: %w", id, ErrInvalidUnit)
		}
		want[id] = true
	}
	var out Units
	for _, u := range us {
		if want[u.ID] {
			out = append(out, u)
		}
	}
	return out, nil
}
