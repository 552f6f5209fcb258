// Package fonts discovers installed TrueType/OpenType fonts and hands out
// faces for rendering.
package fonts

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"qlweb/internal/domain"
	"qlweb/internal/infra/logging"
)

const builtinPrefix = "builtin:"

// Spec names a family/style pair.
type Spec struct {
	Family string
	Style  string
}

func (s Spec) String() string { return fmt.Sprintf("%s (%s)", s.Family, s.Style) }

var builtins = []struct {
	spec Spec
	data []byte
}{
	{Spec{"Go", "Regular"}, goregular.TTF},
	{Spec{"Go", "Bold"}, gobold.TTF},
	{Spec{"Go", "Italic"}, goitalic.TTF},
	{Spec{"Go", "Bold Italic"}, gobolditalic.TTF},
	{Spec{"Go Mono", "Regular"}, gomono.TTF},
	{Spec{"Go Mono", "Bold"}, gomonobold.TTF},
}

// Registry maps family -> style -> font file. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	families map[string]map[string]string
	parsed   map[string]*opentype.Font
}

// NewRegistry returns a registry holding only the built-in Go fonts.
func NewRegistry() *Registry {
	r := newEmptyRegistry()
	for _, b := range builtins {
		r.add(b.spec, builtinPrefix+b.spec.String())
	}
	return r
}

func newEmptyRegistry() *Registry {
	return &Registry{
		families: make(map[string]map[string]string),
		parsed:   make(map[string]*opentype.Font),
	}
}

// SystemDirs lists the usual font directories of a Linux host.
func SystemDirs() []string {
	dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts"))
	}
	return dirs
}

// Discover builds a registry from the built-in fonts and every .ttf/.otf
// file below dirs. Missing directories are skipped.
func Discover(dirs ...string) *Registry {
	r := NewRegistry()
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := r.Scan(dir); err != nil {
			logging.Debug("font directory skipped", "dir", dir, "error", err)
		}
	}
	return r
}

// Scan adds the fonts found below dir.
func (r *Registry) Scan(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ttf", ".otf":
		default:
			return nil
		}
		spec, err := readNames(path)
		if err != nil {
			logging.Debug("font skipped", "path", path, "error", err)
			return nil
		}
		r.add(spec, path)
		return nil
	})
}

func readNames(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, err
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return Spec{}, err
	}
	var buf sfnt.Buffer
	family, err := f.Name(&buf, sfnt.NameIDFamily)
	if err != nil {
		return Spec{}, fmt.Errorf("family name: %w", err)
	}
	style, err := f.Name(&buf, sfnt.NameIDSubfamily)
	if err != nil || style == "" {
		style = "Regular"
	}
	return Spec{Family: strings.TrimSpace(family), Style: strings.TrimSpace(style)}, nil
}

func (r *Registry) add(spec Spec, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	styles, ok := r.families[spec.Family]
	if !ok {
		styles = make(map[string]string)
		r.families[spec.Family] = styles
	}
	if _, dup := styles[spec.Style]; !dup {
		styles[spec.Style] = path
	}
}

// Len returns the number of family/style pairs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, styles := range r.families {
		n += len(styles)
	}
	return n
}

// Families returns the sorted family names.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.families))
	for name := range r.families {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Styles returns the sorted style names of family.
func (r *Registry) Styles(family string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	styles := r.families[family]
	out := make([]string, 0, len(styles))
	for name := range styles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Path returns the font file of a family/style pair.
func (r *Registry) Path(family, style string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.families[family][style]
	return p, ok
}

// Has reports whether the pair is known.
func (r *Registry) Has(s Spec) bool {
	_, ok := r.Path(s.Family, s.Style)
	return ok
}

// SelectDefault returns the first candidate that is installed. Without a
// match it falls back to the first family and style in sorted order.
func (r *Registry) SelectDefault(candidates []Spec) (Spec, bool) {
	for _, c := range candidates {
		if r.Has(c) {
			return c, true
		}
	}
	families := r.Families()
	if len(families) == 0 {
		return Spec{}, false
	}
	styles := r.Styles(families[0])
	if len(styles) == 0 {
		return Spec{}, false
	}
	return Spec{Family: families[0], Style: styles[0]}, true
}

// Face returns a new face of size pixels. Faces are not safe for
// concurrent use, so every caller gets its own; parsed fonts are shared.
func (r *Registry) Face(family, style string, size float64) (font.Face, error) {
	path, ok := r.Path(family, style)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnknownFont, family, style)
	}
	f, err := r.load(path)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func (r *Registry) load(path string) (*opentype.Font, error) {
	r.mu.RLock()
	f, ok := r.parsed[path]
	r.mu.RUnlock()
	if ok {
		return f, nil
	}

	data, err := r.fontData(path)
	if err != nil {
		return nil, err
	}
	f, err = opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}

	r.mu.Lock()
	r.parsed[path] = f
	r.mu.Unlock()
	return f, nil
}

func (r *Registry) fontData(path string) ([]byte, error) {
	if strings.HasPrefix(path, builtinPrefix) {
		for _, b := range builtins {
			if builtinPrefix+b.spec.String() == path {
				return b.data, nil
			}
		}
		return nil, fmt.Errorf("unknown built-in font %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	return data, nil
}
