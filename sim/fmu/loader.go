package fmu

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vecu-cosim/cosim-host/sim"
)

// BuiltinPrefix marks unit identifiers resolved from embedded descriptors.
const BuiltinPrefix = "builtin:"

// descriptorNames are tried in order inside a package directory.
var descriptorNames = []string{
	"modelDescription.xml",
	"modelDescription.yaml",
	"modelDescription.yml",
	"modelDescription.json",
	"modelDescription.jsonc",
}

// Loader resolves unit identifiers to descriptors.
type Loader struct {
	// CacheDir receives extracted packages. Empty means a directory under
	// the user cache.
	CacheDir string
}

// NewLoader returns a Loader extracting into cacheDir.
func NewLoader(cacheDir string) *Loader {
	return &Loader{CacheDir: cacheDir}
}

// DefaultCacheDir is the extraction directory used when none is configured.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "cosim-host", "units")
	}
	return filepath.Join(os.TempDir(), "cosim-host", "units")
}

// Load resolves id to a validated descriptor. id is "builtin:<name>", a
// zipped package (.fmu/.zip), an extracted package directory, or a single
// descriptor file. Every failure wraps sim.ErrInstantiation.
func (l *Loader) Load(id string) (*Descriptor, error) {
	d, err := l.load(id)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %q: %v", sim.ErrInstantiation, id, err)
	}
	return d, nil
}

func (l *Loader) load(id string) (*Descriptor, error) {
	if name, ok := strings.CutPrefix(id, BuiltinPrefix); ok {
		src, found := lookupBuiltin(name)
		if !found {
			return nil, fmt.Errorf("no builtin unit %q (have %v)", name, BuiltinNames())
		}
		d, err := Parse(src.filename, src.data)
		if err != nil {
			return nil, err
		}
		d.Source = id
		return d, nil
	}

	info, err := os.Stat(id)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return loadDir(id)
	}
	switch strings.ToLower(filepath.Ext(id)) {
	case ".fmu", ".zip":
		cache := l.CacheDir
		if cache == "" {
			cache = DefaultCacheDir()
		}
		dir, err := extract(id, cache)
		if err != nil {
			return nil, err
		}
		logrus.Debugf("Extracted %s to %s", id, dir)
		return loadDir(dir)
	default:
		return loadFile(id)
	}
}

func loadDir(dir string) (*Descriptor, error) {
	for _, name := range descriptorNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return loadFile(path)
		}
	}
	return nil, fmt.Errorf("no model description in %s", dir)
}

func loadFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}
