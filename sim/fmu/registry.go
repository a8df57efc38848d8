package fmu

import (
	"fmt"
	"sort"
	"sync"
)

// Variables is the model's view of a unit's signal storage, addressed by
// value reference. Boolean and integer references are separate namespaces.
type Variables interface {
	Bool(ref uint32) bool
	SetBool(ref uint32, b bool)
	Int(ref uint32) int64
	SetInt(ref uint32, i int64)
}

// Model is the numeric behaviour behind a unit. Models are opaque to the rest
// of the system; only the Instance calls them.
type Model interface {
	// Bind resolves the references the model needs from its descriptor.
	Bind(d *Descriptor) error
	// Calculate recomputes outputs from the current inputs. The instance
	// calls it before every output read.
	Calculate(v Variables)
	// DoStep advances internal state from t to t+h.
	DoStep(v Variables, t, h float64) error
}

// Factory creates a fresh model instance.
type Factory func() Model

// builtinSource is an embedded descriptor document.
type builtinSource struct {
	filename string
	data     []byte
}

var (
	registryMu sync.RWMutex
	models     = map[string]Factory{}
	builtins   = map[string]builtinSource{}
)

// RegisterModel makes a model implementation available under the model
// identifier that descriptors name as their entry point.
func RegisterModel(identifier string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := models[identifier]; dup {
		panic(fmt.Sprintf("fmu: model %q registered twice", identifier))
	}
	models[identifier] = f
}

// RegisterBuiltin registers an embedded descriptor resolvable as
// "builtin:<name>". The filename extension selects the parser.
func RegisterBuiltin(name, filename string, data []byte) {
	registryMu.Lock()
	defer registryMu.Unlock()
	builtins[name] = builtinSource{filename: filename, data: data}
}

func lookupModel(identifier string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := models[identifier]
	return f, ok
}

func lookupBuiltin(name string) (builtinSource, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := builtins[name]
	return b, ok
}

// RegisteredModels lists registered model identifiers in sorted order.
func RegisteredModels() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(models))
	for id := range models {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// BuiltinNames lists registered builtin descriptor names in sorted order.
func BuiltinNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(builtins))
	for name := range builtins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
