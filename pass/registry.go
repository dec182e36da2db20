package pass

import (
	"sort"
	"sync"

	"github.com/wippyai/rcopt/errors"
)

// Constructor creates a fresh pass instance.
type Constructor func() FunctionPass

// Registry maps pass names to constructors.
//
// Pipelines are described by pass name in configuration files; the registry
// turns those names into pass instances. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Default is the registry the command line tool and rcopt.Optimize use.
var Default = NewRegistry()

// Register adds a constructor under name.
//
// If a constructor was already registered under this name, it is replaced.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[name] = ctor
}

// Has returns true if a pass is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[name]
	return ok
}

// Names returns the registered pass names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New instantiates the pass registered under name.
func (r *Registry) New(name string) (FunctionPass, error) {
	p, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Registry) lookup(name string) (FunctionPass, *errors.Error) {
	r.mu.RLock()
	ctor, ok := r.ctors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseConfig, "pass", name)
	}
	return ctor(), nil
}

// Pipeline instantiates the named passes in order.
func (r *Registry) Pipeline(names []string) ([]FunctionPass, error) {
	passes := make([]FunctionPass, 0, len(names))
	var errs errors.Errors
	for _, name := range names {
		p, err := r.lookup(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		passes = append(passes, p)
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return passes, nil
}
