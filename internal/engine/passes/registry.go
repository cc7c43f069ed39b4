// Package passes collects the GPU bindings and shader defines that render
// passes resolve by name.
package passes

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/lightsched/internal/engine/shader"
)

// Registry stores static values, per-use resolvers and shader defines.
// Registering a name twice replaces the earlier binding.
type Registry struct {
	mu      sync.RWMutex
	static  map[string]any
	dynamic map[string]func() any
	defines shader.Defines
	log     *zap.Logger
}

// NewRegistry creates an empty registry. log may be nil.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		static:  make(map[string]any),
		dynamic: make(map[string]func() any),
		defines: shader.Defines{},
		log:     log,
	}
}

// RegisterStatic binds value under name.
func (r *Registry) RegisterStatic(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dynamic[name]; ok {
		r.log.Warn("static binding replaces dynamic binding", zap.String("name", name))
		delete(r.dynamic, name)
	}
	r.static[name] = value
}

// RegisterDynamic binds a resolver called on every Resolve of name.
func (r *Registry) RegisterDynamic(name string, bind func() any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.static[name]; ok {
		r.log.Warn("dynamic binding replaces static binding", zap.String("name", name))
		delete(r.static, name)
	}
	r.dynamic[name] = bind
}

// RegisterDefine adds a shader define.
func (r *Registry) RegisterDefine(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defines.Set(name, value)
}

// Resolve returns the current value bound to name.
func (r *Registry) Resolve(name string) (any, bool) {
	r.mu.RLock()
	v, ok := r.static[name]
	fn, isDynamic := r.dynamic[name]
	r.mu.RUnlock()

	if ok {
		return v, true
	}
	if isDynamic {
		return fn(), true
	}
	return nil, false
}

// Names returns every bound name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.static)+len(r.dynamic))
	for name := range r.static {
		names = append(names, name)
	}
	for name := range r.dynamic {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defines returns a copy of the registered defines.
func (r *Registry) Defines() shader.Defines {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(shader.Defines, len(r.defines))
	for k, v := range r.defines {
		out[k] = v
	}
	return out
}
