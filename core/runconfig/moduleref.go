// Package runconfig implements run configurations and their module
// binding. The central type is ModuleReference: a persisted, lazily
// resolved pointer from a run configuration to a named module in a
// project. The stored module name is the source of truth; the resolved
// handle is a cache that is recomputed on every read and never trusted
// across disposal or renames.
//
// ModuleReference assumes single-threaded access. Callers that share a
// reference across goroutines serialize access themselves; the project
// model it reads from is safe for concurrent use.
package runconfig

import (
	"strings"

	"github.com/FocuswithJustin/Gantry/core/project"
)

// ModuleReference binds a run configuration to a module by name.
// The zero value is not usable; create references with New.
type ModuleReference struct {
	project    *project.Project
	moduleName string

	// cached is a derived value: the result of the last resolution.
	// It is overwritten on every Resolve while a name is stored and
	// cleared when the cached module turns out to be disposed.
	cached *project.Module
}

// New creates an unbound reference within p.
func New(p *project.Project) *ModuleReference {
	return &ModuleReference{project: p}
}

// Project returns the owning project.
func (r *ModuleReference) Project() *project.Project {
	return r.project
}

// Resolve returns the referenced module, re-resolving the stored name
// against the current registry. It returns nil when no name is stored,
// the project is disposed, the name does not resolve, or the resolved
// module is disposed. Resolve is idempotent and performs no I/O.
func (r *ModuleReference) Resolve() *project.Module {
	if r.moduleName != "" {
		r.cached = r.findModule(r.moduleName)
	}
	if r.cached != nil && r.cached.IsDisposed() {
		r.cached = nil
	}
	return r.cached
}

func (r *ModuleReference) findModule(name string) *project.Module {
	if r.project.IsDisposed() {
		return nil
	}
	return r.project.ModuleManager().FindModuleByName(name)
}

// SetModule binds the reference to m directly, deriving the stored name
// from the module's current name. A nil module unbinds the reference.
// No resolution is performed.
func (r *ModuleReference) SetModule(m *project.Module) {
	r.cached = m
	if m != nil {
		r.moduleName = m.Name()
	} else {
		r.moduleName = ""
	}
}

// SetModuleName stores a new module name. Setting the name already stored
// is a no-op and keeps the cache; any other name clears the cache so the
// next Resolve starts fresh.
func (r *ModuleReference) SetModuleName(name string) {
	if r.moduleName != name {
		r.moduleName = name
		r.cached = nil
	}
}

// ModuleName returns the stored module name, "" when unset.
func (r *ModuleReference) ModuleName() string {
	return r.moduleName
}

// InitDefault binds the reference to the first module of the project when
// no name is stored yet. A whitespace-only stored name counts as unset.
// Projects without modules leave the reference unbound.
func (r *ModuleReference) InitDefault() {
	if strings.TrimSpace(r.moduleName) != "" {
		return
	}
	modules := r.project.ModuleManager().Modules()
	if len(modules) > 0 {
		r.SetModule(modules[0])
	}
}
