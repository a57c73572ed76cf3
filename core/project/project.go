// Package project provides an in-memory project model: named modules with
// toolchain associations, unloaded module descriptors, and disposal
// tracking. Run configurations resolve module names against this model
// through the ModuleManager interface.
package project

import (
	"sync"

	"github.com/FocuswithJustin/Gantry/core/errors"
)

// Project is a disposable container of modules.
type Project struct {
	name string

	mu       sync.RWMutex
	disposed bool

	mgr *manager
}

// New creates an empty project with the given name.
func New(name string) *Project {
	return &Project{
		name: name,
		mgr:  newManager(),
	}
}

// Name returns the project name.
func (p *Project) Name() string {
	return p.name
}

// IsDisposed reports whether Dispose has been called.
func (p *Project) IsDisposed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.disposed
}

// Dispose marks the project disposed and cascades to every module.
// Dispose is idempotent.
func (p *Project) Dispose() {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.disposed = true
	p.mu.Unlock()

	p.mgr.disposeAll()
}

// ModuleManager returns the project's module registry.
func (p *Project) ModuleManager() ModuleManager {
	return p.mgr
}

// NewModule creates and registers a module with the given name.
func (p *Project) NewModule(name string) (*Module, error) {
	if name == "" {
		return nil, errors.NewValidation("name", "module name must not be empty")
	}
	if p.IsDisposed() {
		return nil, errors.NewDisposed("project", p.name)
	}
	if p.mgr.FindModuleByName(name) != nil {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "module %q", name)
	}

	m := &Module{mgr: p.mgr, name: name}
	p.mgr.add(m)
	return m, nil
}

// RemoveModule drops the named module from the registry and disposes it.
func (p *Project) RemoveModule(name string) error {
	m := p.mgr.remove(name)
	if m == nil {
		return errors.NewNotFound("module", name)
	}
	m.Dispose()
	return nil
}

// UnloadModule removes the named module from the live registry and records
// an unloaded descriptor in its place. The descriptor keeps the name and
// the last known toolchain so stored references to the module can report a
// precise diagnostic instead of a bare lookup failure.
func (p *Project) UnloadModule(name string) error {
	p.mgr.mu.Lock()
	defer p.mgr.mu.Unlock()

	m := p.mgr.byName[name]
	if m == nil {
		return errors.NewNotFound("module", name)
	}

	desc := &UnloadedModuleDescription{Name: name}
	if m.toolchain != nil {
		desc.ToolchainID = m.toolchain.ID
	}

	delete(p.mgr.byName, name)
	for i, candidate := range p.mgr.modules {
		if candidate == m {
			p.mgr.modules = append(p.mgr.modules[:i], p.mgr.modules[i+1:]...)
			break
		}
	}
	m.disposed = true
	p.mgr.unloaded[name] = desc
	return nil
}
