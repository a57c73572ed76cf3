package project

import (
	"sync"
)

// ModuleManager is the read surface of a project's module registry. The
// run-configuration layer resolves names through this interface and never
// mutates the registry.
type ModuleManager interface {
	// Modules returns the live modules in creation order. Disposed modules
	// that have not been removed are included.
	Modules() []*Module

	// FindModuleByName returns the module with the given name, or nil.
	// A disposed module that is still registered is returned as-is.
	FindModuleByName(name string) *Module

	// UnloadedModule returns the descriptor for a module that was unloaded
	// from the project, or nil when the name was never unloaded.
	UnloadedModule(name string) *UnloadedModuleDescription
}

// UnloadedModuleDescription records a module that was unloaded from the
// project but remains part of its stored configuration.
type UnloadedModuleDescription struct {
	Name        string
	ToolchainID string
}

// manager is the in-memory ModuleManager implementation. It owns all
// synchronization for module state; readers of individual modules share
// the same lock.
type manager struct {
	mu       sync.RWMutex
	modules  []*Module
	byName   map[string]*Module
	unloaded map[string]*UnloadedModuleDescription
}

func newManager() *manager {
	return &manager{
		byName:   make(map[string]*Module),
		unloaded: make(map[string]*UnloadedModuleDescription),
	}
}

// Modules returns the registered modules in creation order.
func (mgr *manager) Modules() []*Module {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	out := make([]*Module, len(mgr.modules))
	copy(out, mgr.modules)
	return out
}

// FindModuleByName returns the module with the given name, or nil.
func (mgr *manager) FindModuleByName(name string) *Module {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return mgr.byName[name]
}

// UnloadedModule returns the unloaded descriptor for name, or nil.
func (mgr *manager) UnloadedModule(name string) *UnloadedModuleDescription {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return mgr.unloaded[name]
}

// add registers a new module. Caller must not hold the lock.
func (mgr *manager) add(m *Module) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.modules = append(mgr.modules, m)
	mgr.byName[m.name] = m
}

// remove drops a module from the registry entirely.
func (mgr *manager) remove(name string) *Module {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	m := mgr.byName[name]
	if m == nil {
		return nil
	}
	delete(mgr.byName, name)
	for i, candidate := range mgr.modules {
		if candidate == m {
			mgr.modules = append(mgr.modules[:i], mgr.modules[i+1:]...)
			break
		}
	}
	return m
}

// disposeAll marks every registered module disposed.
func (mgr *manager) disposeAll() {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	for _, m := range mgr.modules {
		m.disposed = true
	}
}
