package project

import (
	"github.com/FocuswithJustin/Gantry/core/errors"
)

// Toolchain identifies the compiler or runtime a module builds against.
type Toolchain struct {
	ID      string
	Version string
}

// Module is a named component of a project. Modules are created through
// Project.NewModule and remain valid handles after disposal; callers are
// expected to check IsDisposed before trusting a retained pointer.
type Module struct {
	mgr       *manager
	name      string
	toolchain *Toolchain
	disposed  bool
}

// Name returns the module's current name.
func (m *Module) Name() string {
	m.mgr.mu.RLock()
	defer m.mgr.mu.RUnlock()
	return m.name
}

// IsDisposed reports whether the module has been disposed, either directly
// or through disposal of its project.
func (m *Module) IsDisposed() bool {
	m.mgr.mu.RLock()
	defer m.mgr.mu.RUnlock()
	return m.disposed
}

// Toolchain returns the module's associated toolchain, or nil when none
// has been assigned.
func (m *Module) Toolchain() *Toolchain {
	m.mgr.mu.RLock()
	defer m.mgr.mu.RUnlock()
	return m.toolchain
}

// SetToolchain assigns or clears the module's toolchain.
func (m *Module) SetToolchain(tc *Toolchain) {
	m.mgr.mu.Lock()
	defer m.mgr.mu.Unlock()
	m.toolchain = tc
}

// Rename changes the module's name and updates the registry index.
// Retained references that resolve by the old name stop resolving; that is
// the caller's concern, not the registry's.
func (m *Module) Rename(name string) error {
	if name == "" {
		return errors.NewValidation("name", "module name must not be empty")
	}

	m.mgr.mu.Lock()
	defer m.mgr.mu.Unlock()

	if m.disposed {
		return errors.NewDisposed("module", m.name)
	}
	if name == m.name {
		return nil
	}
	if _, exists := m.mgr.byName[name]; exists {
		return errors.Wrapf(errors.ErrAlreadyExists, "module %q", name)
	}

	delete(m.mgr.byName, m.name)
	m.name = name
	m.mgr.byName[name] = m
	return nil
}

// Dispose marks the module disposed. The module stays in the registry so
// that stale handles can observe the disposal; use Project.RemoveModule to
// drop it entirely.
func (m *Module) Dispose() {
	m.mgr.mu.Lock()
	defer m.mgr.mu.Unlock()
	m.disposed = true
}
