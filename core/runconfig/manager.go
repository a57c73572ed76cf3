package runconfig

import (
	"github.com/FocuswithJustin/Gantry/core/errors"
	"github.com/FocuswithJustin/Gantry/core/project"
	"github.com/FocuswithJustin/Gantry/core/xml"
)

const (
	elementConfiguration = "configuration"
	attrSelected         = "selected"
)

// Manager is the ordered collection of run configurations for one
// project. Like ModuleReference it assumes single-threaded access;
// concurrent callers serialize around it.
type Manager struct {
	project  *project.Project
	configs  []*RunConfiguration
	selected string // configuration ID, "" when none
}

// NewManager creates an empty manager for p.
func NewManager(p *project.Project) *Manager {
	return &Manager{project: p}
}

// Project returns the owning project.
func (m *Manager) Project() *project.Project {
	return m.project
}

// Add appends a configuration. Names are unique within a manager.
func (m *Manager) Add(c *RunConfiguration) error {
	if c.Name == "" {
		return errors.NewValidation("name", "configuration name must not be empty")
	}
	if m.FindByName(c.Name) != nil {
		return errors.Wrapf(errors.ErrAlreadyExists, "configuration %q", c.Name)
	}
	m.configs = append(m.configs, c)
	return nil
}

// Remove drops the named configuration. Removing the selected
// configuration clears the selection.
func (m *Manager) Remove(name string) error {
	for i, c := range m.configs {
		if c.Name == name {
			if m.selected == c.ID {
				m.selected = ""
			}
			m.configs = append(m.configs[:i], m.configs[i+1:]...)
			return nil
		}
	}
	return errors.NewNotFound("configuration", name)
}

// FindByName returns the named configuration, or nil.
func (m *Manager) FindByName(name string) *RunConfiguration {
	for _, c := range m.configs {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// List returns the configurations in insertion order.
func (m *Manager) List() []*RunConfiguration {
	out := make([]*RunConfiguration, len(m.configs))
	copy(out, m.configs)
	return out
}

// Selected returns the selected configuration, or nil when none is
// selected.
func (m *Manager) Selected() *RunConfiguration {
	if m.selected == "" {
		return nil
	}
	for _, c := range m.configs {
		if c.ID == m.selected {
			return c
		}
	}
	return nil
}

// SetSelected marks the named configuration as selected. An empty name
// clears the selection.
func (m *Manager) SetSelected(name string) error {
	if name == "" {
		m.selected = ""
		return nil
	}
	c := m.FindByName(name)
	if c == nil {
		return errors.NewNotFound("configuration", name)
	}
	m.selected = c.ID
	return nil
}

// ReadExternal rebuilds the collection from the configuration children of
// root, replacing any existing entries. Recoverable anomalies go to diag.
func (m *Manager) ReadExternal(root *xml.Node, diag Diagnostics) {
	m.configs = nil
	m.selected = ""

	for _, el := range root.ChildElements(elementConfiguration) {
		c := NewRunConfiguration(m.project, "", "")
		c.ReadExternal(el, diag)
		m.configs = append(m.configs, c)
		if el.Attr(attrSelected) == "true" {
			m.selected = c.ID
		}
	}
}

// WriteExternal stores every configuration as a child of root in
// insertion order, marking the selected one.
func (m *Manager) WriteExternal(root *xml.Node) {
	for _, c := range m.configs {
		el := xml.NewElement(elementConfiguration)
		c.WriteExternal(el)
		if m.selected != "" && m.selected == c.ID {
			el.SetAttr(attrSelected, "true")
		}
		root.AppendChild(el)
	}
}
