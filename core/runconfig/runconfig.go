package runconfig

import (
	"github.com/google/uuid"

	"github.com/FocuswithJustin/Gantry/core/project"
	"github.com/FocuswithJustin/Gantry/core/xml"
)

const (
	elementOption    = "option"
	attrID           = "id"
	attrType         = "type"
	attrValue        = "value"
	optionParameters = "PARAMETERS"
)

// RunConfiguration binds a named run setup to a module within a project.
type RunConfiguration struct {
	// ID is assigned at creation and survives persistence round-trips.
	ID string

	// Name is the user-visible configuration name, unique per manager.
	Name string

	// Kind is the free-form configuration type, e.g. "application".
	Kind string

	// Module is the configuration's module binding, never nil.
	Module *ModuleReference

	// Parameters is the raw program-parameter string; see core/params
	// for tokenization and macro expansion.
	Parameters string
}

// NewRunConfiguration creates a configuration with an unbound module
// reference and a fresh ID.
func NewRunConfiguration(p *project.Project, name, kind string) *RunConfiguration {
	return &RunConfiguration{
		ID:     uuid.New().String(),
		Name:   name,
		Kind:   kind,
		Module: New(p),
	}
}

// Validate checks the configuration's module binding.
func (c *RunConfiguration) Validate() *Problem {
	return c.Module.Validate()
}

// CheckRunnable returns a typed error when the configuration cannot run.
// Warning-severity problems do not block running.
func (c *RunConfiguration) CheckRunnable() error {
	p := c.Validate()
	if p != nil && p.Severity == SeverityError {
		return p.Err()
	}
	return nil
}

// ReadExternal restores the configuration from its element. Missing
// attributes keep their current values.
func (c *RunConfiguration) ReadExternal(el *xml.Node, diag Diagnostics) {
	if id := el.Attr(attrID); id != "" {
		c.ID = id
	}
	if name := el.Attr(attrName); name != "" {
		c.Name = name
	}
	if kind := el.Attr(attrType); kind != "" {
		c.Kind = kind
	}

	c.Module.ReadExternal(el, diag)

	for _, opt := range el.ChildElements(elementOption) {
		if opt.Attr(attrName) == optionParameters {
			c.Parameters = opt.Attr(attrValue)
		}
	}
}

// WriteExternal stores the configuration under el, reusing existing
// module and option children when present.
func (c *RunConfiguration) WriteExternal(el *xml.Node) {
	el.SetAttr(attrID, c.ID)
	el.SetAttr(attrName, c.Name)
	el.SetAttr(attrType, c.Kind)

	c.Module.WriteExternal(el)

	var params *xml.Node
	for _, opt := range el.ChildElements(elementOption) {
		if opt.Attr(attrName) == optionParameters {
			params = opt
			break
		}
	}
	if params == nil {
		params = xml.NewElement(elementOption)
		params.SetAttr(attrName, optionParameters)
		el.AppendChild(params)
	}
	params.SetAttr(attrValue, c.Parameters)
}
