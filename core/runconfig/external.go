package runconfig

import (
	"strings"

	"github.com/FocuswithJustin/Gantry/core/xml"
)

const (
	elementModule = "module"
	attrName      = "name"
)

// Diagnostics receives recoverable anomalies found while reading
// persisted state. Reading never fails on such anomalies; the recorder
// decides where the reports go.
type Diagnostics interface {
	Report(message string)
}

// DiagnosticsFunc adapts a plain function to Diagnostics.
type DiagnosticsFunc func(message string)

// Report calls f(message).
func (f DiagnosticsFunc) Report(message string) {
	f(message)
}

func report(diag Diagnostics, message string) {
	if diag != nil {
		diag.Report(message)
	}
}

// ReadExternal restores the stored module name from the parent element.
// The parent owns at most one module child; when several are present the
// first wins and a diagnostic is recorded. A blank name attribute is not
// honored and leaves the current state untouched.
func (r *ModuleReference) ReadExternal(parent *xml.Node, diag Diagnostics) {
	children := parent.ChildElements(elementModule)
	if len(children) == 0 {
		return
	}
	if len(children) > 1 {
		report(diag, "module serialized more than one time")
	}

	name := children[0].Attr(attrName)
	if strings.TrimSpace(name) != "" {
		r.moduleName = name
	}
}

// WriteExternal stores the module name under the parent element, reusing
// an existing module child when present. The name attribute is written
// even when empty so the element round-trips an unbound reference.
func (r *ModuleReference) WriteExternal(parent *xml.Node) {
	child := parent.ChildElement(elementModule)
	if child == nil {
		child = xml.NewElement(elementModule)
		parent.AppendChild(child)
	}
	child.SetAttr(attrName, r.ModuleName())
}
