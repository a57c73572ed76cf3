// Package workspace loads, saves, and snapshots run configuration documents.
//
// A Workspace binds a parsed runConfigurations document to a project and its
// module registry. Anomalies found while reading (a module element serialized
// more than once, blank module names) are collected as diagnostics rather
// than treated as errors.
package workspace

import (
	"io"
	"os"

	"github.com/FocuswithJustin/Gantry/core/digest"
	"github.com/FocuswithJustin/Gantry/core/errors"
	"github.com/FocuswithJustin/Gantry/core/project"
	"github.com/FocuswithJustin/Gantry/core/runconfig"
	"github.com/FocuswithJustin/Gantry/core/xml"
	"github.com/FocuswithJustin/Gantry/internal/logging"
)

// RootElement is the document element holding configuration children.
const RootElement = "runConfigurations"

// Workspace is a run configuration document bound to a project.
type Workspace struct {
	path        string
	project     *project.Project
	manager     *runconfig.Manager
	diagnostics []string
}

// New returns an empty workspace bound to p.
func New(p *project.Project) *Workspace {
	return &Workspace{
		project: p,
		manager: runconfig.NewManager(p),
	}
}

// Load parses the document at path and builds a manager bound to p.
// Read anomalies are collected as diagnostics; only unreadable or
// malformed documents fail the load.
func Load(path string, p *project.Project) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	doc, err := xml.Parse(data)
	if err != nil {
		return nil, errors.NewParse("xml", path, err.Error())
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.NewParse("xml", path, "document has no root element")
	}

	w := &Workspace{
		path:    path,
		project: p,
		manager: runconfig.NewManager(p),
	}
	w.manager.ReadExternal(root, runconfig.DiagnosticsFunc(func(msg string) {
		w.diagnostics = append(w.diagnostics, msg)
	}))

	logging.WorkspaceEvent("loaded", path, len(w.manager.List()),
		"diagnostics", len(w.diagnostics))
	return w, nil
}

// Path returns the path the workspace was loaded from or last saved to.
func (w *Workspace) Path() string {
	return w.path
}

// Project returns the project the workspace is bound to.
func (w *Workspace) Project() *project.Project {
	return w.project
}

// Manager returns the run configuration manager.
func (w *Workspace) Manager() *runconfig.Manager {
	return w.manager
}

// Diagnostics returns the messages collected while loading the document.
func (w *Workspace) Diagnostics() []string {
	out := make([]string, len(w.diagnostics))
	copy(out, w.diagnostics)
	return out
}

// Document serializes the current manager state into a fresh document.
func (w *Workspace) Document() *xml.Document {
	doc := xml.NewDocument()
	root := xml.NewElement(RootElement)
	doc.SetRoot(root)
	w.manager.WriteExternal(root)
	return doc
}

// render returns the pretty-printed document bytes.
func (w *Workspace) render() ([]byte, error) {
	data, err := w.Document().Pretty(xml.FormatOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "format document")
	}
	return data, nil
}

// WriteTo serializes the workspace document to out, implementing io.WriterTo.
func (w *Workspace) WriteTo(out io.Writer) (int64, error) {
	data, err := w.render()
	if err != nil {
		return 0, err
	}
	n, err := out.Write(data)
	return int64(n), err
}

// Save writes the workspace document to path and remembers it as the
// workspace path.
func (w *Workspace) Save(path string) error {
	data, err := w.render()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewIO("write", path, err)
	}
	w.path = path

	logging.WorkspaceEvent("saved", path, len(w.manager.List()))
	return nil
}

// Fingerprint returns the BLAKE3 digest of the serialized document.
// Comparing fingerprints is a cheap way to detect external modification.
func (w *Workspace) Fingerprint() (string, error) {
	data, err := w.render()
	if err != nil {
		return "", err
	}
	return digest.Sum(data), nil
}
