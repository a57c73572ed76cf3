package workspace

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/Gantry/core/digest"
	"github.com/FocuswithJustin/Gantry/core/project"
	"github.com/FocuswithJustin/Gantry/core/runconfig"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<runConfigurations>
  <configuration id="cfg-1" name="Run Server" type="application" selected="true">
    <module name="server"/>
    <option name="PARAMETERS" value="--listen :8080"/>
  </configuration>
  <configuration id="cfg-2" name="Run Worker" type="application">
    <module name="worker"/>
  </configuration>
</runConfigurations>
`

// testProject returns a project with server and worker modules. The server
// module carries a toolchain so its configurations validate cleanly.
func testProject(t *testing.T) *project.Project {
	t.Helper()
	p := project.New("demo")
	server, err := p.NewModule("server")
	if err != nil {
		t.Fatalf("NewModule(server): %v", err)
	}
	server.SetToolchain(&project.Toolchain{ID: "go", Version: "1.25"})
	if _, err := p.NewModule("worker"); err != nil {
		t.Fatalf("NewModule(worker): %v", err)
	}
	return p
}

// writeDoc writes content to a file under dir and returns its path.
func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// TestLoad verifies that a well-formed document loads without diagnostics
// and that bindings, parameters, and the selection survive.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "workspace.xml", sampleDoc)

	w, err := Load(path, testProject(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if w.Path() != path {
		t.Errorf("Path() = %q, want %q", w.Path(), path)
	}
	if diags := w.Diagnostics(); len(diags) != 0 {
		t.Errorf("Diagnostics() = %v, want none", diags)
	}

	configs := w.Manager().List()
	if len(configs) != 2 {
		t.Fatalf("expected 2 configurations, got %d", len(configs))
	}
	if configs[0].Name != "Run Server" || configs[1].Name != "Run Worker" {
		t.Errorf("unexpected order: %q, %q", configs[0].Name, configs[1].Name)
	}
	if configs[0].ID != "cfg-1" {
		t.Errorf("ID = %q, want cfg-1", configs[0].ID)
	}
	if configs[0].Parameters != "--listen :8080" {
		t.Errorf("Parameters = %q", configs[0].Parameters)
	}

	if m := configs[0].Module.Resolve(); m == nil || m.Name() != "server" {
		t.Errorf("expected binding to resolve to server, got %v", m)
	}

	sel := w.Manager().Selected()
	if sel == nil || sel.Name != "Run Server" {
		t.Errorf("expected Run Server selected, got %v", sel)
	}
}

// TestLoadDiagnostics verifies that a module element serialized more than
// once is reported but does not fail the load.
func TestLoadDiagnostics(t *testing.T) {
	doc := `<runConfigurations>
  <configuration id="cfg-1" name="Run Server" type="application">
    <module name="server"/>
    <module name="worker"/>
  </configuration>
</runConfigurations>`
	dir := t.TempDir()
	path := writeDoc(t, dir, "workspace.xml", doc)

	w, err := Load(path, testProject(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	diags := w.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %v", len(diags), diags)
	}
	if !strings.Contains(diags[0], "more than one time") {
		t.Errorf("unexpected diagnostic: %q", diags[0])
	}

	configs := w.Manager().List()
	if len(configs) != 1 {
		t.Fatalf("expected 1 configuration, got %d", len(configs))
	}
	if got := configs[0].Module.ModuleName(); got != "server" {
		t.Errorf("expected first module element to win, got %q", got)
	}
}

// TestLoadErrors verifies that unreadable or malformed documents fail.
func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		content string
		write   bool
	}{
		{
			name: "missing file",
			path: filepath.Join(dir, "absent.xml"),
		},
		{
			name:    "malformed document",
			path:    filepath.Join(dir, "malformed.xml"),
			content: "<runConfigurations>",
			write:   true,
		},
		{
			name:    "no root element",
			path:    filepath.Join(dir, "empty.xml"),
			content: `<?xml version="1.0"?>`,
			write:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.write {
				if err := os.WriteFile(tt.path, []byte(tt.content), 0644); err != nil {
					t.Fatalf("write: %v", err)
				}
			}
			if _, err := Load(tt.path, testProject(t)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// TestSaveRoundTrip verifies that a workspace built in memory survives a
// save and reload, including IDs, bindings, parameters, and selection.
func TestSaveRoundTrip(t *testing.T) {
	p := testProject(t)
	w := New(p)

	server := runconfig.NewRunConfiguration(p, "Run Server", "application")
	server.Module.SetModuleName("server")
	server.Parameters = `--listen :8080 "$MODULE_NAME$"`
	if err := w.Manager().Add(server); err != nil {
		t.Fatalf("Add: %v", err)
	}

	worker := runconfig.NewRunConfiguration(p, "Run Worker", "application")
	worker.Module.SetModuleName("worker")
	if err := w.Manager().Add(worker); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Manager().SetSelected("Run Worker"); err != nil {
		t.Fatalf("SetSelected: %v", err)
	}

	path := filepath.Join(t.TempDir(), "workspace.xml")
	if err := w.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if w.Path() != path {
		t.Errorf("Path() = %q, want %q", w.Path(), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved document: %v", err)
	}
	if !strings.HasPrefix(string(data), "<?xml") {
		t.Errorf("saved document missing declaration: %q", string(data[:20]))
	}

	loaded, err := Load(path, p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	configs := loaded.Manager().List()
	if len(configs) != 2 {
		t.Fatalf("expected 2 configurations, got %d", len(configs))
	}
	if configs[0].ID != server.ID {
		t.Errorf("ID = %q, want %q", configs[0].ID, server.ID)
	}
	if configs[0].Parameters != server.Parameters {
		t.Errorf("Parameters = %q, want %q", configs[0].Parameters, server.Parameters)
	}
	if got := configs[1].Module.ModuleName(); got != "worker" {
		t.Errorf("module name = %q, want worker", got)
	}

	sel := loaded.Manager().Selected()
	if sel == nil || sel.Name != "Run Worker" {
		t.Errorf("expected Run Worker selected after reload, got %v", sel)
	}
}

// TestWriteTo verifies that WriteTo emits the same bytes as Save.
func TestWriteTo(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "workspace.xml", sampleDoc)

	w, err := Load(path, testProject(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var buf bytes.Buffer
	n, err := w.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo returned %d, buffer holds %d", n, buf.Len())
	}

	saved := filepath.Join(dir, "saved.xml")
	if err := w.Save(saved); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("read saved document: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Error("WriteTo and Save produced different bytes")
	}
}

// TestFingerprint verifies that the fingerprint is a valid digest, stable
// for identical content, and sensitive to changes.
func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "workspace.xml", sampleDoc)
	p := testProject(t)

	w1, err := Load(path, p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	fp1, err := w1.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if !digest.Valid(fp1) {
		t.Errorf("fingerprint %q is not a valid digest", fp1)
	}

	w2, err := Load(path, p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	fp2, err := w2.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fp1 != fp2 {
		t.Errorf("same document produced different fingerprints: %q vs %q", fp1, fp2)
	}

	w1.Manager().List()[0].Parameters = "--changed"
	fp3, err := w1.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fp3 == fp1 {
		t.Error("fingerprint unchanged after modifying a configuration")
	}
}
