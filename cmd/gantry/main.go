// Command gantry is the CLI tool for Gantry.
// It provides commands for inspecting run configuration workspaces,
// validating module bindings, and browsing validation history.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/Gantry/core/digest"
	"github.com/FocuswithJustin/Gantry/core/history"
	"github.com/FocuswithJustin/Gantry/core/params"
	"github.com/FocuswithJustin/Gantry/core/project"
	"github.com/FocuswithJustin/Gantry/core/runconfig"
	"github.com/FocuswithJustin/Gantry/core/sqlite"
	"github.com/FocuswithJustin/Gantry/internal/api"
	"github.com/FocuswithJustin/Gantry/internal/validation"
	"github.com/FocuswithJustin/Gantry/internal/workspace"
)

const version = "0.1.0"

// CLI defines the command-line interface for gantry.
var CLI struct {
	// Global project-model flags
	Project  string   `help:"Project name used for macro expansion" default:"project"`
	Module   []string `short:"m" help:"Declare a project module as name or name=toolchain[@version] (repeatable)"`
	Unloaded []string `help:"Declare a module that was unloaded from the project (repeatable)"`

	// Command groups (noun-first organization)
	Config   ConfigGroup   `cmd:"" help:"Run configuration operations (list, show, validate)"`
	History  HistoryGroup  `cmd:"" help:"Validation history operations"`
	Snapshot SnapshotGroup `cmd:"" help:"Workspace snapshot operations"`
	API      APICmd        `cmd:"" help:"Start REST API server"`
	Version  VersionCmd    `cmd:"" help:"Print version information"`
}

// ConfigGroup contains run configuration operations.
type ConfigGroup struct {
	List     ConfigListCmd     `cmd:"" help:"List configurations in a workspace document"`
	Show     ConfigShowCmd     `cmd:"" help:"Show one configuration in detail"`
	Validate ConfigValidateCmd `cmd:"" help:"Validate configuration module bindings"`
}

// HistoryGroup contains validation history operations.
type HistoryGroup struct {
	List  HistoryListCmd  `cmd:"" help:"List recorded validation results"`
	Prune HistoryPruneCmd `cmd:"" help:"Remove old validation results"`
}

// SnapshotGroup contains workspace snapshot operations.
type SnapshotGroup struct {
	Export SnapshotExportCmd `cmd:"" help:"Export a workspace snapshot archive"`
	Info   SnapshotInfoCmd   `cmd:"" help:"Inspect a snapshot archive"`
}

// buildProject assembles the in-memory project model from the global
// module flags.
func buildProject() (*project.Project, error) {
	p := project.New(CLI.Project)

	for _, decl := range CLI.Module {
		name, toolchain, hasToolchain := strings.Cut(decl, "=")
		if name == "" {
			return nil, fmt.Errorf("invalid module declaration %q", decl)
		}
		m, err := p.NewModule(name)
		if err != nil {
			return nil, fmt.Errorf("failed to declare module: %w", err)
		}
		if hasToolchain && toolchain != "" {
			id, ver, _ := strings.Cut(toolchain, "@")
			m.SetToolchain(&project.Toolchain{ID: id, Version: ver})
		}
	}

	for _, name := range CLI.Unloaded {
		if p.ModuleManager().FindModuleByName(name) == nil {
			if _, err := p.NewModule(name); err != nil {
				return nil, fmt.Errorf("failed to declare module: %w", err)
			}
		}
		if err := p.UnloadModule(name); err != nil {
			return nil, fmt.Errorf("failed to unload module: %w", err)
		}
	}

	return p, nil
}

// loadWorkspace builds the project model and loads the workspace document
// against it. Recoverable load diagnostics are reported as warnings.
func loadWorkspace(path string) (*workspace.Workspace, error) {
	p, err := buildProject()
	if err != nil {
		return nil, err
	}

	ws, err := workspace.Load(path, p)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	for _, d := range ws.Diagnostics() {
		log.Printf("Warning: %s", d)
	}
	return ws, nil
}

// ConfigListCmd lists configurations in a workspace document.
type ConfigListCmd struct {
	Workspace string `arg:"" help:"Path to workspace XML document" type:"existingfile"`
}

func (c *ConfigListCmd) Run() error {
	ws, err := loadWorkspace(c.Workspace)
	if err != nil {
		return err
	}

	configs := ws.Manager().List()
	if len(configs) == 0 {
		fmt.Printf("No configurations found in %s\n", c.Workspace)
		return nil
	}

	selected := ws.Manager().Selected()
	fmt.Printf("Configurations in %s:\n\n", c.Workspace)
	for _, cfg := range configs {
		marker := " "
		if selected != nil && selected.ID == cfg.ID {
			marker = "*"
		}
		moduleName := cfg.Module.ModuleName()
		if moduleName == "" {
			moduleName = "(none)"
		}
		fmt.Printf("  %s %-24s %-14s module=%s\n", marker, cfg.Name, cfg.Kind, moduleName)
	}
	return nil
}

// ConfigShowCmd shows one configuration in detail.
type ConfigShowCmd struct {
	Workspace string `arg:"" help:"Path to workspace XML document" type:"existingfile"`
	Name      string `arg:"" help:"Configuration name"`
}

func (c *ConfigShowCmd) Run() error {
	ws, err := loadWorkspace(c.Workspace)
	if err != nil {
		return err
	}

	cfg := ws.Manager().FindByName(c.Name)
	if cfg == nil {
		return fmt.Errorf("configuration not found: %s", c.Name)
	}

	selected := ws.Manager().Selected()
	moduleName := cfg.Module.ModuleName()
	if moduleName == "" {
		moduleName = "(none)"
	}

	fmt.Printf("Configuration: %s\n", cfg.Name)
	fmt.Printf("  ID: %s\n", cfg.ID)
	fmt.Printf("  Kind: %s\n", cfg.Kind)
	fmt.Printf("  Module: %s\n", moduleName)
	fmt.Printf("  Selected: %t\n", selected != nil && selected.ID == cfg.ID)
	if p := cfg.Validate(); p != nil {
		fmt.Printf("  Validation: [%s] %s\n", strings.ToUpper(string(p.Severity)), p.Message)
	} else {
		fmt.Printf("  Validation: [OK]\n")
	}

	if cfg.Parameters != "" {
		fmt.Printf("  Parameters: %s\n", cfg.Parameters)

		cl, err := params.Parse(cfg.Parameters)
		if err != nil {
			return fmt.Errorf("failed to parse parameters: %w", err)
		}
		args, unknown := cl.Expand(params.Expansion{
			ModuleName:  cfg.Module.ModuleName(),
			ConfigName:  cfg.Name,
			ProjectName: ws.Project().Name(),
		})
		fmt.Printf("  Command line: %s\n", strings.Join(args, " "))
		if len(unknown) > 0 {
			fmt.Printf("  Unknown macros: %s\n", strings.Join(unknown, ", "))
		}
	}
	return nil
}

// ConfigValidateCmd validates configuration module bindings.
type ConfigValidateCmd struct {
	Workspace string `arg:"" help:"Path to workspace XML document" type:"existingfile"`
	Name      string `arg:"" optional:"" help:"Configuration name (validates all when omitted)"`
	History   string `help:"Record results in this history database" type:"path"`
	JSON      bool   `help:"Output as JSON"`
}

// validationResult is the JSON form of a single validation outcome.
type validationResult struct {
	Config   string `json:"config"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Runnable bool   `json:"runnable"`
}

func (c *ConfigValidateCmd) Run() error {
	ws, err := loadWorkspace(c.Workspace)
	if err != nil {
		return err
	}

	var configs []*runconfig.RunConfiguration
	if c.Name != "" {
		cfg := ws.Manager().FindByName(c.Name)
		if cfg == nil {
			return fmt.Errorf("configuration not found: %s", c.Name)
		}
		configs = []*runconfig.RunConfiguration{cfg}
	} else {
		configs = ws.Manager().List()
	}

	var store *history.Store
	fingerprint := ""
	if c.History != "" {
		if err := validation.ValidatePath(c.History); err != nil {
			return fmt.Errorf("invalid history path: %w", err)
		}
		store, err = history.Open(c.History)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()

		fingerprint, err = ws.Fingerprint()
		if err != nil {
			return fmt.Errorf("failed to fingerprint workspace: %w", err)
		}
	}

	if !c.JSON {
		fmt.Printf("Workspace: %s\n", c.Workspace)
		fmt.Printf("  Project: %s\n", ws.Project().Name())
		fmt.Printf("  Configurations: %d\n\n", len(configs))
	}

	results := make([]validationResult, 0, len(configs))
	warnings := 0
	errors := 0
	for _, cfg := range configs {
		result := validationResult{
			Config:   cfg.Name,
			Status:   string(history.StatusOK),
			Runnable: true,
		}
		status := history.StatusOK

		if p := cfg.Validate(); p != nil {
			result.Status = string(p.Severity)
			result.Message = p.Message
			result.Runnable = p.Severity != runconfig.SeverityError
			if p.Severity == runconfig.SeverityWarning {
				status = history.StatusWarning
				warnings++
			} else {
				status = history.StatusError
				errors++
			}
		}
		results = append(results, result)

		if !c.JSON {
			switch {
			case result.Status == string(history.StatusOK):
				fmt.Printf("  [OK] %s\n", cfg.Name)
			case status == history.StatusWarning:
				fmt.Printf("  [WARN] %s: %s\n", cfg.Name, result.Message)
			default:
				fmt.Printf("  [FAIL] %s: %s\n", cfg.Name, result.Message)
			}
		}

		if store != nil {
			entry := history.Entry{
				ConfigName:  cfg.Name,
				ModuleName:  cfg.Module.ModuleName(),
				Status:      status,
				Message:     result.Message,
				Fingerprint: fingerprint,
			}
			if _, err := store.Record(entry); err != nil {
				return fmt.Errorf("failed to record history: %w", err)
			}
		}
	}

	if c.JSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Println()
		if warnings > 0 {
			fmt.Printf("%d warning(s)\n", warnings)
		}
		if errors == 0 {
			fmt.Println("Validation passed!")
		}
	}

	if errors > 0 {
		return fmt.Errorf("validation failed: %d error(s)", errors)
	}
	return nil
}

// HistoryListCmd lists recorded validation results.
type HistoryListCmd struct {
	Path   string `help:"History database path" default:"gantry.db" type:"path"`
	Config string `help:"Only entries for this configuration name"`
	Status string `help:"Only entries with this status (ok, warning, error)"`
	Limit  int    `help:"Maximum number of entries" default:"20"`
}

func (c *HistoryListCmd) Run() error {
	if err := validation.ValidatePath(c.Path); err != nil {
		return fmt.Errorf("invalid history path: %w", err)
	}
	switch history.Status(c.Status) {
	case "", history.StatusOK, history.StatusWarning, history.StatusError:
	default:
		return fmt.Errorf("invalid status %q (want ok, warning, or error)", c.Status)
	}

	store, err := history.Open(c.Path)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	entries, err := store.List(history.Filter{
		ConfigName: c.Config,
		Status:     history.Status(c.Status),
		Limit:      c.Limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Printf("No history entries found in %s\n", c.Path)
		return nil
	}

	fmt.Printf("History in %s:\n\n", c.Path)
	for _, e := range entries {
		line := fmt.Sprintf("  %s  %-7s  %s", e.CreatedAt.Format(time.RFC3339), e.Status, e.ConfigName)
		if e.Message != "" {
			line += ": " + e.Message
		}
		fmt.Println(line)
	}
	return nil
}

// HistoryPruneCmd removes old validation results.
type HistoryPruneCmd struct {
	Path string `help:"History database path" default:"gantry.db" type:"path"`
	Days int    `help:"Remove entries older than this many days" default:"30"`
}

func (c *HistoryPruneCmd) Run() error {
	if err := validation.ValidatePath(c.Path); err != nil {
		return fmt.Errorf("invalid history path: %w", err)
	}
	if c.Days < 0 {
		return fmt.Errorf("invalid retention %d days", c.Days)
	}

	store, err := history.Open(c.Path)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	cutoff := time.Now().AddDate(0, 0, -c.Days)
	pruned, err := store.Prune(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	fmt.Printf("Pruned %d entries older than %s\n", pruned, cutoff.UTC().Format(time.RFC3339))
	return nil
}

// SnapshotExportCmd exports a workspace snapshot archive.
type SnapshotExportCmd struct {
	Workspace   string `arg:"" help:"Path to workspace XML document" type:"existingfile"`
	Out         string `required:"" help:"Output snapshot path" type:"path"`
	Compression string `help:"Snapshot compression" enum:"xz,gzip" default:"xz"`
}

func (c *SnapshotExportCmd) Run() error {
	if err := validation.ValidatePath(c.Out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	ws, err := loadWorkspace(c.Workspace)
	if err != nil {
		return err
	}

	f, err := os.Create(c.Out)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}

	opts := &workspace.SnapshotOptions{
		Compression: workspace.Compression(c.Compression),
	}
	if err := ws.ExportSnapshot(f, opts); err != nil {
		f.Close()
		return fmt.Errorf("failed to export snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}

	fmt.Printf("Exported snapshot to %s (%s)\n", c.Out, c.Compression)
	return nil
}

// SnapshotInfoCmd inspects a snapshot archive.
type SnapshotInfoCmd struct {
	Path string `arg:"" help:"Path to snapshot archive" type:"existingfile"`
}

func (c *SnapshotInfoCmd) Run() error {
	compression, err := workspace.DetectCompression(c.Path)
	if err != nil {
		return fmt.Errorf("failed to detect compression: %w", err)
	}

	snap, err := workspace.OpenSnapshot(c.Path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}

	fmt.Printf("Snapshot: %s\n", c.Path)
	fmt.Printf("  Compression: %s\n", compression)
	fmt.Printf("  Created: %s\n", snap.Manifest.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Configurations: %d\n", snap.Manifest.ConfigCount)
	fmt.Printf("  Fingerprint: %s\n", snap.Manifest.Fingerprint)
	fmt.Printf("  Document: %d bytes\n", len(snap.Document))

	computed := digest.Sum(snap.Document)
	if computed != snap.Manifest.Fingerprint {
		fmt.Printf("  [FAIL] fingerprint mismatch (computed %s)\n", computed)
		return fmt.Errorf("snapshot fingerprint mismatch")
	}
	fmt.Printf("  [OK] fingerprint verified\n")
	return nil
}

// APICmd starts the REST API server.
type APICmd struct {
	Workspace     string   `arg:"" help:"Path to workspace XML document" type:"existingfile"`
	Port          int      `help:"HTTP server port" default:"8081"`
	History       string   `help:"History database path (empty disables recording)" type:"path"`
	AllowedOrigin []string `help:"Restrict browser origins (repeatable; all origins allowed when empty)"`
}

func (c *APICmd) Run() error {
	ws, err := loadWorkspace(c.Workspace)
	if err != nil {
		return err
	}

	var store *history.Store
	if c.History != "" {
		store, err = history.Open(c.History)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()
	}

	cfg := api.Config{
		Port:           c.Port,
		AllowedOrigins: c.AllowedOrigin,
	}
	return api.Start(cfg, ws, store)
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Printf("gantry version %s\n", version)
	fmt.Printf("  sqlite driver: %s (%s)\n", info.Package, info.DriverType)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("gantry"),
		kong.Description("Gantry - run configuration management for project workspaces"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
