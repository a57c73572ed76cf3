package usages_test

import (
	"testing"

	"github.com/FocuswithJustin/Gantry/core/project"
	"github.com/FocuswithJustin/Gantry/core/runconfig"
	"github.com/FocuswithJustin/Gantry/core/usages"
)

// moduleRefExpr adapts a configuration's module reference to the
// classifier's reference-expression shape. The target is whatever the
// reference resolves to right now, so a renamed or removed module turns
// the expression unresolved without any bookkeeping here.
type moduleRefExpr struct {
	ref *runconfig.ModuleReference
}

func (e moduleRefExpr) Target() usages.Element {
	m := e.ref.Resolve()
	if m == nil {
		return nil
	}
	return m
}

type configUsage struct {
	el usages.Element
}

func (u configUsage) Element() usages.Element { return u.el }

func TestGroupForModuleReferences(t *testing.T) {
	p := project.New("demo")
	if _, err := p.NewModule("server"); err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	bound := runconfig.NewRunConfiguration(p, "Run Server", "application")
	bound.Module.SetModuleName("server")

	dangling := runconfig.NewRunConfiguration(p, "Run Ghost", "application")
	dangling.Module.SetModuleName("ghost")

	var rule usages.DynamicGroupingRule

	if g := rule.GroupFor(configUsage{el: moduleRefExpr{ref: bound.Module}}); g != nil {
		t.Errorf("resolved reference grouped as %q, want no group", g.Text())
	}

	g := rule.GroupFor(configUsage{el: moduleRefExpr{ref: dangling.Module}})
	if g == nil {
		t.Fatal("unresolved reference not grouped")
	}
	if g.Text() != "Dynamically typed usages" {
		t.Errorf("group text = %q", g.Text())
	}
}

// TestGroupForTracksResolution verifies classification follows the live
// registry: removing the target module moves the usage into the dynamic
// group on the next call.
func TestGroupForTracksResolution(t *testing.T) {
	p := project.New("demo")
	if _, err := p.NewModule("worker"); err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	c := runconfig.NewRunConfiguration(p, "Run Worker", "application")
	c.Module.SetModuleName("worker")
	u := configUsage{el: moduleRefExpr{ref: c.Module}}

	var rule usages.DynamicGroupingRule
	if g := rule.GroupFor(u); g != nil {
		t.Fatalf("grouped before removal: %q", g.Text())
	}

	if err := p.RemoveModule("worker"); err != nil {
		t.Fatalf("RemoveModule: %v", err)
	}
	if rule.GroupFor(u) == nil {
		t.Error("usage not regrouped after module removal")
	}
}
