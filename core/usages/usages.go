// Package usages classifies code usages for grouped presentation. The
// one rule implemented here collects usages whose underlying reference
// is resolved dynamically at runtime, so readers can tell them apart
// from statically bound ones.
package usages

import "strings"

// Usage is one occurrence shown in a usage listing.
type Usage interface{}

// Element is a node in a language's structural model.
type Element interface{}

// ElementUsage is a usage backed by a concrete element.
type ElementUsage interface {
	Usage
	Element() Element
}

// ReferenceExpression is an element referring to another element.
// Target returns nil while the reference is dynamically resolved and
// currently has no known target.
type ReferenceExpression interface {
	Element
	Target() Element
}

// Group labels a set of related usages. Groups order lexicographically
// by display text and carry no navigation target.
type Group struct {
	text string
}

// Text returns the group's display text.
func (g *Group) Text() string {
	return g.text
}

// Compare orders groups by display text.
func (g *Group) Compare(other *Group) int {
	return strings.Compare(g.text, other.text)
}

// dynamicGroup is the single group for dynamically resolved usages.
var dynamicGroup = &Group{text: "Dynamically typed usages"}

// DynamicGroupingRule assigns usages of unresolved reference expressions
// to a fixed group. The rule holds no state; every decision depends only
// on the usage passed in.
type DynamicGroupingRule struct{}

// GroupFor returns the dynamic-usages group when u is an element-backed
// usage whose element is a reference expression without a target, and
// nil in every other case.
func (DynamicGroupingRule) GroupFor(u Usage) *Group {
	eu, ok := u.(ElementUsage)
	if !ok {
		return nil
	}
	ref, ok := eu.Element().(ReferenceExpression)
	if !ok {
		return nil
	}
	if ref.Target() == nil {
		return dynamicGroup
	}
	return nil
}
