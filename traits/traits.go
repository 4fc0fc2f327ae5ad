// Package traits defines pasture species characteristics.
package traits

import (
	"fmt"
	"strings"
)

// Trait is a bit set of species characteristics.
type Trait uint32

const (
	// Family traits
	Grass  Trait = 1 << iota // Tillering grass, no stolons
	Legume                   // Fixes atmospheric N, stolons
	Forb                     // Broadleaf herb

	// Photosynthetic pathway
	C3
	C4

	// Lifecycle
	Perennial
	Annual
)

// FamilyTraits are the mutually exclusive family traits.
var FamilyTraits = Grass | Legume | Forb

// PathwayTraits are the mutually exclusive photosynthesis pathway traits.
var PathwayTraits = C3 | C4

// LifecycleTraits are the mutually exclusive lifecycle traits.
var LifecycleTraits = Perennial | Annual

// Has checks if a trait set contains a trait.
func (t Trait) Has(other Trait) bool {
	return t&other != 0
}

// Add adds a trait to the set.
func (t Trait) Add(other Trait) Trait {
	return t | other
}

// Remove removes a trait from the set.
func (t Trait) Remove(other Trait) Trait {
	return t &^ other
}

// IsLegume checks if traits indicate an N-fixing species.
func IsLegume(t Trait) bool {
	return t.Has(Legume)
}

// IsAnnual checks if traits indicate an annual lifecycle.
func IsAnnual(t Trait) bool {
	return t.Has(Annual)
}

// Family returns the family name of a trait set.
func (t Trait) Family() string {
	switch {
	case t.Has(Grass):
		return "grass"
	case t.Has(Legume):
		return "legume"
	case t.Has(Forb):
		return "forb"
	}
	return ""
}

// Pathway returns the photosynthesis pathway name of a trait set.
func (t Trait) Pathway() string {
	switch {
	case t.Has(C4):
		return "C4"
	case t.Has(C3):
		return "C3"
	}
	return ""
}

// String lists the set traits, family first.
func (t Trait) String() string {
	var parts []string
	if f := t.Family(); f != "" {
		parts = append(parts, f)
	}
	if p := t.Pathway(); p != "" {
		parts = append(parts, p)
	}
	if t.Has(Annual) {
		parts = append(parts, "annual")
	} else if t.Has(Perennial) {
		parts = append(parts, "perennial")
	}
	return strings.Join(parts, "|")
}

// Parse builds a trait set from family, pathway and lifecycle names.
// Family matching is by substring, so "annual grass" and "Grass" both select Grass.
func Parse(family, pathway string, annual bool) (Trait, error) {
	var t Trait
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "grass"):
		t = t.Add(Grass)
	case strings.Contains(f, "legume"):
		t = t.Add(Legume)
	case strings.Contains(f, "forb"), f == "":
		t = t.Add(Forb)
	default:
		return 0, fmt.Errorf("unknown species family %q", family)
	}

	switch strings.ToUpper(pathway) {
	case "C3", "":
		t = t.Add(C3)
	case "C4":
		t = t.Add(C4)
	default:
		return 0, fmt.Errorf("unknown photosynthesis pathway %q", pathway)
	}

	if annual {
		t = t.Add(Annual)
	} else {
		t = t.Add(Perennial)
	}
	return t, nil
}
