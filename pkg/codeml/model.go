// Package codeml drives PAML's codeml to fit codon models and reads back
// the log-likelihood of each fit.
package codeml

import (
	"fmt"
	"strings"
)

// DefaultOmega is the starting omega for models that estimate it.
const DefaultOmega = 0.4

// ModelSpec is the model-specific part of a control file.
type ModelSpec struct {
	Name string `json:"name"`
	Body string `json:"body"`
	// FixOmega holds omega at Omega instead of estimating it.
	FixOmega bool    `json:"fix_omega,omitempty"`
	Omega    float64 `json:"omega,omitempty"`
}

func (m ModelSpec) omega() float64 {
	if m.Omega == 0 {
		if m.FixOmega {
			return 1
		}
		return DefaultOmega
	}
	return m.Omega
}

// Site models.
var (
	M0  = ModelSpec{Name: "M0", Body: "model = 0\nNSsites = 0"}
	M1a = ModelSpec{Name: "M1a", Body: "model = 0\nNSsites = 1"}
	M2a = ModelSpec{Name: "M2a", Body: "model = 0\nNSsites = 2"}
	M7  = ModelSpec{Name: "M7", Body: "model = 0\nNSsites = 7"}
	M8  = ModelSpec{Name: "M8", Body: "model = 0\nNSsites = 8"}
)

// Branch models. B is the two-ratio model under the label the LRT tables use.
var (
	OneRatio  = ModelSpec{Name: "One-ratio", Body: "model = 0"}
	FreeRatio = ModelSpec{Name: "Free-ratio", Body: "model = 1"}
	TwoRatio  = ModelSpec{Name: "Two-ratio", Body: "model = 2"}
	Branch    = ModelSpec{Name: "B", Body: "model = 2\nNSsites = 0"}
)

// Branch-site model A and its null with omega2 fixed at 1.
var (
	BranchSite     = ModelSpec{Name: "BS", Body: "model = 2\nNSsites = 2"}
	BranchSiteNull = ModelSpec{Name: "BS_NULL", Body: "model = 2\nNSsites = 2", FixOmega: true, Omega: 1}
)

// Models lists every built-in model.
func Models() []ModelSpec {
	return []ModelSpec{
		M0, M1a, M2a, M7, M8,
		OneRatio, FreeRatio, TwoRatio, Branch,
		BranchSite, BranchSiteNull,
	}
}

// DefaultFitModels are the models the default LRT comparisons need.
func DefaultFitModels() []ModelSpec {
	return []ModelSpec{M0, Branch, BranchSiteNull, BranchSite}
}

// LookupModel finds a built-in model by name, ignoring case.
func LookupModel(name string) (ModelSpec, bool) {
	for _, m := range Models() {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return ModelSpec{}, false
}

// ParseModels resolves a list of model names.
func ParseModels(names []string) ([]ModelSpec, error) {
	out := make([]ModelSpec, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		m, ok := LookupModel(n)
		if !ok {
			return nil, fmt.Errorf("unknown codeml model %q", n)
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no codeml models given")
	}
	return out, nil
}
