package selection

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yumyai/selscan/logger"
)

// Comparison is a nested model pair tested with DF extra parameters in the alternative.
type Comparison struct {
	Name  string  `yaml:"name" json:"name"`
	Sheet string  `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	Null  string  `yaml:"null" json:"null"`
	Alt   string  `yaml:"alt" json:"alt"`
	DF    float64 `yaml:"df" json:"df"`
}

var (
	// BranchSite tests the branch-site model against its omega=1 null.
	BranchSite = Comparison{Name: "branch-site", Sheet: "Branchsite_Model", Null: "BS_NULL", Alt: "BS", DF: 1}
	// Branch tests the two-ratio branch model against the one-ratio M0.
	Branch = Comparison{Name: "branch", Sheet: "Branch_Model", Null: "M0", Alt: "B", DF: 1}
)

func DefaultComparisons() []Comparison {
	return []Comparison{BranchSite, Branch}
}

// Lookup finds a built-in comparison by name.
func Lookup(name string) (Comparison, bool) {
	for _, c := range DefaultComparisons() {
		if c.Name == name {
			return c, true
		}
	}
	return Comparison{}, false
}

func (c Comparison) Validate() error {
	switch {
	case c.Null == "" || c.Alt == "":
		return fmt.Errorf("comparison %q needs both null and alt models", c.Name)
	case c.Null == c.Alt:
		return fmt.Errorf("comparison %q compares %s with itself", c.Name, c.Null)
	case c.DF <= 0:
		return fmt.Errorf("comparison %q needs df > 0, got %v", c.Name, c.DF)
	}
	return nil
}

// SheetName is the table name used when results are written out.
func (c Comparison) SheetName() string {
	if c.Sheet != "" {
		return c.Sheet
	}
	if c.Name != "" {
		return c.Name
	}
	return c.Alt + "_vs_" + c.Null
}

// SequencePairs turns an ordered model list into consecutive (null, alt) pairs:
// models[0] vs models[1], models[2] vs models[3], and so on. A trailing
// unpaired model is ignored.
func SequencePairs(models []string, df float64) ([]Comparison, error) {
	if len(models) < 2 {
		return nil, fmt.Errorf("model sequence needs at least 2 models, got %d", len(models))
	}
	var out []Comparison
	for i := 0; i+1 < len(models); i += 2 {
		c := Comparison{
			Name: models[i+1] + "_vs_" + models[i],
			Null: models[i],
			Alt:  models[i+1],
			DF:   df,
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if len(models)%2 == 1 {
		logger.Warn("Ignoring unpaired model at end of sequence", zap.String("model", models[len(models)-1]))
	}
	return out, nil
}

// Labels returns every model label the comparisons refer to.
func Labels(cmps []Comparison) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range cmps {
		for _, m := range []string{c.Null, c.Alt} {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

// UnmarshalYAML matches keys by their text, so a plain `null:` key names the
// null model rather than resolving to the YAML null value.
func (c *Comparison) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: comparison must be a mapping", node.Line)
	}
	var out Comparison
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var dst any
		switch key.Value {
		case "name":
			dst = &out.Name
		case "sheet":
			dst = &out.Sheet
		case "null":
			dst = &out.Null
		case "alt":
			dst = &out.Alt
		case "df":
			dst = &out.DF
		default:
			return fmt.Errorf("line %d: unknown comparison field %q", key.Line, key.Value)
		}
		if err := val.Decode(dst); err != nil {
			return fmt.Errorf("line %d: %s: %w", val.Line, key.Value, err)
		}
	}
	*c = out
	return nil
}

type comparisonFile struct {
	Comparisons []Comparison `yaml:"comparisons"`
}

// LoadComparisons reads a yaml document of the form
//
//	comparisons:
//	  - name: m2a-vs-m1a
//	    null: M1a
//	    alt: M2a
//	    df: 2
func LoadComparisons(r io.Reader) ([]Comparison, error) {
	var f comparisonFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode comparisons: %w", err)
	}
	if len(f.Comparisons) == 0 {
		return nil, fmt.Errorf("no comparisons defined")
	}
	names := make(map[string]bool)
	for i := range f.Comparisons {
		c := &f.Comparisons[i]
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			c.Name = c.Alt + "_vs_" + c.Null
		}
		if names[c.Name] {
			return nil, fmt.Errorf("duplicate comparison name %q", c.Name)
		}
		names[c.Name] = true
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Comparisons, nil
}
