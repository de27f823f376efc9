package bond

import (
	"fmt"
	"strings"

	"github.com/chazu/molview/pkg/element"
)

const (
	// DefaultFactor scales the sum of covalent radii.
	DefaultFactor = 1.2
	// DefaultCutoff is the fixed bonding distance in ångström.
	DefaultCutoff = 2.0
)

// Policy computes the bonding threshold for an atom pair.
type Policy interface {
	Threshold(a, b element.Properties) float64
	// UsesRadii reports whether Threshold reads covalent radii. Policies
	// that don't are evaluated without consulting the element table.
	UsesRadii() bool
	String() string
}

// RadiusScaled bonds atoms closer than Factor*(ra+rb).
type RadiusScaled struct {
	Factor float64
}

var _ Policy = RadiusScaled{}

func (p RadiusScaled) factor() float64 {
	if p.Factor <= 0 {
		return DefaultFactor
	}
	return p.Factor
}

func (p RadiusScaled) Threshold(a, b element.Properties) float64 {
	return p.factor() * (a.CovalentRadius + b.CovalentRadius)
}

func (RadiusScaled) UsesRadii() bool { return true }

func (p RadiusScaled) String() string { return fmt.Sprintf("radius(factor=%g)", p.factor()) }

// FixedCutoff bonds atoms closer than Distance regardless of element.
type FixedCutoff struct {
	Distance float64
}

var _ Policy = FixedCutoff{}

func (p FixedCutoff) distance() float64 {
	if p.Distance <= 0 {
		return DefaultCutoff
	}
	return p.Distance
}

func (p FixedCutoff) Threshold(_, _ element.Properties) float64 { return p.distance() }

func (FixedCutoff) UsesRadii() bool { return false }

func (p FixedCutoff) String() string { return fmt.Sprintf("fixed(cutoff=%g)", p.distance()) }

// DefaultPolicy is RadiusScaled with DefaultFactor.
func DefaultPolicy() Policy { return RadiusScaled{Factor: DefaultFactor} }

// ParsePolicy builds a policy by name: "radius" (or "") and "fixed".
func ParsePolicy(name string, factor, cutoff float64) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "radius", "radius-scaled":
		if factor < 0 {
			return nil, fmt.Errorf("bond: negative factor %g", factor)
		}
		return RadiusScaled{Factor: factor}, nil
	case "fixed", "cutoff":
		if cutoff < 0 {
			return nil, fmt.Errorf("bond: negative cutoff %g", cutoff)
		}
		return FixedCutoff{Distance: cutoff}, nil
	}
	return nil, fmt.Errorf("bond: unknown policy %q", name)
}

// maxThreshold returns the largest threshold the policy yields for any pair
// drawn from props. Distinct element pairs are enumerated, so it is exact for
// any Policy.
func maxThreshold(p Policy, props []element.Properties) float64 {
	seen := make(map[string]bool)
	var distinct []element.Properties
	for _, pr := range props {
		key := fmt.Sprintf("%s/%g", pr.Symbol, pr.CovalentRadius)
		if seen[key] {
			continue
		}
		seen[key] = true
		distinct = append(distinct, pr)
	}
	limit := 0.0
	for i := range distinct {
		for j := i; j < len(distinct); j++ {
			if t := p.Threshold(distinct[i], distinct[j]); t > limit {
				limit = t
			}
		}
	}
	return limit
}
