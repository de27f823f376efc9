// Package element holds the process-wide element property table: covalent
// radii used for bond inference and optional display colors. A Table is
// immutable once built; there is no mutation API.
package element

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed elements.yaml
var defaultDataset []byte

// Properties describes a single element.
type Properties struct {
	Symbol         string  `yaml:"symbol" json:"symbol"`
	Number         int     `yaml:"number" json:"number"`
	CovalentRadius float64 `yaml:"covalent_radius" json:"covalentRadius"` // angstrom, > 0
	Color          string  `yaml:"color" json:"color,omitempty"`          // "#RRGGBB", display hint only
}

// UnknownElementError is returned when a symbol is absent from the table.
type UnknownElementError struct {
	Symbol string
}

func (e *UnknownElementError) Error() string {
	return fmt.Sprintf("unknown element symbol %q", e.Symbol)
}

// Table is an immutable symbol -> Properties mapping.
type Table struct {
	bySymbol  map[string]Properties
	symbols   []string
	maxRadius float64
}

type dataset struct {
	Elements []Properties `yaml:"elements"`
}

// New builds a Table from a list of properties. Symbols must be unique and
// non-empty, and every covalent radius must be positive.
func New(props []Properties) (*Table, error) {
	t := &Table{bySymbol: make(map[string]Properties, len(props))}
	for i, p := range props {
		p.Symbol = strings.TrimSpace(p.Symbol)
		if p.Symbol == "" {
			return nil, fmt.Errorf("element: entry %d has an empty symbol", i)
		}
		if _, dup := t.bySymbol[p.Symbol]; dup {
			return nil, fmt.Errorf("element: duplicate symbol %q", p.Symbol)
		}
		if !(p.CovalentRadius > 0) {
			return nil, fmt.Errorf("element: %s covalent radius %.4f must be positive", p.Symbol, p.CovalentRadius)
		}
		t.bySymbol[p.Symbol] = p
		t.symbols = append(t.symbols, p.Symbol)
		if p.CovalentRadius > t.maxRadius {
			t.maxRadius = p.CovalentRadius
		}
	}
	sort.Strings(t.symbols)
	return t, nil
}

// Decode reads a YAML dataset of the form `elements: [{symbol, covalent_radius, color}]`.
func Decode(r io.Reader) (*Table, error) {
	var ds dataset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("element: decode dataset: %w", err)
	}
	return New(ds.Elements)
}

// Load reads a YAML dataset from path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("element: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table, decoding the embedded dataset on
// first use.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Decode(strings.NewReader(string(defaultDataset)))
		if err != nil {
			panic(fmt.Sprintf("element: embedded dataset is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Lookup returns the properties for symbol. An exact match wins; otherwise
// the symbol is retried in canonical case ("CL" -> "Cl") since many XYZ
// writers upper-case element symbols.
func (t *Table) Lookup(symbol string) (Properties, error) {
	if p, ok := t.bySymbol[symbol]; ok {
		return p, nil
	}
	if p, ok := t.bySymbol[Canonical(symbol)]; ok {
		return p, nil
	}
	return Properties{}, &UnknownElementError{Symbol: symbol}
}

// Has reports whether symbol resolves in the table.
func (t *Table) Has(symbol string) bool {
	_, err := t.Lookup(symbol)
	return err == nil
}

// Symbols returns all symbols in sorted order.
func (t *Table) Symbols() []string {
	return append([]string(nil), t.symbols...)
}

// Len returns the number of elements.
func (t *Table) Len() int { return len(t.bySymbol) }

// MaxRadius is the largest covalent radius in the table.
func (t *Table) MaxRadius() float64 { return t.maxRadius }

// Canonical returns symbol with the first letter upper-cased and the rest
// lower-cased.
func Canonical(symbol string) string {
	s := strings.TrimSpace(symbol)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
