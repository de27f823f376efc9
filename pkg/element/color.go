package element

// Color keys understood by hosts. A color key is either one of these or an
// element symbol whose table color should be used.
const (
	ColorRed     = "red"
	ColorBlue    = "blue"
	ColorNeutral = "neutral"
	ColorBond    = "bond"
)

// ColorPolicy maps an element symbol to a color key. Overrides win, then the
// table's own color (keyed by symbol), then Fallback.
type ColorPolicy struct {
	Overrides map[string]string
	Fallback  string
	UseTable  bool
}

// DefaultColorPolicy renders oxygen red, hydrogen blue and everything else
// neutral.
func DefaultColorPolicy() ColorPolicy {
	return ColorPolicy{
		Overrides: map[string]string{
			"O": ColorRed,
			"H": ColorBlue,
		},
		Fallback: ColorNeutral,
	}
}

// Key returns the color key for symbol.
func (p ColorPolicy) Key(t *Table, symbol string) string {
	if k, ok := p.Overrides[symbol]; ok {
		return k
	}
	if k, ok := p.Overrides[Canonical(symbol)]; ok {
		return k
	}
	if p.UseTable && t != nil {
		if props, err := t.Lookup(symbol); err == nil && props.Color != "" {
			return props.Symbol
		}
	}
	if p.Fallback == "" {
		return ColorNeutral
	}
	return p.Fallback
}

// Palette resolves color keys to "#RRGGBB" strings.
type Palette map[string]string

// DefaultPalette covers the fixed keys; element-symbol keys resolve through
// the table.
func DefaultPalette() Palette {
	return Palette{
		ColorRed:     "#FF0000",
		ColorBlue:    "#0000FF",
		ColorNeutral: "#B0B0B0",
		ColorBond:    "#808080",
	}
}

// Resolve returns the hex color for key, consulting the table for element
// symbols. Unknown keys resolve to the neutral color.
func (p Palette) Resolve(t *Table, key string) string {
	if c, ok := p[key]; ok {
		return c
	}
	if t != nil {
		if props, err := t.Lookup(key); err == nil && props.Color != "" {
			return props.Color
		}
	}
	if c, ok := p[ColorNeutral]; ok {
		return c
	}
	return "#B0B0B0"
}
