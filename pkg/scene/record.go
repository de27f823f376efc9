package scene

import (
	"github.com/chazu/molview/pkg/element"
	"github.com/chazu/molview/pkg/geom"
)

// Record is the JSON form of a primitive handed to hosts.
type Record struct {
	Kind         string     `json:"kind"` // "sphere" | "cylinder"
	Tag          string     `json:"tag"`
	Position     geom.Vec3  `json:"position"`
	Radius       float64    `json:"radius,omitempty"`
	Length       float64    `json:"length,omitempty"`
	RadiusTop    float64    `json:"radiusTop,omitempty"`
	RadiusBottom float64    `json:"radiusBottom,omitempty"`
	Orientation  *geom.Quat `json:"orientation,omitempty"`
	ColorKey     string     `json:"colorKey"`
	Color        string     `json:"color"`
}

// Records converts primitives to host records, resolving color keys through
// the palette.
func Records(prims []Primitive, palette element.Palette, table *element.Table) []Record {
	if palette == nil {
		palette = element.DefaultPalette()
	}
	out := make([]Record, 0, len(prims))
	for _, p := range prims {
		switch v := p.(type) {
		case Sphere:
			out = append(out, Record{
				Kind:     "sphere",
				Tag:      v.Tag.String(),
				Position: v.Center,
				Radius:   v.Radius,
				ColorKey: v.ColorKey,
				Color:    palette.Resolve(table, v.ColorKey),
			})
		case Cylinder:
			q := v.Orientation
			out = append(out, Record{
				Kind:         "cylinder",
				Tag:          v.Tag.String(),
				Position:     v.Midpoint,
				Length:       v.Length,
				RadiusTop:    v.RadiusTop,
				RadiusBottom: v.RadiusBottom,
				Orientation:  &q,
				ColorKey:     v.ColorKey,
				Color:        palette.Resolve(table, v.ColorKey),
			})
		}
	}
	return out
}
