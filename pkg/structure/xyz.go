package structure

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/molview/pkg/element"
	"github.com/chazu/molview/pkg/geom"
)

// Parser reads the XYZ atom-list format:
//
//	line 1:      atom count N (first non-empty line)
//	line 2:      comment, ignored, may be empty
//	lines 3..:   SYMBOL X Y Z, whitespace separated
//
// When Table is set every symbol must resolve in it.
type Parser struct {
	Table *element.Table
}

// Parse parses text without symbol validation.
func Parse(text string) (*Structure, error) {
	return Parser{}.Parse(text)
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) (*Structure, error) {
	return Parser{}.ParseFile(path)
}

// ParseFile reads and parses the file at path.
func (p Parser) ParseFile(path string) (*Structure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("structure: read %s: %w", path, err)
	}
	return p.Parse(string(data))
}

// Parse converts text into a Structure. It either fully succeeds or returns
// an error and no structure.
func (p Parser) Parse(text string) (*Structure, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	header := 0
	for header < len(lines) && strings.TrimSpace(lines[header]) == "" {
		header++
	}
	if header == len(lines) {
		return nil, malformed(ReasonBadCount, 0, "no atom count line")
	}

	countText := strings.TrimSpace(lines[header])
	n, err := strconv.Atoi(countText)
	if err != nil || n <= 0 {
		return nil, malformed(ReasonBadCount, header+1, "atom count %q is not a positive integer", countText)
	}

	first := header + 2 // skip the comment line
	end := len(lines)
	for end > first && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if avail := end - first; avail < n {
		if avail < 0 {
			avail = 0
		}
		return nil, malformed(ReasonMissingAtoms, 0, "header promises %d atoms, found %d data lines", n, avail)
	}

	comment := ""
	if header+1 < len(lines) {
		comment = strings.TrimSpace(lines[header+1])
	}

	atoms := make([]Atom, 0, n)
	for i := first; i < first+n; i++ {
		a, err := parseAtomLine(lines[i], i+1)
		if err != nil {
			return nil, err
		}
		if p.Table != nil {
			if _, err := p.Table.Lookup(a.Symbol); err != nil {
				return nil, fmt.Errorf("structure: line %d: %w", i+1, err)
			}
		}
		atoms = append(atoms, a)
	}

	return &Structure{comment: comment, atoms: atoms}, nil
}

func parseAtomLine(line string, lineNo int) (Atom, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Atom{}, malformed(ReasonBadFieldCount, lineNo, "expected 4 fields (symbol x y z), got %d", len(fields))
	}
	var xyz [3]float64
	for k := 0; k < 3; k++ {
		f, ok := parseDecimal(fields[k+1])
		if !ok {
			return Atom{}, malformed(ReasonBadCoordinate, lineNo, "coordinate %q is not a finite decimal number", fields[k+1])
		}
		xyz[k] = f
	}
	return Atom{
		Symbol:   fields[0],
		Position: geom.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]},
	}, nil
}

// parseDecimal parses a finite decimal coordinate. strconv also accepts hex
// floats such as 0x1p-2, which XYZ does not allow.
func parseDecimal(tok string) (float64, bool) {
	digits := strings.TrimLeft(tok, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Format writes s in XYZ format. Coordinates use the shortest
// representation that round-trips exactly through Parse.
func Format(s *Structure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n%s\n", s.Len(), strings.ReplaceAll(s.Comment(), "\n", " "))
	for _, a := range s.Atoms() {
		fmt.Fprintf(&b, "%s %s %s %s\n", a.Symbol,
			strconv.FormatFloat(a.Position.X, 'g', -1, 64),
			strconv.FormatFloat(a.Position.Y, 'g', -1, 64),
			strconv.FormatFloat(a.Position.Z, 'g', -1, 64))
	}
	return b.String()
}
