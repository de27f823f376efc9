// Package engine evaluates structure scripts. It wraps zygomys in a
// sandboxed environment and produces a Structure from user source code.
package engine

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"

	"github.com/chazu/molview/pkg/element"
	"github.com/chazu/molview/pkg/structure"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning flags a suspicious but valid result, such as two atoms at the
// same position.
type EvalWarning struct {
	Atom    int    `json:"atom"`
	Message string `json:"message"`
}

// EvalResult bundles the full output of an evaluation for UI bindings.
type EvalResult struct {
	Structure *structure.Structure `json:"-"`
	Errors    []EvalError          `json:"errors"`
	Warnings  []EvalWarning        `json:"warnings"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithTable makes atom symbols resolve against t during evaluation.
func WithTable(t *element.Table) Option {
	return func(e *Engine) { e.table = t }
}

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	table   *element.Table
	timeout time.Duration
	log     *zap.Logger
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout, log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate takes script source and produces a new Structure.
//
// Return semantics:
//   - On success: returns structure + nil errors + nil error
//   - On parse/eval failure: returns nil structure + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*structure.Structure, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := e.evaluate(source)
		ch <- evalResult{structure: s, errors: evalErrs, err: err}
	}()

	res := await(ch, gen, e.timeout, e.currentGeneration)
	e.log.Debug("script evaluated",
		zap.Uint64("generation", gen),
		zap.Int("atoms", res.structure.Len()),
		zap.Int("errors", len(res.errors)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(res.err),
	)
	return res.structure, res.errors, res.err
}

func (e *Engine) currentGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// Run evaluates source and attaches warnings to the result.
func (e *Engine) Run(source string) (EvalResult, error) {
	s, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return EvalResult{}, err
	}
	return EvalResult{Structure: s, Errors: evalErrs, Warnings: Warnings(s)}, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*structure.Structure, []EvalError, error) {
	b := &builder{table: e.table}

	// Empty source is a valid program that produces an empty structure.
	if strings.TrimSpace(source) == "" {
		return b.structure(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return b.structure(), nil, nil
}

// coincidentTolerance is the grid size, in angstroms, under which two atoms
// count as overlapping.
const coincidentTolerance = 1e-4

// Warnings reports atoms that sit on top of an earlier atom.
func Warnings(s *structure.Structure) []EvalWarning {
	var out []EvalWarning
	seen := make(map[[3]int64]int, s.Len())
	for i, a := range s.Atoms() {
		key := [3]int64{
			int64(math.Round(a.Position.X / coincidentTolerance)),
			int64(math.Round(a.Position.Y / coincidentTolerance)),
			int64(math.Round(a.Position.Z / coincidentTolerance)),
		}
		if j, ok := seen[key]; ok {
			out = append(out, EvalWarning{
				Atom:    i,
				Message: fmt.Sprintf("atom %d (%s) coincides with atom %d", i, a.Symbol, j),
			})
			continue
		}
		seen[key] = i
	}
	return out
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
