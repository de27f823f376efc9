package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/molview/pkg/engine"
	"github.com/chazu/molview/pkg/geom"
	"github.com/chazu/molview/pkg/pick"
	"github.com/chazu/molview/pkg/scene"
	"github.com/chazu/molview/pkg/structure"
	"github.com/chazu/molview/pkg/viewer"
)

func newBondsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bonds FILE",
		Short: "Print the inferred bond set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			snap, err := sess.LoadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, b := range snap.Bonds {
				a, c := snap.Structure.Atom(b.A), snap.Structure.Atom(b.B)
				fmt.Fprintf(out, "%s %s-%s d=%.3f\n", b, a.Symbol, c.Symbol, a.Position.Distance(c.Position))
			}
			return nil
		},
	}
}

func newSceneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scene FILE",
		Short: "Print the scene primitives as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			if _, err := sess.LoadFile(args[0]); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sess.Records())
		},
	}
}

type pickOptions struct {
	xs, ys   []float64
	position []float64
	target   []float64
	fov      float64
	aspect   float64
}

func newPickCommand() *cobra.Command {
	opts := &pickOptions{}
	cmd := &cobra.Command{
		Use:   "pick FILE",
		Short: "Pick atoms at normalized device coordinates and print the selection",
		Long: "Each --x/--y pair is one click, applied in order. Clicking a selected atom\n" +
			"deselects it. Without --camera-position the camera frames the structure.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.xs) != len(opts.ys) {
				return fmt.Errorf("pick: got %d --x values and %d --y values", len(opts.xs), len(opts.ys))
			}
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			snap, err := sess.LoadFile(args[0])
			if err != nil {
				return err
			}
			cam, err := opts.camera(cmd, snap)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i := range opts.xs {
				res, ok := sess.Pick(pick.NDC{X: opts.xs[i], Y: opts.ys[i]}, cam)
				if !ok {
					fmt.Fprintf(out, "miss (%.3f, %.3f)\n", opts.xs[i], opts.ys[i])
					continue
				}
				state := "deselected"
				if res.Selected {
					state = "selected"
				}
				if res.Tag.Kind != scene.TagAtom {
					state = "not selectable"
				}
				fmt.Fprintf(out, "hit %s d=%.3f %s\n", res.Tag, res.Distance, state)
			}
			for _, line := range sess.SelectionLines() {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64SliceVar(&opts.xs, "x", nil, "click x in [-1, 1] (repeatable)")
	f.Float64SliceVar(&opts.ys, "y", nil, "click y in [-1, 1] (repeatable)")
	f.Float64SliceVar(&opts.position, "camera-position", nil, "camera position x,y,z")
	f.Float64SliceVar(&opts.target, "camera-target", []float64{0, 0, 0}, "camera target x,y,z")
	f.Float64Var(&opts.fov, "camera-fov", 75, "vertical field of view in degrees")
	f.Float64Var(&opts.aspect, "camera-aspect", 1, "viewport width/height")
	return cmd
}

func (o *pickOptions) camera(cmd *cobra.Command, snap viewer.Snapshot) (pick.Camera, error) {
	if len(o.position) == 0 {
		rc := viewer.NewRenderContext(nil, getCLIContext(cmd).log)
		rc.Frame(snap, o.aspect)
		return rc.Camera, nil
	}
	pos, err := vec3Flag("camera-position", o.position)
	if err != nil {
		return pick.Camera{}, err
	}
	target, err := vec3Flag("camera-target", o.target)
	if err != nil {
		return pick.Camera{}, err
	}
	cam := pick.DefaultCamera()
	cam.Position, cam.Target = pos, target
	cam.FovY, cam.Aspect = o.fov, o.aspect
	if err := cam.Validate(); err != nil {
		return pick.Camera{}, err
	}
	return cam, nil
}

func vec3Flag(name string, v []float64) (geom.Vec3, error) {
	if len(v) != 3 {
		return geom.Vec3{}, fmt.Errorf("--%s needs 3 values, got %d", name, len(v))
	}
	return geom.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-infer bonds whenever FILE changes, until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			report := func(snap viewer.Snapshot) {
				fmt.Fprintf(out, "v%d %q: %d atoms, %d bonds\n",
					snap.Version, snap.Structure.Comment(), snap.Structure.Len(), snap.Bonds.Len())
			}
			sess, err := newSession(cmd, viewer.OnReload(report))
			if err != nil {
				return err
			}
			if _, err := sess.LoadFile(args[0]); err != nil {
				return err
			}

			ctx := cmd.Context()
			errs, err := sess.Watch(ctx, args[0])
			if err != nil {
				return err
			}
			for err := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "reload failed: %v\n", err)
			}
			return nil
		},
	}
}

func newScriptCommand() *cobra.Command {
	var validate bool
	cmd := &cobra.Command{
		Use:   "script FILE",
		Short: "Run a structure script and print the result as XYZ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCLIContext(cmd)
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("script: %w", err)
			}

			opts := []engine.Option{engine.WithLogger(cc.log)}
			if validate {
				sess, err := newSession(cmd)
				if err != nil {
					return err
				}
				opts = append(opts, engine.WithTable(sess.Table()))
			}
			res, err := engine.NewEngine(opts...).Run(string(src))
			if err != nil {
				return fmt.Errorf("script: %w", err)
			}
			if len(res.Errors) > 0 {
				for _, e := range res.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", args[0], e)
				}
				return fmt.Errorf("script: %d error(s)", len(res.Errors))
			}
			for _, w := range res.Warnings {
				cc.log.Warn("script warning", zap.Int("atom", w.Atom), zap.String("message", w.Message))
			}
			fmt.Fprint(cmd.OutOrStdout(), structure.Format(res.Structure))
			return nil
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", true, "reject element symbols missing from the element table")
	return cmd
}
