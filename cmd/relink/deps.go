package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"relink/element"
	"relink/graph"
	"relink/state"
	"relink/store"
)

type listed struct {
	Ref  element.Ref `yaml:"ref"`
	Path string      `yaml:"path,omitempty"`
}

// describe adds paths to references, missing elements are listed without
// path.
func describe(ctx context.Context, f element.Finder, refs []element.Ref) ([]listed, error) {
	out := make([]listed, 0, len(refs))
	for _, ref := range refs {
		l := listed{Ref: ref}
		h, err := f.Find(ctx, ref)
		switch {
		case err == nil:
			l.Path = h.FullPath()
		case !errors.Is(err, element.ErrNotFound):
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func printYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("unable to marshal output: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

// argRef opens store and resolves single element argument.
func argRef(ctx context.Context, cmd *cli.Command, env *state.LocalEnv) (*store.Store, element.Ref, error) {
	if cmd.Args().Len() == 0 {
		return nil, element.Ref{}, errors.New("no element has been specified")
	}
	s, err := env.OpenStore()
	if err != nil {
		return nil, element.Ref{}, err
	}
	ref, err := element.Resolve(ctx, s, cmd.Args().First())
	if err != nil {
		return nil, element.Ref{}, err
	}
	return s, ref, nil
}

func listDependencies(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	s, ref, err := argRef(ctx, cmd, env)
	if err != nil {
		return err
	}

	var refs []element.Ref
	switch {
	case cmd.IsSet("closure"):
		if refs, err = graph.Closure(ctx, s, []element.Ref{ref}, cmd.Int("closure")); err != nil {
			return err
		}
	case cmd.Bool("required-by"):
		if refs, err = s.RequiredBy(ctx, ref); err != nil {
			return err
		}
	default:
		if refs, err = s.Requires(ctx, ref); err != nil {
			return err
		}
	}
	env.Log.Debug("Dependencies listed", zap.Stringer("ref", ref), zap.Int("count", len(refs)))

	out, err := describe(ctx, s, refs)
	if err != nil {
		return err
	}
	return printYAML(out)
}

func deleteElement(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	s, ref, err := argRef(ctx, cmd, env)
	if err != nil {
		return err
	}
	if err := s.Delete(ctx, ref, cmd.Bool("force")); err != nil {
		if errors.Is(err, store.ErrRequired) {
			env.Log.Warn("Element is still in use, use --force to delete it anyway", zap.Stringer("ref", ref))
		}
		return err
	}
	env.Log.Info("Element deleted", zap.Stringer("ref", ref))
	return nil
}
