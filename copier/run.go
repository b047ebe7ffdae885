package copier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"relink/element"
	"relink/state"
)

// ReadMapping decodes YAML mapping of the form {document: {old: new}, ...}.
func ReadMapping(r io.Reader) (element.Mapping, error) {
	m := element.NewMapping()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode mapping: %w", err)
	}
	for t, ids := range m {
		for from, to := range ids {
			if from <= 0 || to <= 0 {
				return nil, fmt.Errorf("bad %s mapping %d -> %d", t, from, to)
			}
		}
	}
	return m, nil
}

func argRefs(ctx context.Context, cmd *cli.Command, env *state.LocalEnv, names ...string) ([]element.Ref, error) {
	if cmd.Args().Len() < len(names) {
		return nil, fmt.Errorf("%s must be specified", names[cmd.Args().Len()])
	}
	s, err := env.OpenStore()
	if err != nil {
		return nil, err
	}
	refs := make([]element.Ref, 0, len(names))
	for i, name := range names {
		ref, err := element.Resolve(ctx, s, cmd.Args().Get(i))
		if err != nil {
			return nil, fmt.Errorf("bad %s: %w", name, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func printYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// Run copies subtree, arguments are source and target parent.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("copy")

	refs, err := argRefs(ctx, cmd, env, "source", "target parent")
	if err != nil {
		return err
	}
	opts := Options{Suffix: env.Cfg.Copy.Suffix, Tags: cmd.Bool("tags") || env.Cfg.Copy.Tags}

	log.Debug("Copy starting", zap.Stringer("source", refs[0]), zap.Stringer("target", refs[1]), zap.Bool("tags", opts.Tags))
	res, err := Copy(ctx, env.Store, refs[0], refs[1], opts, log)
	if err != nil {
		return err
	}
	return printYAML(res)
}

// RunRewrite applies mapping file to a single element.
func RunRewrite(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("rewrite")

	refs, err := argRefs(ctx, cmd, env, "element")
	if err != nil {
		return err
	}
	name := cmd.Args().Get(1)
	if len(name) == 0 {
		return errors.New("no mapping file has been specified")
	}
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("unable to open mapping: %w", err)
	}
	defer f.Close()
	m, err := ReadMapping(f)
	if err != nil {
		return err
	}
	env.Rpt.Store("mapping.yaml", name)

	if _, err := Rewrite(ctx, env.Store, refs[0], m); err != nil {
		return err
	}
	log.Info("Element rewritten", zap.Stringer("ref", refs[0]), zap.Int("mapping", m.Len()))
	return nil
}
