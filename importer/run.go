package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"relink/element"
	"relink/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("import")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no bundle has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		dst = "/"
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	b, err := LoadBundle(ctx, src)
	if err != nil {
		return err
	}
	env.Rpt.Store("bundle"+filepath.Ext(src), src)

	s, err := env.OpenStore()
	if err != nil {
		return err
	}
	root, err := element.Resolve(ctx, s, dst)
	if err != nil {
		return fmt.Errorf("unable to find import root: %w", err)
	}

	svc, err := NewService(s, &env.Cfg.Import, env.Log)
	if err != nil {
		return err
	}

	log.Info("Import starting", zap.String("bundle", src), zap.Stringer("root", root), zap.Int("elements", len(b.Elements)))
	defer func(start time.Time) {
		log.Info("Import completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	res, err := svc.Import(ctx, root, b, cmd.Bool("overwrite") || env.Cfg.Import.Overwrite)
	if res != nil {
		data, merr := yaml.Marshal(res)
		if merr != nil {
			return multierr.Append(err, fmt.Errorf("unable to marshal import result: %w", merr))
		}
		env.Rpt.StoreData("import-result.yaml", data)
		if err == nil {
			if _, werr := os.Stdout.Write(data); werr != nil {
				return werr
			}
		}
	}
	return err
}
