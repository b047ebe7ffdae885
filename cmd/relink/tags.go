package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"relink/element"
	"relink/state"
	"relink/store"
)

func tagsCommand() *cli.Command {
	return &cli.Command{
		Name:         "tags",
		Usage:        "Manages element tags",
		OnUsageError: usageErrorHandler,
		Commands: []*cli.Command{
			{
				Name:         "list",
				Usage:        "Lists tags assigned to element",
				OnUsageError: usageErrorHandler,
				Action:       listTags,
				ArgsUsage:    "REF",
			},
			{
				Name:         "add",
				Usage:        "Assigns tag to element",
				OnUsageError: usageErrorHandler,
				Action:       func(ctx context.Context, cmd *cli.Command) error { return assignTag(ctx, cmd, true) },
				ArgsUsage:    "REF TAG_ID",
			},
			{
				Name:         "remove",
				Usage:        "Removes tag from element",
				OnUsageError: usageErrorHandler,
				Action:       func(ctx context.Context, cmd *cli.Command) error { return assignTag(ctx, cmd, false) },
				ArgsUsage:    "REF TAG_ID",
			},
			{
				Name:         "create",
				Usage:        "Creates new tag",
				OnUsageError: usageErrorHandler,
				Action:       createTag,
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "parent", Usage: "parent tag `ID`"},
				},
				ArgsUsage: "NAME",
			},
			{
				Name:         "elements",
				Usage:        "Lists elements of given type with tag assigned",
				OnUsageError: usageErrorHandler,
				Action:       taggedElements,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Value: element.TypeDocument.String(), Usage: "element `TYPE`"},
					&cli.StringSliceFlag{Name: "subtype", Usage: "limit to element `SUBTYPE`s"},
					&cli.StringSliceFlag{Name: "class", Usage: "limit objects to `CLASS`es"},
					&cli.BoolFlag{Name: "children", Usage: "consider child tags as well"},
				},
				ArgsUsage: "TAG_ID",
			},
		},
	}
}

func tagID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad tag id '%s'", s)
	}
	return id, nil
}

func listTags(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	s, ref, err := argRef(ctx, cmd, env)
	if err != nil {
		return err
	}
	tags, err := s.TagsForElement(ctx, ref)
	if err != nil {
		return err
	}
	return printYAML(tags)
}

func assignTag(ctx context.Context, cmd *cli.Command, add bool) error {
	env := state.EnvFromContext(ctx)
	s, ref, err := argRef(ctx, cmd, env)
	if err != nil {
		return err
	}
	id, err := tagID(cmd.Args().Get(1))
	if err != nil {
		return err
	}
	if add {
		err = s.AddTagToElement(ctx, ref, id)
	} else {
		err = s.RemoveTagFromElement(ctx, ref, id)
	}
	if err != nil {
		return err
	}
	env.Log.Info("Element tags changed", zap.Stringer("ref", ref), zap.Int64("tag", id), zap.Bool("assigned", add))
	return nil
}

func createTag(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() == 0 {
		return errors.New("no tag name has been specified")
	}
	s, err := env.OpenStore()
	if err != nil {
		return err
	}
	t := &store.Tag{Name: cmd.Args().First(), ParentID: cmd.Int64("parent")}
	if err := s.SaveTag(ctx, t); err != nil {
		return err
	}
	if t.NamePath, err = s.TagNamePath(ctx, t.ID); err != nil {
		return err
	}
	return printYAML(t)
}

func taggedElements(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	id, err := tagID(cmd.Args().First())
	if err != nil {
		return err
	}
	t, err := element.ParseType(cmd.String("type"))
	if err != nil {
		return err
	}
	s, err := env.OpenStore()
	if err != nil {
		return err
	}
	hs, err := s.ElementsForTag(ctx, id, t, cmd.StringSlice("subtype"), cmd.StringSlice("class"), cmd.Bool("children"))
	if err != nil {
		return err
	}
	out := make([]listed, 0, len(hs))
	for _, h := range hs {
		out = append(out, listed{Ref: h.Ref, Path: h.FullPath()})
	}
	return printYAML(out)
}
