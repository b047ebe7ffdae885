// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"relink/config"
	"relink/field"
	"relink/store"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// opened on first use
	Schema *field.Schema
	Store  *store.Store

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// OpenStore loads class schema and opens configured store, subsequent calls
// return the same store.
func (e *LocalEnv) OpenStore() (*store.Store, error) {
	if e.Store != nil {
		return e.Store, nil
	}
	if e.Cfg == nil {
		return nil, fmt.Errorf("no configuration loaded")
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}

	if e.Schema == nil {
		schema, err := field.LoadSchemaFile(e.Cfg.Schema.Path, nil)
		if err != nil {
			return nil, err
		}
		e.Schema = schema
		if len(e.Cfg.Schema.Path) > 0 {
			e.Rpt.Store("schema.yaml", e.Cfg.Schema.Path)
		}
	}

	s, err := store.Open(e.Cfg.Store.Path, e.Schema, log)
	if err != nil {
		return nil, err
	}
	e.Store = s
	return s, nil
}

// CloseStore closes store if it was opened.
func (e *LocalEnv) CloseStore() error {
	if e.Store == nil {
		return nil
	}
	err := e.Store.Close()
	e.Store = nil
	return err
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
