package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"relink/config"
	"relink/element"
)

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func TestContextWithEnv(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
}

func TestEnvFromContextPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := &LocalEnv{start: time.Now()}
	time.Sleep(10 * time.Millisecond)
	if uptime := env.Uptime(); uptime < 10*time.Millisecond || uptime > time.Second {
		t.Errorf("Uptime() = %v", uptime)
	}
}

func TestLocalEnv_RedirectStdLog(t *testing.T) {
	env := &LocalEnv{Log: testLogger(t)}
	for i := 0; i < 3; i++ {
		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Errorf("Iteration %d: restoreStdLog not set", i)
		}
		env.RestoreStdLog()
	}

	empty := &LocalEnv{}
	empty.RedirectStdLog()
	if empty.restoreStdLog != nil {
		t.Error("Expected restoreStdLog to remain nil")
	}
	empty.RestoreStdLog()
}

func TestLocalEnv_OpenStore(t *testing.T) {
	env := &LocalEnv{Log: testLogger(t)}
	if _, err := env.OpenStore(); err == nil {
		t.Error("OpenStore() expected error without configuration")
	}

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Store.Path = filepath.Join(t.TempDir(), "test.db")
	env.Cfg = cfg

	s, err := env.OpenStore()
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	again, _ := env.OpenStore()
	if again != s {
		t.Error("OpenStore() opened store twice")
	}
	if _, err := s.Find(context.Background(), element.NewRef(element.TypeDocument, 1)); err != nil {
		t.Errorf("Find(root) error = %v", err)
	}
	if err := env.CloseStore(); err != nil {
		t.Errorf("CloseStore() error = %v", err)
	}
	if env.Store != nil {
		t.Error("CloseStore() kept store")
	}
}
