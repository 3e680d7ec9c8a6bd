package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixkme/gotimer/framework/config"
	"github.com/fixkme/gotimer/mlog"
)

type fakeModule struct {
	name    string
	initErr error
	events  *[]string
	mu      *sync.Mutex
	done    chan struct{}
}

func newFake(name string, events *[]string, mu *sync.Mutex) *fakeModule {
	return &fakeModule{name: name, events: events, mu: mu, done: make(chan struct{})}
}

func (m *fakeModule) log(ev string) {
	m.mu.Lock()
	*m.events = append(*m.events, ev+":"+m.name)
	m.mu.Unlock()
}

func (m *fakeModule) OnInit() error {
	m.log("init")
	return m.initErr
}

func (m *fakeModule) Run() {
	<-m.done
}

func (m *fakeModule) Destroy() {
	m.log("destroy")
	close(m.done)
}

func (m *fakeModule) Name() string {
	return m.name
}

func TestAppRunCtx(t *testing.T) {
	var events []string
	var mu sync.Mutex
	a, b := newFake("a", &events, &mu), newFake("b", &events, &mu)

	app := NewApp()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, app.Run(ctx, a, b))

	assert.Equal(t, []string{"init:a", "init:b", "destroy:b", "destroy:a"}, events)
	assert.EqualValues(t, AppStateNone, app.GetState())
}

func TestAppShutdown(t *testing.T) {
	var events []string
	var mu sync.Mutex
	app := NewApp()
	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background(), newFake("a", &events, &mu)) }()

	require.Eventually(t, func() bool { return app.GetState() == AppStateRun }, time.Second, time.Millisecond)
	app.Shutdown()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestAppInitError(t *testing.T) {
	var events []string
	var mu sync.Mutex
	a, b := newFake("a", &events, &mu), newFake("b", &events, &mu)
	b.initErr = errors.New("bad")

	app := NewApp()
	err := app.Start(a, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, b.initErr)
	assert.Equal(t, []string{"init:a", "init:b", "destroy:a"}, events)
	assert.EqualValues(t, AppStateNone, app.GetState())

	require.NoError(t, app.Start())
	assert.Error(t, app.Start())
	app.Stop()
	assert.Same(t, defaultApp, DefaultApp())
}

func TestSetupLog(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	defer func() {
		cancel()
		wg.Wait()
		require.NoError(t, mlog.UseStdLogger(mlog.InfoLevel))
	}()

	require.NoError(t, SetupLog(ctx, wg, &config.LogConfig{LogLevel: "debug"}, false))
	assert.True(t, mlog.IsLevelEnabled(mlog.DebugLevel))

	require.NoError(t, SetupLog(ctx, wg, &config.LogConfig{LogLevel: "warn", LogZap: true}, true))
	assert.False(t, mlog.IsLevelEnabled(mlog.InfoLevel))

	dir := t.TempDir()
	require.NoError(t, SetupLog(ctx, wg, &config.LogConfig{LogPath: dir, LogName: "app", LogLevel: "info"}, false))
	mlog.Info("to file")
	assert.True(t, mlog.IsLevelEnabled(mlog.InfoLevel))
}
