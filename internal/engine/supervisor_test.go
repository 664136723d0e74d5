package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	calls       int
	runningFrom int // probe index (1-based) from which IsRunning turns true; 0 = never
}

func (p *fakeProber) IsRunning(_ context.Context) bool {
	p.calls++
	return p.runningFrom > 0 && p.calls >= p.runningFrom
}

type fakeLauncher struct {
	launches int
	pid      int
	err      error
}

func (l *fakeLauncher) Launch(_ context.Context) (int, error) {
	l.launches++
	return l.pid, l.err
}

func testConfig() Config {
	return Config{
		BaseURL:       "http://localhost:5678",
		DataDir:       "/tmp/does-not-matter",
		ReadyInterval: time.Millisecond,
		ReadyAttempts: 15,
		StopGrace:     time.Millisecond,
	}
}

func TestStart_IdempotentWhenRunning(t *testing.T) {
	prober := &fakeProber{runningFrom: 1}
	launcher := &fakeLauncher{pid: 123}

	s := NewSupervisor(SupervisorDependencies{Config: testConfig(), Prober: prober, Launcher: launcher})

	result, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, result.AlreadyRunning)
	assert.Zero(t, launcher.launches, "no second process instance may be launched")
}

func TestStart_LaunchesWhenStopped(t *testing.T) {
	prober := &fakeProber{}
	launcher := &fakeLauncher{pid: 123}

	s := NewSupervisor(SupervisorDependencies{Config: testConfig(), Prober: prober, Launcher: launcher})

	result, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.False(t, result.AlreadyRunning)
	assert.Equal(t, 123, result.PID)
	assert.Equal(t, 1, launcher.launches)
}

func TestStart_LaunchFailure(t *testing.T) {
	launcher := &fakeLauncher{err: errors.New("npx not found")}

	s := NewSupervisor(SupervisorDependencies{Config: testConfig(), Prober: &fakeProber{}, Launcher: launcher})

	_, err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrStartFailed)
}

func TestPollUntilReady_SucceedsMidway(t *testing.T) {
	prober := &fakeProber{runningFrom: 3}

	err := PollUntilReady(context.Background(), prober, time.Millisecond, 15)
	require.NoError(t, err)
	assert.Equal(t, 3, prober.calls)
}

func TestPollUntilReady_CeilingBoundsAttempts(t *testing.T) {
	prober := &fakeProber{} // never becomes ready

	start := time.Now()
	err := PollUntilReady(context.Background(), prober, time.Millisecond, 15)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrStartTimeout)
	assert.Equal(t, 15, prober.calls, "probe count is capped at the attempt ceiling")
	assert.Less(t, elapsed, time.Second, "overall wait must be bounded")
}

func TestPollUntilReady_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := PollUntilReady(ctx, &fakeProber{}, time.Minute, 15)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReset_DeletesDataDir(t *testing.T) {
	dataDir := t.TempDir()

	config := testConfig()
	config.DataDir = dataDir

	s := NewSupervisor(SupervisorDependencies{Config: config, Prober: &fakeProber{}, Launcher: &fakeLauncher{}})

	result, err := s.Reset(context.Background())
	require.NoError(t, err)
	assert.True(t, result.DataDirRemoved)
	assert.NoDirExists(t, dataDir)
}

func TestReset_MissingDataDirIsSuccess(t *testing.T) {
	config := testConfig()
	config.DataDir = "/tmp/elas-gateway-test-does-not-exist"

	s := NewSupervisor(SupervisorDependencies{Config: config, Prober: &fakeProber{}, Launcher: &fakeLauncher{}})

	result, err := s.Reset(context.Background())
	require.NoError(t, err)
	assert.False(t, result.DataDirRemoved)
}
