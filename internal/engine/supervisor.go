// Package engine supervises the local n8n automation engine: detached
// launch, liveness probing, bounded readiness polling, and destructive reset
// of the engine's data directory.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrStartTimeout means the engine process launched but never answered
	// the liveness probe within the polling budget.
	ErrStartTimeout = errors.New("engine: started but not responding within the readiness budget")

	// ErrStartFailed means the engine process could not be launched at all.
	ErrStartFailed = errors.New("engine: failed to start")
)

// Prober answers whether the engine is currently serving requests. Injected
// so readiness polling can be tested without a real process.
type Prober interface {
	IsRunning(ctx context.Context) bool
}

// Launcher starts the engine process detached from the caller. Returns the
// platform pid when available.
type Launcher interface {
	Launch(ctx context.Context) (pid int, err error)
}

// Config holds the supervisor's tunables. ReadyInterval and ReadyAttempts
// bound the post-start polling loop; StopGrace is the wait between stopping
// the process and deleting its data directory so open file handles are
// released first.
type Config struct {
	BaseURL       string
	DataDir       string
	ProbeTimeout  time.Duration
	ReadyInterval time.Duration
	ReadyAttempts int
	StopGrace     time.Duration
}

// DefaultConfig returns the supervisor defaults for a local n8n install.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "/root"
	}

	return Config{
		BaseURL:       "http://localhost:5678",
		DataDir:       home + "/.n8n",
		ProbeTimeout:  3 * time.Second,
		ReadyInterval: 2 * time.Second,
		ReadyAttempts: 15,
		StopGrace:     2 * time.Second,
	}
}

// Supervisor manages the engine process lifecycle. Liveness is always
// re-derived from a live probe, never from cached state, since the process
// may die or be killed outside the supervisor's control.
type Supervisor struct {
	config   Config
	prober   Prober
	launcher Launcher
}

// SupervisorDependencies lists the collaborators a Supervisor needs. Nil
// fields fall back to the real HTTP prober and npx launcher.
type SupervisorDependencies struct {
	Config   Config
	Prober   Prober
	Launcher Launcher
}

// NewSupervisor creates a supervisor for the configured engine.
func NewSupervisor(deps SupervisorDependencies) *Supervisor {
	if deps.Prober == nil {
		deps.Prober = &httpProber{
			baseURL: deps.Config.BaseURL,
			timeout: deps.Config.ProbeTimeout,
		}
	}
	if deps.Launcher == nil {
		deps.Launcher = &npxLauncher{}
	}

	return &Supervisor{
		config:   deps.Config,
		prober:   deps.Prober,
		launcher: deps.Launcher,
	}
}

// IsRunning probes the engine's listening port. Any error means stopped.
func (s *Supervisor) IsRunning(ctx context.Context) bool {
	return s.prober.IsRunning(ctx)
}

// StartResult reports what Start did.
type StartResult struct {
	AlreadyRunning bool
	PID            int
}

// Start launches the engine if it is not already serving. The launch is
// fire-and-forget: the engine can take tens of seconds to become ready, so
// callers follow up with PollUntilReady.
func (s *Supervisor) Start(ctx context.Context) (*StartResult, error) {
	if s.prober.IsRunning(ctx) {
		log.Info().Msg("Engine already running")
		return &StartResult{AlreadyRunning: true}, nil
	}

	pid, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	log.Info().Int("pid", pid).Msg("Engine launched")

	return &StartResult{PID: pid}, nil
}

// PollUntilReady probes the engine at the configured interval until it
// answers or the attempt ceiling is reached. The total wait is bounded at
// interval x attempts; exceeding it is ErrStartTimeout, distinct from a
// launch failure.
func (s *Supervisor) PollUntilReady(ctx context.Context) error {
	return PollUntilReady(ctx, s.prober, s.config.ReadyInterval, s.config.ReadyAttempts)
}

// PollUntilReady is the reusable bounded readiness loop.
func PollUntilReady(ctx context.Context, prober Prober, interval time.Duration, maxAttempts int) error {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		if prober.IsRunning(ctx) {
			log.Info().Int("attempt", attempt).Msg("Engine is responding")
			return nil
		}

		log.Debug().Int("attempt", attempt).Int("max_attempts", maxAttempts).Msg("Engine not responding yet")
	}

	return ErrStartTimeout
}

// Stop terminates the engine by process name. A missing process counts as
// success so stop is idempotent.
func (s *Supervisor) Stop(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "pkill", "-f", "n8n start")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		// pkill exits 1 when no process matched, which is fine here.
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			log.Debug().Msg("Engine was not running")
			return nil
		}
		return fmt.Errorf("engine: failed to stop: %w", err)
	}

	log.Info().Msg("Engine stopped")
	return nil
}

// ResetResult reports what Reset did.
type ResetResult struct {
	DataDirRemoved bool
}

// Reset stops the engine, waits for it to release its file handles, then
// deletes the data directory. The grace period before deletion is a
// correctness requirement: removing the directory while the process still
// holds open handles can corrupt its database.
func (s *Supervisor) Reset(ctx context.Context) (*ResetResult, error) {
	if err := s.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("Engine stop before reset failed, continuing")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.config.StopGrace):
	}

	if _, err := os.Stat(s.config.DataDir); os.IsNotExist(err) {
		log.Info().Str("dir", s.config.DataDir).Msg("Engine data directory does not exist, nothing to reset")
		return &ResetResult{DataDirRemoved: false}, nil
	}

	if err := os.RemoveAll(s.config.DataDir); err != nil {
		return nil, fmt.Errorf("engine: failed to delete data directory: %w", err)
	}

	log.Info().Str("dir", s.config.DataDir).Msg("Engine data directory deleted")

	return &ResetResult{DataDirRemoved: true}, nil
}

// httpProber checks liveness with a bounded GET against the engine root.
type httpProber struct {
	baseURL string
	timeout time.Duration
}

func (p *httpProber) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 400
}

// npxLauncher starts n8n through npx, detached so the engine outlives the
// gateway process.
type npxLauncher struct{}

func (l *npxLauncher) Launch(_ context.Context) (int, error) {
	// Deliberately not CommandContext: the engine must not be tied to the
	// request's lifetime.
	cmd := exec.Command("npx", "n8n", "start")
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	cmd.SysProcAttr = detachedProcAttr()

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	pid := cmd.Process.Pid

	// Release the child so it is not reparented to us for reaping.
	if err := cmd.Process.Release(); err != nil {
		log.Warn().Err(err).Msg("Failed to release engine process handle")
	}

	return pid, nil
}
