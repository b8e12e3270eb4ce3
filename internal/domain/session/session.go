package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/domain/applet"
	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/timing"
	"github.com/GriffinCanCode/AppletOS/backend/internal/input"
	"github.com/GriffinCanCode/AppletOS/backend/internal/kernel"
	"github.com/GriffinCanCode/AppletOS/backend/internal/loader"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// ErrClosed is returned by calls on a closed session.
var ErrClosed = errors.New("session: closed")

// Launcher starts titles and keeps a history of what it started.
type Launcher interface {
	applet.TitleLauncher
	History() []loader.Launch
}

// Config selects the behavior of one session.
type Config struct {
	APT    config.APTConfig
	Timing config.TimingConfig
	Loader config.LoaderConfig
}

// ConfigFrom extracts the session settings from the service config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{APT: cfg.APT, Timing: cfg.Timing, Loader: cfg.Loader}
}

// Deps are optional collaborators of a session.
type Deps struct {
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	Clock   clockwork.Clock
	// NewLauncher overrides the launcher built from the loader config.
	NewLauncher func(program loader.ProgramSetter) (Launcher, error)
}

// Capture is one framebuffer capture requested by a system applet.
type Capture struct {
	Info types.CaptureBufferInfo `json:"info"`
	At   time.Time               `json:"at"`
}

// Session is one emulated console: the applet manager plus the kernel,
// scheduler, loader and input devices it drives. Every entry point is
// serialized behind one lock.
type Session struct {
	id      id.SessionID
	created time.Time
	cfg     Config
	clock   clockwork.Clock
	log     *zap.Logger

	kernel    *kernel.Table
	scheduler *timing.Scheduler
	devices   *input.Devices
	launcher  Launcher

	mu       sync.Mutex
	manager  *applet.Manager
	captures []Capture
	shutdown bool
	closed   bool
	done     chan struct{}
}

// New builds a session and its applet manager.
func New(cfg Config, deps Deps) (*Session, error) {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	sid := id.NewSessionID()
	s := &Session{
		id:        sid,
		created:   clock.Now(),
		cfg:       cfg,
		clock:     clock,
		log:       log.With(zap.String("session", sid.String())),
		kernel:    kernel.NewTable(),
		scheduler: timing.New(),
		devices:   input.NewDevices(),
		done:      make(chan struct{}),
	}

	newLauncher := deps.NewLauncher
	if newLauncher == nil {
		newLauncher = s.defaultLauncher(deps.Metrics)
	}
	l, err := newLauncher(s.kernel)
	if err != nil {
		return nil, fmt.Errorf("session: create launcher: %w", err)
	}
	s.launcher = l

	m, err := applet.NewManager(applet.Deps{
		Kernel:    s.kernel,
		Scheduler: s.scheduler,
		Launcher:  s.launcher,
		System:    s,
		Titles:    applet.RegionTitles{Region: cfg.APT.Region, New3DS: cfg.APT.New3DS},
		Capturer:  s,
		Input:     s.devices,
		Logger:    s.log,
	}, applet.Options{
		NativeLibraryApplets: cfg.APT.NativeLibraryApplets,
		New3DS:               cfg.APT.New3DS,
		Enable804MHz:         cfg.APT.Enable804MHz,
		SkipHomeButton:       cfg.APT.SkipHomeButton,
		ButtonInterval:       cfg.APT.ButtonInterval,
		HLEUpdateInterval:    cfg.APT.HLEUpdateInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("session: create applet manager: %w", err)
	}
	if deps.Metrics != nil {
		m.WithMetrics(deps.Metrics)
	}
	s.manager = m

	s.log.Info("session created",
		zap.Int("region", cfg.APT.Region),
		zap.Bool("new_3ds", cfg.APT.New3DS),
		zap.String("loader", cfg.Loader.Mode))
	return s, nil
}

func (s *Session) defaultLauncher(metrics *monitoring.Metrics) func(loader.ProgramSetter) (Launcher, error) {
	return func(program loader.ProgramSetter) (Launcher, error) {
		switch s.cfg.Loader.Mode {
		case config.LoaderRemote:
			r := loader.NewRemoteLauncher(loader.RemoteConfig{
				BaseURL:  s.cfg.Loader.RemoteURL,
				Timeout:  s.cfg.Loader.Timeout,
				RetryMax: 3,
			}, program, s.log)
			if metrics != nil {
				r.WithMetrics(metrics)
			}
			return r, nil
		case config.LoaderCatalog, "":
			catalog := loader.OpenCatalog()
			if s.cfg.Loader.Catalog != "" {
				c, err := loader.LoadCatalog(s.cfg.Loader.Catalog)
				if err != nil {
					return nil, err
				}
				catalog = c
			}
			return loader.NewCatalogLauncher(catalog, program, s.log), nil
		default:
			return nil, fmt.Errorf("unknown loader mode %q", s.cfg.Loader.Mode)
		}
	}
}

// ID returns the session id.
func (s *Session) ID() id.SessionID {
	return s.id
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.created
}

// Kernel returns the signal object table of the session.
func (s *Session) Kernel() *kernel.Table {
	return s.kernel
}

// Devices returns the button devices of the session.
func (s *Session) Devices() *input.Devices {
	return s.devices
}

// Launches returns the titles started in this session.
func (s *Session) Launches() []loader.Launch {
	return s.launcher.History()
}

// Do runs fn with exclusive access to the applet manager.
func (s *Session) Do(fn func(m *applet.Manager) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return fn(s.manager)
}

// Advance moves virtual time forward by d and runs the callbacks that fall
// due. It returns how many callbacks ran.
func (s *Session) Advance(d time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.scheduler.Advance(d), nil
}

// Now returns the virtual time of the session.
func (s *Session) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler.Now()
}

// Run advances virtual time by one frame on every wall-clock frame until ctx
// is done or the session closes. Without realtime driving it only waits.
func (s *Session) Run(ctx context.Context) error {
	if !s.cfg.Timing.Realtime || s.cfg.Timing.Frame <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		}
	}

	ticker := s.clock.NewTicker(s.cfg.Timing.Frame)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-ticker.Chan():
			if _, err := s.Advance(s.cfg.Timing.Frame); err != nil {
				return nil
			}
		}
	}
}

// RequestShutdown records that the emulated device asked to power off.
func (s *Session) RequestShutdown() {
	s.shutdown = true
	s.log.Warn("device shutdown requested")
}

// ShutdownRequested reports whether the device asked to power off.
func (s *Session) ShutdownRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// CaptureFrameBuffers records a framebuffer capture.
func (s *Session) CaptureFrameBuffers(info types.CaptureBufferInfo) error {
	s.captures = append(s.captures, Capture{Info: info, At: s.clock.Now()})
	s.log.Debug("framebuffers captured", zap.Uint32("size", info.Size), zap.Bool("3d", info.Is3D))
	return nil
}

// Captures returns the framebuffer captures made so far.
func (s *Session) Captures() []Capture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Capture(nil), s.captures...)
}

// Close stops the periodic callbacks and rejects further calls.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.manager.Close()
	close(s.done)
	s.log.Info("session closed")
}

// Closed reports whether Close ran.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot is a JSON view of a session.
type Snapshot struct {
	ID                string             `json:"id"`
	CreatedAt         time.Time          `json:"created_at"`
	VirtualTime       time.Duration      `json:"virtual_time_ns"`
	ActiveSlot        applet.Slot        `json:"active_slot"`
	Slots             []applet.SlotState `json:"slots"`
	HLEApplets        []types.AppletID   `json:"hle_applets"`
	RunningProgram    uint64             `json:"running_program"`
	ShutdownRequested bool               `json:"shutdown_requested"`
	Launches          []loader.Launch    `json:"launches"`
	Kernel            kernel.Stats       `json:"kernel"`
}

// Snapshot captures the current state of the session.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrClosed
	}
	return Snapshot{
		ID:                s.id.String(),
		CreatedAt:         s.created,
		VirtualTime:       s.scheduler.Now(),
		ActiveSlot:        s.manager.ActiveSlot(),
		Slots:             s.manager.Slots(),
		HLEApplets:        s.manager.HLEApplets(),
		RunningProgram:    s.kernel.CurrentProgramID(),
		ShutdownRequested: s.shutdown,
		Launches:          s.launcher.History(),
		Kernel:            s.kernel.Stats(),
	}, nil
}
