package applet

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/domain/hle"
	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/timing"
	"github.com/GriffinCanCode/AppletOS/backend/internal/input"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// Default periodic callback intervals.
const (
	DefaultButtonInterval    = 16666 * time.Microsecond
	DefaultHLEUpdateInterval = 16666 * time.Microsecond
)

// Kernel owns the signal objects the manager references by handle.
type Kernel interface {
	CreateEvent(name string) types.Handle
	CreateMutex(name string) types.Handle
	CreateSharedMemory(name string, size uint32) types.Handle
	Signal(h types.Handle)
	CurrentProgramID() uint64
}

// Scheduler runs the periodic callbacks.
type Scheduler interface {
	RegisterEvent(name string, cb timing.Callback) *timing.EventType
	ScheduleEvent(delay time.Duration, ev *timing.EventType, userdata uint64)
	RemoveEvent(ev *timing.EventType)
}

// TitleLauncher starts guest titles natively.
type TitleLauncher interface {
	LaunchTitle(media types.MediaType, titleID uint64) error
	RebootToTitle(media types.MediaType, titleID uint64)
}

// System is the encompassing emulated device.
type System interface {
	RequestShutdown()
}

// TitleTable resolves the native title of a known system applet.
type TitleTable interface {
	TitleIDFor(id types.AppletID) (uint64, error)
}

// FrameCapturer saves the current framebuffers for a system applet.
type FrameCapturer interface {
	CaptureFrameBuffers(info types.CaptureBufferInfo) error
}

// InputLoader creates the button devices polled by the manager.
type InputLoader interface {
	LoadButtons() (home, power input.Device)
}

// Deps are the collaborators of a Manager. Capturer and Input are optional.
type Deps struct {
	Kernel    Kernel
	Scheduler Scheduler
	Launcher  TitleLauncher
	System    System
	Titles    TitleTable
	Capturer  FrameCapturer
	Input     InputLoader
	Logger    *zap.Logger
}

// Options tune manager behavior.
type Options struct {
	// NativeLibraryApplets tries launching library applet titles before
	// falling back to emulated applets.
	NativeLibraryApplets bool
	New3DS               bool
	// Enable804MHz is the New 3DS fast-CPU capability of the running title.
	Enable804MHz      bool
	SkipHomeButton    bool
	ButtonInterval    time.Duration
	HLEUpdateInterval time.Duration
}

// Manager coordinates applet slots, the parameter mailbox and the emulated
// applets of one session. It is not safe for concurrent use; callers
// serialize every entry point, including the scheduler callbacks.
type Manager struct {
	kernel    Kernel
	scheduler Scheduler
	launcher  TitleLauncher
	system    System
	titles    TitleTable
	capturer  FrameCapturer
	input     InputLoader
	log       *zap.Logger
	metrics   *monitoring.Metrics
	opts      Options

	slots [numSlots]slotRecord
	lock  types.Handle

	nextParameter    *types.MessageParameter
	delayedParameter *types.MessageParameter

	activeSlot                Slot
	lastLibraryLauncherSlot   Slot
	lastSystemLauncherSlot    Slot
	lastJumpToHomeSlot        Slot
	applicationCloseTarget    Slot
	lastPreparedLibraryApplet types.AppletID
	libraryClosingSignal      types.SignalType

	orderedToCloseApplication bool
	orderedToCloseSysApplet   bool
	applicationCancelled      bool
	new3DSModeBlocked         bool

	appJumpParameters  *types.ApplicationJumpParameters
	appStartParameters *types.ApplicationStartParameters
	deliverArg         *types.DeliverArg

	captureInfo       *types.CaptureBufferInfo
	captureBufferInfo []byte

	hleApplets     map[types.AppletID]hle.Applet
	hleUpdateEvent *timing.EventType
	buttonEvent    *timing.EventType

	homeButton     input.Device
	powerButton    input.Device
	devicesLoaded  bool
	reloadPending  bool
	lastHomeState  bool
	lastPowerState bool

	closed bool
}

// NewManager creates a manager, allocates the per-slot signal objects and
// schedules the first button poll.
func NewManager(deps Deps, opts Options) (*Manager, error) {
	switch {
	case deps.Kernel == nil:
		return nil, errors.New("applet: kernel is required")
	case deps.Scheduler == nil:
		return nil, errors.New("applet: scheduler is required")
	case deps.Launcher == nil:
		return nil, errors.New("applet: title launcher is required")
	case deps.System == nil:
		return nil, errors.New("applet: system is required")
	case deps.Titles == nil:
		return nil, errors.New("applet: title table is required")
	}
	if opts.ButtonInterval <= 0 {
		opts.ButtonInterval = DefaultButtonInterval
	}
	if opts.HLEUpdateInterval <= 0 {
		opts.HLEUpdateInterval = DefaultHLEUpdateInterval
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	m := &Manager{
		kernel:                  deps.Kernel,
		scheduler:               deps.Scheduler,
		launcher:                deps.Launcher,
		system:                  deps.System,
		titles:                  deps.Titles,
		capturer:                deps.Capturer,
		input:                   deps.Input,
		log:                     log.Named("apt"),
		opts:                    opts,
		activeSlot:              SlotError,
		lastLibraryLauncherSlot: SlotError,
		lastSystemLauncherSlot:  SlotError,
		lastJumpToHomeSlot:      SlotError,
		applicationCloseTarget:  SlotError,
		hleApplets:              make(map[types.AppletID]hle.Applet),
		reloadPending:           true,
	}

	m.lock = m.kernel.CreateMutex("APT_U:Lock")
	for i := range m.slots {
		m.slots[i] = slotRecord{
			slot:              Slot(i),
			notificationEvent: m.kernel.CreateEvent("APT:Notification"),
			parameterEvent:    m.kernel.CreateEvent("APT:Parameter"),
		}
	}

	m.hleUpdateEvent = m.scheduler.RegisterEvent("HLE Applet Update Event", m.hleAppletUpdate)
	m.buttonEvent = m.scheduler.RegisterEvent("APT Button Update Event", m.buttonUpdate)
	m.scheduler.ScheduleEvent(m.opts.ButtonInterval, m.buttonEvent, 0)

	return m, nil
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Close removes both periodic callbacks. The manager must not be used after.
func (m *Manager) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.scheduler.RemoveEvent(m.hleUpdateEvent)
	m.scheduler.RemoveEvent(m.buttonEvent)
	m.log.Debug("applet manager closed")
}

// CreateSharedMemory allocates a shared memory block for an emulated applet.
func (m *Manager) CreateSharedMemory(name string, size uint32) types.Handle {
	return m.kernel.CreateSharedMemory(name, size)
}

func (m *Manager) recordLifecycle(op string, err error) error {
	if m.metrics != nil {
		m.metrics.RecordLifecycle(op, resultLabel(err))
	}
	return err
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrProtocolViolation) {
		return "protocol_violation"
	}
	return "error"
}
