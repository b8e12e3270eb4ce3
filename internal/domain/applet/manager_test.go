package applet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/timing"
	"github.com/GriffinCanCode/AppletOS/backend/internal/input"
	"github.com/GriffinCanCode/AppletOS/backend/internal/kernel"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

var (
	appAttrs  = types.NewAttributes(types.PosApplication, false, false)
	homeAttrs = types.NewAttributes(types.PosSystem, true, false)
	sysAttrs  = types.NewAttributes(types.PosSystem, false, false)
	libAttrs  = types.NewAttributes(types.PosLibrary, false, false)
)

var errLaunch = errors.New("launch failed")

type launchCall struct {
	media   types.MediaType
	titleID uint64
	reboot  bool
}

type fakeLauncher struct {
	calls []launchCall
	err   error
}

func (f *fakeLauncher) LaunchTitle(media types.MediaType, titleID uint64) error {
	f.calls = append(f.calls, launchCall{media: media, titleID: titleID})
	return f.err
}

func (f *fakeLauncher) RebootToTitle(media types.MediaType, titleID uint64) {
	f.calls = append(f.calls, launchCall{media: media, titleID: titleID, reboot: true})
}

type fakeSystem struct {
	shutdowns int
}

func (f *fakeSystem) RequestShutdown() { f.shutdowns++ }

type fakeCapturer struct {
	infos []types.CaptureBufferInfo
}

func (f *fakeCapturer) CaptureFrameBuffers(info types.CaptureBufferInfo) error {
	f.infos = append(f.infos, info)
	return nil
}

type harness struct {
	*Manager
	kernel   *kernel.Table
	sched    *timing.Scheduler
	launcher *fakeLauncher
	system   *fakeSystem
	capturer *fakeCapturer
	devices  *input.Devices
	logs     *observer.ObservedLogs
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	h := &harness{
		kernel:   kernel.NewTable(),
		sched:    timing.New(),
		launcher: &fakeLauncher{},
		system:   &fakeSystem{},
		capturer: &fakeCapturer{},
		devices:  input.NewDevices(),
		logs:     logs,
	}
	m, err := NewManager(Deps{
		Kernel:    h.kernel,
		Scheduler: h.sched,
		Launcher:  h.launcher,
		System:    h.system,
		Titles:    RegionTitles{Region: 1},
		Capturer:  h.capturer,
		Input:     h.devices,
		Logger:    zap.New(core),
	}, opts)
	require.NoError(t, err)
	h.Manager = m
	t.Cleanup(m.Close)
	return h
}

// register claims and enables a slot for id.
func (h *harness) register(t *testing.T, id types.AppletID, attrs types.Attributes) {
	t.Helper()
	_, _, err := h.Initialize(id, attrs)
	require.NoError(t, err)
	require.NoError(t, h.Enable(attrs))
}

// drain receives whatever parameter is pending for id.
func (h *harness) drain(t *testing.T, id types.AppletID) types.MessageParameter {
	t.Helper()
	p, err := h.ReceiveParameter(id)
	require.NoError(t, err)
	return p
}

// startApplication registers the application and consumes its first wakeup.
func (h *harness) startApplication(t *testing.T) {
	t.Helper()
	h.register(t, types.AppletApplication, appAttrs)
	h.drain(t, types.AppletApplication)
}

func (h *harness) signals(t *testing.T, handle types.Handle) uint64 {
	t.Helper()
	obj, err := h.kernel.Lookup(handle)
	require.NoError(t, err)
	return obj.Signals
}

func (h *harness) slotState(s Slot) SlotState {
	return h.Slots()[s]
}

// occupy leaves a parameter in the mailbox and returns it.
func (h *harness) occupy(t *testing.T) types.MessageParameter {
	t.Helper()
	p := types.MessageParameter{
		SenderID:      types.AppletCamera,
		DestinationID: types.AppletInstructionManual,
		Signal:        types.SignalMessage,
		Buffer:        []byte{0xAA},
	}
	require.NoError(t, h.SendParameter(p))
	return p
}

// assertStillPending checks the mailbox holds p and that the blocked send was logged.
func (h *harness) assertStillPending(t *testing.T, p types.MessageParameter) {
	t.Helper()
	got, ok := h.NextParameter()
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.Equal(t, 1, h.logs.FilterMessage("parameter already pending").Len())
}

func TestNewManagerRequiresCollaborators(t *testing.T) {
	full := Deps{
		Kernel:    kernel.NewTable(),
		Scheduler: timing.New(),
		Launcher:  &fakeLauncher{},
		System:    &fakeSystem{},
		Titles:    RegionTitles{},
	}
	missing := map[string]func(d *Deps){
		"kernel":    func(d *Deps) { d.Kernel = nil },
		"scheduler": func(d *Deps) { d.Scheduler = nil },
		"launcher":  func(d *Deps) { d.Launcher = nil },
		"system":    func(d *Deps) { d.System = nil },
		"titles":    func(d *Deps) { d.Titles = nil },
	}
	for name, drop := range missing {
		t.Run(name, func(t *testing.T) {
			d := full
			drop(&d)
			_, err := NewManager(d, Options{})
			assert.Error(t, err)
		})
	}
}

func TestNewManagerAllocatesSlotEvents(t *testing.T) {
	h := newHarness(t, Options{})

	assert.Equal(t, SlotError, h.ActiveSlot())
	seen := map[types.Handle]bool{}
	for _, s := range h.Slots() {
		assert.False(t, s.Registered)
		assert.Equal(t, types.AppletNone, s.AppletID)
		for _, handle := range []types.Handle{s.NotificationEvent, s.ParameterEvent} {
			obj, err := h.kernel.Lookup(handle)
			require.NoError(t, err)
			assert.Equal(t, kernel.KindEvent, obj.Kind)
			assert.False(t, seen[handle], "handles are unique")
			seen[handle] = true
		}
	}

	attrs, state, lock := h.LockHandle(appAttrs)
	assert.Equal(t, appAttrs, attrs)
	assert.Zero(t, state)
	obj, err := h.kernel.Lookup(lock)
	require.NoError(t, err)
	assert.Equal(t, kernel.KindMutex, obj.Kind)

	assert.Equal(t, 1, h.sched.Pending(), "button poll is scheduled at construction")
}

func TestCloseRemovesPeriodicCallbacks(t *testing.T) {
	h := newHarness(t, Options{})
	h.startApplication(t)
	require.NoError(t, h.PrepareToStartLibraryApplet(types.AppletSoftwareKeyboard1))
	require.Equal(t, 2, h.sched.Pending())

	h.Close()
	h.Close()
	assert.Zero(t, h.sched.Pending())
	assert.Zero(t, h.sched.Advance(DefaultButtonInterval*4))
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, uint32(0xC8A0CC02), ErrParameterPresent.Code())
	assert.Equal(t, uint32(0xC880CFFA), ErrNotFound.Code())
	assert.Equal(t, uint32(0xD8C0CFFA), ErrNotSupported.Code())
	assert.Equal(t, uint32(0xE0E0CC0A), ErrInvalidArgument.Code())

	wrapped := errors.Join(errors.New("context"), ErrAlreadyExists)
	assert.ErrorIs(t, wrapped, ErrAlreadyExists)
	assert.NotErrorIs(t, ErrNotFound, ErrNotSupported, "same description, different summary")
	assert.ErrorIs(t, &Error{Description: 1018, Summary: SummaryNotFound, Level: LevelStatus}, ErrNotFound)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", resultLabel(nil))
	assert.Equal(t, "parameter_present", resultLabel(ErrParameterPresent))
	assert.Equal(t, "protocol_violation", resultLabel(violation("bad order")))
	assert.Equal(t, "error", resultLabel(errLaunch))
}
