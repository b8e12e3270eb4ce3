package applet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

const (
	gameTitle  uint64 = 0x0004000000055D00
	otherTitle uint64 = 0x0004000000030800
)

func TestApplicationCloseTarget(t *testing.T) {
	cases := []struct {
		name        string
		home, sys   bool
		ordered     bool
		cancelled   bool
		returnToSys bool
		want        Slot
		wantErr     error
	}{
		{name: "return to home with only a system applet", sys: true, returnToSys: true, want: SlotHomeMenu},
		{name: "return to home", home: true, returnToSys: true, want: SlotHomeMenu},
		{name: "ordered close returns to system", home: true, sys: true, ordered: true, returnToSys: true, want: SlotSystemApplet},
		{name: "ordered close without system applet", home: true, ordered: true, returnToSys: true, want: SlotHomeMenu},
		{name: "cancelled application", home: true, cancelled: true, returnToSys: true, want: SlotError},
		{name: "no return", sys: true, want: SlotError},
		{name: "nowhere to go", wantErr: ErrInvalidAppletSlot},
		{name: "home menu target needs nothing registered", returnToSys: true, want: SlotHomeMenu},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, Options{})
			h.startApplication(t)
			if tc.home {
				h.register(t, types.AppletHomeMenu, homeAttrs)
			}
			if tc.sys {
				h.register(t, types.AppletCamera, sysAttrs)
			}
			h.orderedToCloseApplication = tc.ordered
			h.applicationCancelled = tc.cancelled

			err := h.PrepareToCloseApplication(tc.returnToSys)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, h.ApplicationCloseTarget())
		})
	}
}

func TestPrepareToCloseApplicationChecks(t *testing.T) {
	h := newHarness(t, Options{})
	assert.ErrorIs(t, h.PrepareToCloseApplication(true), ErrInvalidAppletSlot)

	h.register(t, types.AppletHomeMenu, homeAttrs)
	h.register(t, types.AppletApplication, appAttrs)
	assert.ErrorIs(t, h.PrepareToCloseApplication(true), ErrInvalidAppletSlot, "the home menu is active")

	h.activeSlot = SlotApplication
	assert.ErrorIs(t, h.PrepareToCloseApplication(true), ErrParameterPresent)
}

func TestCloseApplicationWakesHomeMenu(t *testing.T) {
	h := newHarness(t, Options{})
	h.startApplication(t)
	h.register(t, types.AppletHomeMenu, homeAttrs)

	require.NoError(t, h.PrepareToCloseApplication(true))
	require.NoError(t, h.CloseApplication(0, []byte{7}))

	assert.False(t, h.IsRegistered(types.AppletApplication))
	assert.Equal(t, SlotHomeMenu, h.ActiveSlot())
	got := h.drain(t, types.AppletHomeMenu)
	assert.Equal(t, types.SignalWakeupByExit, got.Signal)
	assert.Equal(t, types.AppletApplication, got.SenderID)
	assert.Equal(t, []byte{7}, got.Buffer)
	assert.Zero(t, h.system.shutdowns)
}

func TestCloseApplicationWithoutHomeMenuShutsDown(t *testing.T) {
	h := newHarness(t, Options{})
	h.startApplication(t)

	require.NoError(t, h.PrepareToCloseApplication(true))
	require.NoError(t, h.CloseApplication(0, nil))
	assert.Equal(t, 1, h.system.shutdowns)
	_, ok := h.NextParameter()
	assert.False(t, ok)
}

func TestOrderToCloseApplication(t *testing.T) {
	h := newHarness(t, Options{})
	h.register(t, types.AppletCamera, sysAttrs)
	h.drain(t, types.AppletCamera)
	h.register(t, types.AppletApplication, appAttrs)

	require.NoError(t, h.OrderToCloseApplication())
	assert.Equal(t, SlotApplication, h.ActiveSlot())
	got := h.drain(t, types.AppletApplication)
	assert.Equal(t, types.SignalWakeupByCancel, got.Signal)

	assert.ErrorIs(t, h.OrderToCloseApplication(), ErrInvalidAppletSlot, "only a system applet may order")

	require.NoError(t, h.PrepareToCloseApplication(true))
	assert.Equal(t, SlotSystemApplet, h.ApplicationCloseTarget())
	require.NoError(t, h.CloseApplication(0, nil))
	assert.Equal(t, types.SignalWakeupByExit, h.drain(t, types.AppletCamera).Signal)
	assert.False(t, h.orderedToCloseApplication)
}

func TestOrderToCloseApplicationWithBusyMailbox(t *testing.T) {
	h := newHarness(t, Options{})
	h.register(t, types.AppletCamera, sysAttrs)
	h.drain(t, types.AppletCamera)
	h.register(t, types.AppletApplication, appAttrs)
	pending := h.occupy(t)

	require.NoError(t, h.OrderToCloseApplication())
	assert.True(t, h.orderedToCloseApplication)
	assert.Equal(t, SlotApplication, h.ActiveSlot())
	h.assertStillPending(t, pending)
}

func TestApplicationJumpThroughHomeMenu(t *testing.T) {
	h := newHarness(t, Options{})
	h.kernel.SetCurrentProgramID(gameTitle)
	h.startApplication(t)
	h.register(t, types.AppletHomeMenu, homeAttrs)

	require.NoError(t, h.PrepareToDoApplicationJump(otherTitle, types.MediaGameCard, types.JumpUseInputParameters))
	current, next, err := h.ProgramIDOnApplicationJump()
	require.NoError(t, err)
	assert.Equal(t, gameTitle, current)
	assert.Equal(t, otherTitle, next)

	require.NoError(t, h.DoApplicationJump(types.NewDeliverArg([]byte("arg"), nil)))
	assert.False(t, h.IsRegistered(types.AppletApplication))
	assert.Equal(t, SlotHomeMenu, h.ActiveSlot())
	assert.Equal(t, types.SignalWakeupToLaunchApplication, h.drain(t, types.AppletHomeMenu).Signal)
	assert.Empty(t, h.launcher.calls)

	arg, ok := h.ReceiveDeliverArg()
	require.True(t, ok)
	assert.Equal(t, []byte("arg"), arg.Param)
	assert.Equal(t, gameTitle, arg.SourceProgramID)
	_, ok = h.ReceiveDeliverArg()
	assert.False(t, ok)

	jump, ok := h.AppJumpParameters()
	require.True(t, ok, "jump parameters outlive the jump")
	assert.Equal(t, types.MediaGameCard, jump.NextMediaType)
	assert.Equal(t, types.MediaSDMC, jump.CurrentMediaType)
}

func TestApplicationJumpWithBusyMailbox(t *testing.T) {
	h := newHarness(t, Options{})
	h.kernel.SetCurrentProgramID(gameTitle)
	h.startApplication(t)
	h.register(t, types.AppletHomeMenu, homeAttrs)
	require.NoError(t, h.PrepareToDoApplicationJump(otherTitle, types.MediaGameCard, types.JumpUseInputParameters))
	pending := h.occupy(t)

	require.NoError(t, h.DoApplicationJump(types.NewDeliverArg([]byte("arg"), nil)))
	assert.False(t, h.IsRegistered(types.AppletApplication))
	assert.Equal(t, SlotHomeMenu, h.ActiveSlot())
	h.assertStillPending(t, pending)

	arg, ok := h.ReceiveDeliverArg()
	require.True(t, ok)
	assert.Equal(t, gameTitle, arg.SourceProgramID)
}

func TestApplicationJumpReboots(t *testing.T) {
	h := newHarness(t, Options{})
	h.kernel.SetCurrentProgramID(gameTitle)
	h.startApplication(t)

	require.NoError(t, h.PrepareToDoApplicationJump(0, 0, types.JumpUseCurrentParameters))
	require.NoError(t, h.DoApplicationJump(types.NewDeliverArg(nil, nil)))

	require.Len(t, h.launcher.calls, 1)
	assert.Equal(t, launchCall{media: types.MediaSDMC, titleID: gameTitle, reboot: true}, h.launcher.calls[0])
	arg, ok := h.ReceiveDeliverArg()
	require.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), arg.SourceProgramID, "a restart keeps no source")
}

func TestApplicationJumpContracts(t *testing.T) {
	h := newHarness(t, Options{})
	h.startApplication(t)

	_, _, err := h.ProgramIDOnApplicationJump()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, h.DoApplicationJump(types.DeliverArg{}), ErrProtocolViolation)
	assert.ErrorIs(t, h.PrepareToDoApplicationJump(1, 0, types.JumpUseStoredParameters), ErrProtocolViolation)
	_, ok := h.AppJumpParameters()
	assert.False(t, ok)
}

// homeActive registers the home menu as the only, active applet.
func homeActive(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, Options{})
	h.register(t, types.AppletHomeMenu, homeAttrs)
	h.drain(t, types.AppletHomeMenu)
	return h
}

func TestStartApplication(t *testing.T) {
	h := homeActive(t)

	require.NoError(t, h.PrepareToStartApplication(gameTitle, types.MediaSDMC))
	assert.ErrorIs(t, h.PrepareToStartApplication(gameTitle, types.MediaSDMC), ErrProtocolViolation)

	require.NoError(t, h.StartApplication([]byte{1}, []byte{2}, false))
	assert.Equal(t, []launchCall{{media: types.MediaSDMC, titleID: gameTitle}}, h.launcher.calls)
	assert.Equal(t, SlotApplication, h.ActiveSlot())

	delayed, ok := h.DelayedParameter()
	require.True(t, ok)
	assert.Equal(t, types.AppletApplication, delayed.DestinationID)
	assert.Equal(t, types.SignalWakeup, delayed.Signal)

	_, _, err := h.Initialize(types.AppletApplication, appAttrs)
	require.NoError(t, err)
	require.NoError(t, h.Enable(appAttrs))
	assert.Equal(t, types.AppletHomeMenu, h.drain(t, types.AppletApplication).SenderID)

	arg, ok := h.ReceiveDeliverArg()
	require.True(t, ok)
	assert.Equal(t, []byte{1}, arg.Param)
	assert.Equal(t, []byte{2}, arg.HMAC)
}

func TestStartApplicationPaused(t *testing.T) {
	h := homeActive(t)
	require.NoError(t, h.PrepareToStartApplication(gameTitle, types.MediaSDMC))
	require.NoError(t, h.StartApplication(nil, nil, true))

	_, ok := h.DelayedParameter()
	assert.False(t, ok)
	require.NoError(t, h.WakeupApplication(4, []byte{5}))
	delayed, ok := h.DelayedParameter()
	require.True(t, ok)
	assert.Equal(t, types.Handle(4), delayed.Object)
}

func TestStartApplicationLaunchFailure(t *testing.T) {
	h := homeActive(t)
	h.launcher.err = errLaunch
	require.NoError(t, h.PrepareToStartApplication(gameTitle, types.MediaSDMC))
	require.NoError(t, h.StartApplication(nil, nil, false))
	assert.Equal(t, 1, h.system.shutdowns)
	assert.Equal(t, 1, h.logs.FilterMessage("application launch failed").Len())
}

func TestStartApplicationContracts(t *testing.T) {
	h := newHarness(t, Options{})
	assert.ErrorIs(t, h.StartApplication(nil, nil, false), ErrProtocolViolation)
	assert.ErrorIs(t, h.PrepareToStartApplication(gameTitle, types.MediaSDMC), ErrInvalidAppletSlot)

	h = homeActive(t)
	h.register(t, types.AppletApplication, appAttrs)
	assert.ErrorIs(t, h.PrepareToStartApplication(gameTitle, types.MediaSDMC), ErrAlreadyExists)
}

func TestCancelApplication(t *testing.T) {
	h := homeActive(t)
	assert.ErrorIs(t, h.CancelApplication(), ErrInvalidAppletSlot)

	_, _, err := h.Initialize(types.AppletApplication, appAttrs)
	require.NoError(t, err)
	require.NoError(t, h.CancelApplication())
	delayed, ok := h.DelayedParameter()
	require.True(t, ok)
	assert.Equal(t, types.SignalWakeupByCancel, delayed.Signal)
	assert.Equal(t, types.AppletHomeMenu, delayed.SenderID)

	require.NoError(t, h.Enable(appAttrs))
	h.drain(t, types.AppletApplication)
	h.activeSlot = SlotApplication
	require.NoError(t, h.PrepareToCloseApplication(true))
	assert.Equal(t, SlotError, h.ApplicationCloseTarget(), "a cancelled application returns nowhere")
}

func TestSendApplicationParameterAfterRegistration(t *testing.T) {
	h := newHarness(t, Options{})
	p := types.MessageParameter{SenderID: types.AppletHomeMenu, DestinationID: types.AppletApplication, Signal: types.SignalMessage}
	h.SendApplicationParameterAfterRegistration(p)
	delayed, ok := h.DelayedParameter()
	require.True(t, ok)
	assert.Equal(t, p, delayed)
}

func TestSetDeliverArg(t *testing.T) {
	h := newHarness(t, Options{})
	h.SetDeliverArg(types.DeliverArg{Param: []byte("x"), SourceProgramID: 3})
	arg, ok := h.ReceiveDeliverArg()
	require.True(t, ok)
	assert.Equal(t, uint64(3), arg.SourceProgramID)
}
