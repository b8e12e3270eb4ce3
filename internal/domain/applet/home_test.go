package applet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

func TestApplicationJumpsToHomeMenu(t *testing.T) {
	h := newHarness(t, Options{})
	h.startApplication(t)

	require.NoError(t, h.PrepareToJumpToHomeMenu())
	assert.Equal(t, []launchCall{{media: types.MediaNAND, titleID: 0x4003000008F02}}, h.launcher.calls)

	require.NoError(t, h.JumpToHomeMenu(3, []byte{4}))
	assert.Equal(t, SlotHomeMenu, h.ActiveSlot())
	got, ok := h.NextParameter()
	require.True(t, ok)
	assert.Equal(t, types.MessageParameter{
		SenderID:      types.AppletApplication,
		DestinationID: types.AppletHomeMenu,
		Signal:        types.SignalWakeupByPause,
		Object:        3,
		Buffer:        []byte{4},
	}, got)
}

func TestJumpToHomeMenuWithBusyMailbox(t *testing.T) {
	h := newHarness(t, Options{})
	h.startApplication(t)
	require.NoError(t, h.PrepareToJumpToHomeMenu())
	pending := h.occupy(t)

	require.NoError(t, h.JumpToHomeMenu(3, []byte{4}))
	assert.Equal(t, SlotHomeMenu, h.ActiveSlot())
	h.assertStillPending(t, pending)
}

func TestPrepareToJumpToHomeMenuChecks(t *testing.T) {
	h := newHarness(t, Options{})
	h.register(t, types.AppletApplication, appAttrs)
	assert.ErrorIs(t, h.PrepareToJumpToHomeMenu(), ErrParameterPresent)
	h.drain(t, types.AppletApplication)

	h.register(t, types.AppletCamera, sysAttrs)
	assert.ErrorIs(t, h.PrepareToJumpToHomeMenu(), ErrProtocolViolation)
	assert.Empty(t, h.launcher.calls)
}

func TestPrepareToJumpToHomeMenuClearsCaptureBuffer(t *testing.T) {
	h := homeActive(t)
	require.NoError(t, h.SendCaptureBufferInfo(make([]byte, types.CaptureBufferInfoSize)))
	require.NoError(t, h.PrepareToJumpToHomeMenu())
	assert.Empty(t, h.ReceiveCaptureBufferInfo())
}

func TestJumpToHomeMenuSignals(t *testing.T) {
	t.Run("home menu", func(t *testing.T) {
		h := homeActive(t)
		require.NoError(t, h.PrepareToJumpToHomeMenu())
		require.NoError(t, h.JumpToHomeMenu(0, nil))
		got := h.drain(t, types.AppletHomeMenu)
		assert.Equal(t, types.SignalWakeupToJumpHome, got.Signal)
		assert.Equal(t, types.AppletHomeMenu, got.SenderID)
	})

	t.Run("library applet", func(t *testing.T) {
		h := nativeLibrary(t)
		require.NoError(t, h.PrepareToJumpToHomeMenu())
		require.NoError(t, h.JumpToHomeMenu(0, nil))
		assert.Equal(t, SlotLibraryApplet, h.ActiveSlot(), "the library applet closes on its own")
		assert.Equal(t, types.SignalWakeupByCancel, h.drain(t, types.AppletPnoteApp).Signal)
	})

	t.Run("without prepare", func(t *testing.T) {
		h := homeActive(t)
		require.NoError(t, h.JumpToHomeMenu(0, nil))
		_, ok := h.NextParameter()
		assert.False(t, ok)
	})
}

func TestLeaveHomeMenu(t *testing.T) {
	h := homeActive(t)
	assert.ErrorIs(t, h.PrepareToLeaveHomeMenu(), ErrInvalidAppletSlot)

	h.register(t, types.AppletApplication, appAttrs)
	require.NoError(t, h.PrepareToLeaveHomeMenu())
	require.NoError(t, h.LeaveHomeMenu(0, []byte{1}))

	assert.Equal(t, SlotApplication, h.ActiveSlot())
	got := h.drain(t, types.AppletApplication)
	assert.Equal(t, types.SignalWakeupByPause, got.Signal)
	assert.Equal(t, types.AppletHomeMenu, got.SenderID)

	require.NoError(t, h.SendParameter(types.MessageParameter{DestinationID: types.AppletHomeMenu}))
	assert.ErrorIs(t, h.PrepareToLeaveHomeMenu(), ErrParameterPresent)
}

func TestLeaveHomeMenuWithBusyMailbox(t *testing.T) {
	h := homeActive(t)
	h.register(t, types.AppletApplication, appAttrs)
	require.NoError(t, h.PrepareToLeaveHomeMenu())
	pending := h.occupy(t)

	require.NoError(t, h.LeaveHomeMenu(0, nil))
	assert.Equal(t, SlotApplication, h.ActiveSlot())
	h.assertStillPending(t, pending)
}

func TestEnsureHomeMenuLoaded(t *testing.T) {
	h := homeActive(t)
	require.NoError(t, h.EnsureHomeMenuLoaded())
	assert.Empty(t, h.launcher.calls, "a registered menu is not launched again")

	h = newHarness(t, Options{})
	h.launcher.err = errLaunch
	require.NoError(t, h.EnsureHomeMenuLoaded(), "launch failures are logged")
	assert.Len(t, h.launcher.calls, 1)
	assert.Equal(t, 1, h.logs.FilterMessage("home menu launch failed").Len())
}
