package applet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AppletOS/backend/internal/input"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

func notificationSignals(t *testing.T, h *harness, s Slot) uint64 {
	t.Helper()
	return h.signals(t, h.slotState(s).NotificationEvent)
}

func TestHomeButtonNotifiesOncePerPress(t *testing.T) {
	h := homeActive(t)
	h.sched.Advance(DefaultButtonInterval)
	require.Equal(t, 1, h.devices.Loads())
	before := notificationSignals(t, h, SlotHomeMenu)

	require.NoError(t, h.devices.Set(input.Home, true))
	h.sched.Advance(DefaultButtonInterval)
	h.sched.Advance(DefaultButtonInterval)

	assert.Equal(t, before+1, notificationSignals(t, h, SlotHomeMenu), "a held button is one press")
	assert.Equal(t, types.NotificationHomeButtonSingle, h.slotState(SlotHomeMenu).Notification)

	require.NoError(t, h.devices.Set(input.Home, false))
	h.sched.Advance(DefaultButtonInterval)
	require.NoError(t, h.devices.Set(input.Home, true))
	h.sched.Advance(DefaultButtonInterval)
	assert.Equal(t, before+2, notificationSignals(t, h, SlotHomeMenu))
}

func TestPowerButtonNotifiesEveryApplet(t *testing.T) {
	h := homeActive(t)
	h.register(t, types.AppletApplication, appAttrs)
	h.sched.Advance(DefaultButtonInterval)

	require.NoError(t, h.devices.Set(input.Power, true))
	h.sched.Advance(DefaultButtonInterval)

	for _, s := range []Slot{SlotApplication, SlotHomeMenu} {
		assert.Equal(t, types.NotificationPowerButtonClick, h.slotState(s).Notification, s.String())
	}
	assert.Equal(t, types.NotificationNone, h.slotState(SlotSystemApplet).Notification)
}

func TestButtonsIgnoredWithoutHomeMenu(t *testing.T) {
	h := newHarness(t, Options{})
	h.startApplication(t)
	h.sched.Advance(DefaultButtonInterval)

	require.NoError(t, h.devices.Set(input.Home, true))
	require.NoError(t, h.devices.Set(input.Power, true))
	h.sched.Advance(DefaultButtonInterval)
	assert.Equal(t, types.NotificationNone, h.slotState(SlotApplication).Notification)
}

func TestSkipHomeButtonNeverLoads(t *testing.T) {
	h := newHarness(t, Options{SkipHomeButton: true})
	h.register(t, types.AppletHomeMenu, homeAttrs)
	for i := 0; i < 3; i++ {
		h.sched.Advance(DefaultButtonInterval)
	}
	assert.Zero(t, h.devices.Loads())
	assert.Equal(t, 1, h.sched.Pending(), "the poll keeps running")
}

func TestReloadInputDevices(t *testing.T) {
	h := homeActive(t)
	h.sched.Advance(DefaultButtonInterval)
	h.sched.Advance(DefaultButtonInterval)
	assert.Equal(t, 1, h.devices.Loads(), "devices load once")

	require.NoError(t, h.devices.Set(input.Home, true))
	h.ReloadInputDevices()
	before := notificationSignals(t, h, SlotHomeMenu)
	h.sched.Advance(DefaultButtonInterval)

	assert.Equal(t, 2, h.devices.Loads())
	assert.Equal(t, before, notificationSignals(t, h, SlotHomeMenu), "fresh devices start released")
}

func TestButtonIntervalOption(t *testing.T) {
	h := newHarness(t, Options{ButtonInterval: 2 * DefaultButtonInterval})
	h.sched.Advance(DefaultButtonInterval)
	assert.Zero(t, h.devices.Loads())
	h.sched.Advance(DefaultButtonInterval)
	assert.Equal(t, 1, h.devices.Loads())
}
