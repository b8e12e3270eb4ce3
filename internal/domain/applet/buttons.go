package applet

import (
	"time"

	"github.com/GriffinCanCode/AppletOS/backend/internal/input"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// ReloadInputDevices makes the next button poll load fresh devices.
func (m *Manager) ReloadInputDevices() {
	m.reloadPending = true
	m.devicesLoaded = false
}

func (m *Manager) loadInputDevices() {
	if m.devicesLoaded || m.opts.SkipHomeButton || m.input == nil {
		return
	}
	m.devicesLoaded = true
	m.homeButton, m.powerButton = m.input.LoadButtons()
}

func (m *Manager) buttonUpdate(_ uint64, late time.Duration) {
	if m.reloadPending {
		m.reloadPending = false
		m.loadInputDevices()
	}

	if m.slot(SlotHomeMenu).registered {
		home := pressed(m.homeButton)
		if home && !m.lastHomeState {
			if err := m.SendNotification(types.NotificationHomeButtonSingle); err != nil {
				m.log.Debug("home button notification dropped")
			}
		}
		m.lastHomeState = home

		power := pressed(m.powerButton)
		if power && !m.lastPowerState {
			m.SendNotificationToAll(types.NotificationPowerButtonClick)
		}
		m.lastPowerState = power
	}

	m.scheduler.ScheduleEvent(m.opts.ButtonInterval-late, m.buttonEvent, 0)
}

func pressed(d input.Device) bool {
	return d != nil && d.Pressed()
}
