package applet

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// PrepareToStartSystemApplet records the active slot as the launcher of the
// next system applet.
func (m *Manager) PrepareToStartSystemApplet(id types.AppletID) error {
	if m.nextParameter != nil {
		return m.recordLifecycle("prepare_start_system", ErrParameterPresent)
	}
	m.log.Debug("preparing system applet", zap.Stringer("applet", id))
	m.lastSystemLauncherSlot = m.activeSlot
	return m.recordLifecycle("prepare_start_system", nil)
}

// StartSystemApplet launches id into the system or home menu slot and wakes
// it once it registers.
func (m *Manager) StartSystemApplet(id types.AppletID, object types.Handle, buffer []byte) error {
	source := types.AppletApplication
	if m.lastSystemLauncherSlot != SlotError {
		launcher := m.slot(m.lastSystemLauncherSlot)
		source = launcher.appletID

		// A launcher that cannot coexist with a system applet is terminated.
		if !launcher.registered ||
			(m.lastSystemLauncherSlot != SlotApplication && !launcher.attributes.NoExitOnSystemApplet()) {
			m.log.Info("terminating system applet launcher",
				zap.Stringer("slot", m.lastSystemLauncherSlot),
				zap.Stringer("applet", launcher.appletID))
			launcher.reset()
		}
	}

	target := SlotSystemApplet
	if id == types.AppletHomeMenu {
		target = SlotHomeMenu
	}

	if !m.slot(target).registered {
		tid, err := m.titles.TitleIDFor(id)
		if err == nil {
			err = m.launcher.LaunchTitle(types.MediaNAND, tid)
			m.recordLaunch("system", err)
		}
		if err != nil {
			m.log.Error("system applet launch failed", zap.Stringer("applet", id), zap.Error(err))
			return m.recordLifecycle("start_system", ErrNotSupported)
		}
	}

	m.activeSlot = target
	m.SendParameterAfterRegistration(types.MessageParameter{
		SenderID:      source,
		DestinationID: id,
		Signal:        types.SignalWakeup,
		Object:        object,
		Buffer:        buffer,
	})
	return m.recordLifecycle("start_system", nil)
}

// PrepareToCloseSystemApplet checks the mailbox is free for the close.
func (m *Manager) PrepareToCloseSystemApplet() error {
	if m.nextParameter != nil {
		return m.recordLifecycle("prepare_close_system", ErrParameterPresent)
	}
	return m.recordLifecycle("prepare_close_system", nil)
}

// CloseSystemApplet releases the active system applet and returns focus to
// its launcher, or to the application when the application ordered the close.
func (m *Manager) CloseSystemApplet(object types.Handle, buffer []byte) error {
	if m.activeSlot != SlotHomeMenu && m.activeSlot != SlotSystemApplet {
		return m.recordLifecycle("close_system",
			violation("close system applet while %s is active", m.activeSlot))
	}

	closed := m.slot(m.activeSlot)
	closedID := closed.appletID
	m.activeSlot = m.lastSystemLauncherSlot
	closed.reset()

	if m.orderedToCloseSysApplet {
		m.orderedToCloseSysApplet = false
		m.activeSlot = SlotApplication
		m.CancelAndSendParameter(types.MessageParameter{
			SenderID:      closedID,
			DestinationID: types.AppletApplication,
			Signal:        types.SignalWakeupByExit,
			Object:        object,
			Buffer:        buffer,
		})
	}
	return m.recordLifecycle("close_system", nil)
}

// OrderToCloseSystemApplet lets the application ask the running system
// applet to close.
func (m *Manager) OrderToCloseSystemApplet() error {
	if m.activeSlot == SlotError {
		return m.recordLifecycle("order_close_system", ErrInvalidAppletSlot)
	}
	active := m.slot(m.activeSlot)
	if active.appletID == types.AppletNone || active.attributes.Pos() != types.PosApplication {
		return m.recordLifecycle("order_close_system", ErrInvalidAppletSlot)
	}

	s := m.SlotForPosition(types.PosSystem)
	if s == SlotError || !m.slot(s).registered {
		return m.recordLifecycle("order_close_system", ErrNotFound)
	}

	m.orderedToCloseSysApplet = true
	m.activeSlot = s
	m.trySendParameter(types.MessageParameter{
		SenderID:      types.AppletApplication,
		DestinationID: m.slot(s).appletID,
		Signal:        types.SignalWakeupByCancel,
	})
	return m.recordLifecycle("order_close_system", nil)
}
