package applet

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// PrepareToJumpToHomeMenu records the slot leaving for the home menu and
// makes sure the menu is running when an application leaves.
func (m *Manager) PrepareToJumpToHomeMenu() error {
	if m.nextParameter != nil {
		return m.recordLifecycle("prepare_jump_home", ErrParameterPresent)
	}
	m.lastJumpToHomeSlot = m.activeSlot
	m.captureBufferInfo = nil

	if m.lastJumpToHomeSlot == SlotApplication {
		if err := m.EnsureHomeMenuLoaded(); err != nil {
			return m.recordLifecycle("prepare_jump_home", err)
		}
	}
	return m.recordLifecycle("prepare_jump_home", nil)
}

// JumpToHomeMenu hands focus to the home menu. Library and system applets
// instead signal themselves so they close on their own.
func (m *Manager) JumpToHomeMenu(object types.Handle, buffer []byte) error {
	if m.lastJumpToHomeSlot == SlotError {
		return m.recordLifecycle("jump_home", nil)
	}
	from := m.slot(m.lastJumpToHomeSlot)
	if from.appletID == types.AppletNone {
		return m.recordLifecycle("jump_home", nil)
	}

	p := types.MessageParameter{
		SenderID:      from.appletID,
		DestinationID: from.appletID,
		Object:        object,
		Buffer:        buffer,
	}

	switch pos := from.attributes.Pos(); {
	case pos == types.PosApplication:
		m.activeSlot = SlotHomeMenu
		p.SenderID = types.AppletApplication
		p.DestinationID = types.AppletHomeMenu
		p.Signal = types.SignalWakeupByPause
	case pos == types.PosLibrary:
		p.Signal = types.SignalWakeupByCancel
	case pos == types.PosSystem && from.attributes.IsHomeMenu():
		p.Signal = types.SignalWakeupToJumpHome
	case pos == types.PosSysLibrary:
		if m.slot(SlotSystemApplet).registered {
			p.Signal = types.SignalWakeupByCancel
		} else {
			p.Signal = types.SignalWakeupToJumpHome
		}
	default:
		m.log.Debug("jump to home menu ignored", zap.Stringer("slot", m.lastJumpToHomeSlot), zap.Stringer("pos", pos))
		return m.recordLifecycle("jump_home", nil)
	}

	m.trySendParameter(p)
	return m.recordLifecycle("jump_home", nil)
}

// PrepareToLeaveHomeMenu checks an application is there to return to.
func (m *Manager) PrepareToLeaveHomeMenu() error {
	if !m.slot(SlotApplication).registered {
		return m.recordLifecycle("prepare_leave_home", ErrInvalidAppletSlot)
	}
	if m.nextParameter != nil {
		return m.recordLifecycle("prepare_leave_home", ErrParameterPresent)
	}
	return m.recordLifecycle("prepare_leave_home", nil)
}

// LeaveHomeMenu gives focus back to the application.
func (m *Manager) LeaveHomeMenu(object types.Handle, buffer []byte) error {
	m.activeSlot = SlotApplication
	m.trySendParameter(types.MessageParameter{
		SenderID:      types.AppletHomeMenu,
		DestinationID: types.AppletApplication,
		Signal:        types.SignalWakeupByPause,
		Object:        object,
		Buffer:        buffer,
	})
	return m.recordLifecycle("leave_home", nil)
}

// EnsureHomeMenuLoaded launches the home menu title unless a menu or another
// system applet is already registered.
func (m *Manager) EnsureHomeMenuLoaded() error {
	if m.slot(SlotSystemApplet).registered {
		return violation("home menu requested while a system applet is registered")
	}
	if m.slot(SlotHomeMenu).registered {
		return nil
	}

	tid, err := m.titles.TitleIDFor(types.AppletHomeMenu)
	if err == nil {
		err = m.launcher.LaunchTitle(types.MediaNAND, tid)
		m.recordLaunch("home_menu", err)
	}
	if err != nil {
		m.log.Warn("home menu launch failed", zap.Error(err))
	}
	return nil
}
