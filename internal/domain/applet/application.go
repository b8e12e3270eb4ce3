package applet

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// OrderToCloseApplication lets the active system applet ask the application
// to close.
func (m *Manager) OrderToCloseApplication() error {
	if m.activeSlot == SlotError {
		return m.recordLifecycle("order_close_app", ErrInvalidAppletSlot)
	}
	active := m.slot(m.activeSlot)
	if active.appletID == types.AppletNone || active.attributes.Pos() != types.PosSystem {
		return m.recordLifecycle("order_close_app", ErrInvalidAppletSlot)
	}

	m.orderedToCloseApplication = true
	m.activeSlot = SlotApplication
	m.trySendParameter(types.MessageParameter{
		SenderID:      types.AppletHomeMenu,
		DestinationID: types.AppletApplication,
		Signal:        types.SignalWakeupByCancel,
	})
	return m.recordLifecycle("order_close_app", nil)
}

// PrepareToCloseApplication chooses which applet receives focus when the
// application closes.
func (m *Manager) PrepareToCloseApplication(returnToSys bool) error {
	if m.activeSlot == SlotError {
		return m.recordLifecycle("prepare_close_app", ErrInvalidAppletSlot)
	}
	active := m.slot(m.activeSlot)
	if active.appletID == types.AppletNone || active.attributes.Pos() != types.PosApplication {
		return m.recordLifecycle("prepare_close_app", ErrInvalidAppletSlot)
	}

	sysRegistered := m.slot(SlotSystemApplet).registered
	homeRegistered := m.slot(SlotHomeMenu).registered

	m.applicationCloseTarget = SlotError
	if !m.applicationCancelled && returnToSys {
		if !m.orderedToCloseApplication || !sysRegistered {
			m.applicationCloseTarget = SlotHomeMenu
		} else {
			m.applicationCloseTarget = SlotSystemApplet
		}
	}

	if m.applicationCloseTarget != SlotHomeMenu && !sysRegistered && !homeRegistered {
		return m.recordLifecycle("prepare_close_app", ErrInvalidAppletSlot)
	}
	if m.nextParameter != nil {
		return m.recordLifecycle("prepare_close_app", ErrParameterPresent)
	}
	return m.recordLifecycle("prepare_close_app", nil)
}

// CloseApplication releases the application slot and wakes the close target
// chosen by PrepareToCloseApplication. With no home menu to return to the
// device shuts down.
func (m *Manager) CloseApplication(object types.Handle, buffer []byte) error {
	m.orderedToCloseApplication = false
	m.applicationCancelled = false
	m.slot(SlotApplication).reset()

	target := m.applicationCloseTarget
	if target == SlotError {
		return m.recordLifecycle("close_app", nil)
	}
	if target == SlotHomeMenu && !m.slot(SlotHomeMenu).registered {
		m.log.Info("no home menu to return to, shutting down")
		m.system.RequestShutdown()
		return m.recordLifecycle("close_app", nil)
	}

	m.activeSlot = target
	m.CancelAndSendParameter(types.MessageParameter{
		SenderID:      types.AppletApplication,
		DestinationID: m.slot(target).appletID,
		Signal:        types.SignalWakeupByExit,
		Object:        object,
		Buffer:        buffer,
	})
	return m.recordLifecycle("close_app", nil)
}

// ApplicationCloseTarget returns the slot chosen by the last
// PrepareToCloseApplication.
func (m *Manager) ApplicationCloseTarget() Slot {
	return m.applicationCloseTarget
}

// PrepareToDoApplicationJump saves the title pair for the next jump.
func (m *Manager) PrepareToDoApplicationJump(titleID uint64, media types.MediaType, flags types.ApplicationJumpFlags) error {
	if flags == types.JumpUseStoredParameters {
		return m.recordLifecycle("prepare_jump", violation("application jump with stored parameters"))
	}

	app := m.slot(SlotApplication)
	jump := types.ApplicationJumpParameters{
		Flags:            flags,
		CurrentTitleID:   app.titleID,
		CurrentMediaType: TitleMediaType(app.titleID),
	}
	if flags == types.JumpUseCurrentParameters {
		jump.NextTitleID = jump.CurrentTitleID
		jump.NextMediaType = jump.CurrentMediaType
	} else {
		jump.NextTitleID = titleID
		jump.NextMediaType = media
	}
	m.appJumpParameters = &jump

	m.log.Info("application jump prepared",
		zap.String("current_title", titleHex(jump.CurrentTitleID)),
		zap.String("next_title", titleHex(jump.NextTitleID)),
		zap.Stringer("next_media", jump.NextMediaType))
	return m.recordLifecycle("prepare_jump", nil)
}

// DoApplicationJump terminates the application and starts the prepared title,
// through the home menu when one is registered.
func (m *Manager) DoApplicationJump(arg types.DeliverArg) error {
	if m.appJumpParameters == nil {
		return m.recordLifecycle("do_jump", violation("application jump was not prepared"))
	}
	jump := *m.appJumpParameters

	app := m.slot(SlotApplication)
	oldTitle := app.titleID
	app.reset()

	deliver := arg
	if jump.Flags != types.JumpUseCurrentParameters {
		deliver.SourceProgramID = oldTitle
	}
	m.deliverArg = &deliver

	if m.slot(SlotHomeMenu).registered {
		m.activeSlot = SlotHomeMenu
		m.trySendParameter(types.MessageParameter{
			SenderID:      types.AppletApplication,
			DestinationID: types.AppletHomeMenu,
			Signal:        types.SignalWakeupToLaunchApplication,
		})
		return m.recordLifecycle("do_jump", nil)
	}

	m.log.Info("rebooting to jump title", zap.String("title_id", titleHex(jump.NextTitleID)))
	m.launcher.RebootToTitle(jump.NextMediaType, jump.NextTitleID)
	m.recordLaunch("jump", nil)
	return m.recordLifecycle("do_jump", nil)
}

// PrepareToStartApplication saves the title the home menu is about to start.
func (m *Manager) PrepareToStartApplication(titleID uint64, media types.MediaType) error {
	if m.activeSlot == SlotError || m.slot(m.activeSlot).attributes.Pos() != types.PosSystem {
		return m.recordLifecycle("prepare_start_app", ErrInvalidAppletSlot)
	}
	if m.slot(SlotApplication).registered {
		return m.recordLifecycle("prepare_start_app", ErrAlreadyExists)
	}
	if m.appStartParameters != nil {
		return m.recordLifecycle("prepare_start_app", violation("application start already prepared"))
	}

	m.appStartParameters = &types.ApplicationStartParameters{NextTitleID: titleID, NextMediaType: media}
	m.captureBufferInfo = nil
	return m.recordLifecycle("prepare_start_app", nil)
}

// StartApplication launches the prepared title. Unless paused, the
// application is woken as soon as it registers.
func (m *Manager) StartApplication(param, hmac []byte, paused bool) error {
	arg := types.NewDeliverArg(param, hmac)
	m.deliverArg = &arg

	if m.appStartParameters == nil {
		return m.recordLifecycle("start_app", violation("application start was not prepared"))
	}
	start := *m.appStartParameters
	m.activeSlot = SlotApplication

	err := m.launcher.LaunchTitle(start.NextMediaType, start.NextTitleID)
	m.recordLaunch("application", err)
	if err != nil {
		m.log.Error("application launch failed",
			zap.String("title_id", titleHex(start.NextTitleID)),
			zap.Stringer("media", start.NextMediaType),
			zap.Error(err))
		m.system.RequestShutdown()
	}

	m.appStartParameters = nil
	if !paused {
		return m.recordLifecycle("start_app", m.WakeupApplication(types.InvalidHandle, nil))
	}
	return m.recordLifecycle("start_app", nil)
}

// WakeupApplication wakes the application once it registers.
func (m *Manager) WakeupApplication(object types.Handle, buffer []byte) error {
	m.SendParameterAfterRegistration(types.MessageParameter{
		SenderID:      types.AppletHomeMenu,
		DestinationID: types.AppletApplication,
		Signal:        types.SignalWakeup,
		Object:        object,
		Buffer:        buffer,
	})
	return nil
}

// CancelApplication asks the application to close once it registers.
func (m *Manager) CancelApplication() error {
	if m.slot(SlotApplication).appletID == types.AppletNone {
		return m.recordLifecycle("cancel_app", ErrInvalidAppletSlot)
	}
	m.applicationCancelled = true
	m.SendParameterAfterRegistration(types.MessageParameter{
		SenderID:      m.slotAppletID(m.activeSlot),
		DestinationID: types.AppletApplication,
		Signal:        types.SignalWakeupByCancel,
	})
	return m.recordLifecycle("cancel_app", nil)
}

// SendApplicationParameterAfterRegistration forwards p to the application,
// holding it until the application registers.
func (m *Manager) SendApplicationParameterAfterRegistration(p types.MessageParameter) {
	m.SendParameterAfterRegistration(p)
}

// ReceiveDeliverArg returns and clears the launch payload.
func (m *Manager) ReceiveDeliverArg() (types.DeliverArg, bool) {
	if m.deliverArg == nil {
		return types.DeliverArg{}, false
	}
	arg := *m.deliverArg
	m.deliverArg = nil
	return arg, true
}

// SetDeliverArg replaces the launch payload.
func (m *Manager) SetDeliverArg(arg types.DeliverArg) {
	m.deliverArg = &arg
}

// AppJumpParameters returns the parameters of the last jump preparation.
func (m *Manager) AppJumpParameters() (types.ApplicationJumpParameters, bool) {
	if m.appJumpParameters == nil {
		return types.ApplicationJumpParameters{}, false
	}
	return *m.appJumpParameters, true
}

// ProgramIDOnApplicationJump returns the current and next title of the last
// jump preparation.
func (m *Manager) ProgramIDOnApplicationJump() (current, next uint64, err error) {
	if m.appJumpParameters == nil {
		return 0, 0, ErrNotFound
	}
	return m.appJumpParameters.CurrentTitleID, m.appJumpParameters.NextTitleID, nil
}
