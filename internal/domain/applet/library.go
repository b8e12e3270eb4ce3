package applet

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// PrepareToStartLibraryApplet readies id to run in the library slot, either
// as a native title or as an emulated applet.
func (m *Manager) PrepareToStartLibraryApplet(id types.AppletID) error {
	if m.nextParameter != nil {
		return m.recordLifecycle("prepare_start_library", ErrParameterPresent)
	}
	if m.slot(SlotLibraryApplet).registered {
		return m.recordLifecycle("prepare_start_library", ErrAlreadyExists)
	}

	m.lastLibraryLauncherSlot = m.activeSlot
	m.lastPreparedLibraryApplet = id
	m.captureBufferInfo = nil

	return m.recordLifecycle("prepare_start_library", m.loadLibraryApplet(id, false))
}

// PreloadLibraryApplet loads id into the library slot without waking it.
func (m *Manager) PreloadLibraryApplet(id types.AppletID) error {
	if m.slot(SlotLibraryApplet).registered {
		return m.recordLifecycle("preload_library", ErrAlreadyExists)
	}

	m.lastLibraryLauncherSlot = m.activeSlot
	m.lastPreparedLibraryApplet = id

	return m.recordLifecycle("preload_library", m.loadLibraryApplet(id, true))
}

func (m *Manager) loadLibraryApplet(id types.AppletID, preload bool) error {
	if m.opts.NativeLibraryApplets {
		if m.launchNative(id) {
			return nil
		}
	}

	if _, ok := m.hleApplets[id]; ok {
		m.log.Warn("emulated applet already running", zap.Stringer("applet", id))
		return nil
	}
	return m.createHLEApplet(id, m.slotAppletID(m.lastLibraryLauncherSlot), preload)
}

// launchNative tries to start the title of a known applet from NAND.
func (m *Manager) launchNative(id types.AppletID) bool {
	tid, err := m.titles.TitleIDFor(id)
	if err != nil {
		m.log.Debug("no native title for applet", zap.Stringer("applet", id), zap.Error(err))
		return false
	}
	err = m.launcher.LaunchTitle(types.MediaNAND, tid)
	m.recordLaunch("library", err)
	if err != nil {
		m.log.Warn("native applet launch failed, falling back to emulation",
			zap.Stringer("applet", id), zap.String("title_id", titleHex(tid)), zap.Error(err))
		return false
	}
	return true
}

// FinishPreloadingLibraryApplet marks the library slot loaded.
func (m *Manager) FinishPreloadingLibraryApplet(id types.AppletID) {
	m.log.Debug("library applet finished preloading", zap.Stringer("applet", id))
	m.slot(SlotLibraryApplet).loaded = true
}

// StartLibraryApplet gives focus to the library slot and wakes id.
func (m *Manager) StartLibraryApplet(id types.AppletID, object types.Handle, buffer []byte) error {
	m.activeSlot = SlotLibraryApplet
	err := m.SendParameter(types.MessageParameter{
		SenderID:      m.slotAppletID(m.lastLibraryLauncherSlot),
		DestinationID: id,
		Signal:        types.SignalWakeup,
		Object:        object,
		Buffer:        buffer,
	})
	if err != nil {
		m.activeSlot = m.lastLibraryLauncherSlot
	}
	return m.recordLifecycle("start_library", err)
}

// PrepareToCloseLibraryApplet picks the signal the launcher receives when the
// library applet closes.
func (m *Manager) PrepareToCloseLibraryApplet(notPause, exiting, jumpHome bool) error {
	if m.nextParameter != nil {
		return m.recordLifecycle("prepare_close_library", ErrParameterPresent)
	}

	switch {
	case !notPause:
		m.libraryClosingSignal = types.SignalWakeupByPause
	case jumpHome:
		m.libraryClosingSignal = types.SignalWakeupToJumpHome
	case exiting:
		m.libraryClosingSignal = types.SignalWakeupByCancel
	default:
		m.libraryClosingSignal = types.SignalWakeupByExit
	}
	return m.recordLifecycle("prepare_close_library", nil)
}

// CloseLibraryApplet returns focus to the launcher. The library slot is
// released unless the applet is only pausing.
func (m *Manager) CloseLibraryApplet(object types.Handle, buffer []byte) error {
	lib := m.slot(SlotLibraryApplet)
	p := types.MessageParameter{
		SenderID:      lib.appletID,
		DestinationID: m.slotAppletID(m.lastLibraryLauncherSlot),
		Signal:        m.libraryClosingSignal,
		Object:        object,
		Buffer:        buffer,
	}
	m.activeSlot = m.lastLibraryLauncherSlot

	if m.libraryClosingSignal != types.SignalWakeupByPause {
		m.CancelAndSendParameter(p)
		lib.reset()
		return m.recordLifecycle("close_library", nil)
	}
	return m.recordLifecycle("close_library", m.SendParameter(p))
}

// CancelLibraryApplet asks the library applet to close.
func (m *Manager) CancelLibraryApplet(appExiting bool) error {
	if m.nextParameter != nil {
		return m.recordLifecycle("cancel_library", ErrParameterPresent)
	}
	lib := m.slot(SlotLibraryApplet)
	if !lib.registered {
		return m.recordLifecycle("cancel_library", ErrInvalidAppletSlot)
	}
	m.log.Debug("cancelling library applet", zap.Stringer("applet", lib.appletID), zap.Bool("app_exiting", appExiting))

	return m.recordLifecycle("cancel_library", m.SendParameter(types.MessageParameter{
		SenderID:      m.slotAppletID(m.lastLibraryLauncherSlot),
		DestinationID: lib.appletID,
		Signal:        types.SignalWakeupByCancel,
	}))
}

// SendDspSleep tells the peer of a library applet that the DSP went to sleep.
func (m *Manager) SendDspSleep(from types.AppletID, object types.Handle) error {
	m.sendDspSignal(from, object)
	return nil
}

// SendDspWakeUp tells the peer of a library applet that the DSP woke up. The
// console sends the sleep signal here too.
func (m *Manager) SendDspWakeUp(from types.AppletID, object types.Handle) error {
	m.sendDspSignal(from, object)
	return nil
}

func (m *Manager) sendDspSignal(from types.AppletID, object types.Handle) {
	if from == types.AppletNone {
		return
	}
	var dest types.AppletID
	switch from {
	case m.slotAppletID(m.SlotForPosition(types.PosLibrary)):
		dest = types.AppletApplication
	case m.slotAppletID(m.SlotForPosition(types.PosSysLibrary)):
		dest = m.slotAppletID(m.SlotForPosition(types.PosSystem))
	default:
		return
	}
	if err := m.SendParameter(types.MessageParameter{
		SenderID:      from,
		DestinationID: dest,
		Signal:        types.SignalDspSleep,
		Object:        object,
	}); err != nil {
		m.log.Debug("dsp signal dropped", zap.Stringer("from", from), zap.Error(err))
	}
}

func (m *Manager) recordLaunch(kind string, err error) {
	if m.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.metrics.RecordLaunch(kind, result)
}
