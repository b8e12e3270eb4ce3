package applet

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// LockHandle resolves the automatic library position in attrs and returns the
// corrected attributes, the applet state word and the service lock handle.
func (m *Manager) LockHandle(attrs types.Attributes) (types.Attributes, uint32, types.Handle) {
	switch attrs.Pos() {
	case types.PosLibrary, types.PosSysLibrary, types.PosAutoLibrary:
		if m.lastLibraryLauncherSlot == SlotApplication {
			attrs = attrs.WithPos(types.PosLibrary)
		} else {
			attrs = attrs.WithPos(types.PosSysLibrary)
		}
	}
	return attrs, 0, m.lock
}

// Initialize claims the slot declared by attrs for id and returns its
// notification and parameter events.
func (m *Manager) Initialize(id types.AppletID, attrs types.Attributes) (notification, parameter types.Handle, err error) {
	s := m.SlotForAttributes(attrs)
	if s == SlotError {
		return 0, 0, violation("initialize %s with invalid attributes 0x%08X", id, attrs.Raw())
	}

	slot := m.slot(s)
	if slot.registered {
		m.log.Warn("applet slot already registered",
			zap.Stringer("applet", id),
			zap.Stringer("slot", s),
			zap.Stringer("current", slot.appletID))
		return 0, 0, ErrAlreadyExists
	}

	m.log.Info("initializing applet",
		zap.Stringer("applet", id),
		zap.Stringer("slot", s),
		zap.Uint32("attributes", attrs.Raw()))

	slot.appletID = id
	slot.titleID = m.kernel.CurrentProgramID()
	slot.attributes = attrs

	if m.activeSlot == SlotError {
		m.activeSlot = s
		// Wake the first applet that comes up.
		if err := m.Enable(attrs); err != nil {
			return 0, 0, err
		}
		if err := m.SendParameter(types.MessageParameter{
			SenderID:      types.AppletNone,
			DestinationID: id,
			Signal:        types.SignalWakeup,
		}); err != nil {
			m.log.Warn("initial wakeup not delivered", zap.Stringer("applet", id), zap.Error(err))
		}
	}

	return slot.notificationEvent, slot.parameterEvent, nil
}

// Enable marks the slot declared by attrs registered and flushes a delayed
// parameter waiting for it.
func (m *Manager) Enable(attrs types.Attributes) error {
	s := m.SlotForAttributes(attrs)
	if s == SlotError {
		return ErrInvalidAppletSlot
	}

	slot := m.slot(s)
	slot.registered = true

	// The home menu may upgrade its own attributes on enable.
	if slot.appletID != types.AppletNone && slot.attributes.Pos() == types.PosSystem && slot.attributes.IsHomeMenu() {
		slot.attributes |= attrs
	}

	if m.delayedParameter != nil && m.delayedParameter.DestinationID == slot.appletID {
		p := *m.delayedParameter
		m.delayedParameter = nil
		m.CancelAndSendParameter(p)
	}
	return nil
}

// Finalize releases the slot holding id.
func (m *Manager) Finalize(id types.AppletID) error {
	s := m.SlotFor(id)
	if s == SlotError {
		return ErrNotFound
	}
	m.log.Info("finalizing applet", zap.Stringer("applet", id), zap.Stringer("slot", s))
	m.slot(s).reset()

	if m.activeSlot == SlotError {
		m.activeSlot = m.SlotForPosition(types.PosSystem)
		return nil
	}
	active := m.slot(m.activeSlot)
	if active.appletID == types.AppletNone || active.attributes.Pos() == types.PosInvalid {
		m.activeSlot = m.SlotForPosition(types.PosSystem)
	}
	return nil
}

// CountRegisteredApplet returns how many slots are registered.
func (m *Manager) CountRegisteredApplet() int {
	n := 0
	for i := range m.slots {
		if m.slots[i].registered {
			n++
		}
	}
	return n
}

// IsRegistered reports whether the slot holding id is registered.
func (m *Manager) IsRegistered(id types.AppletID) bool {
	s := m.SlotFor(id)
	return s != SlotError && m.slot(s).registered
}

// Attribute returns the attributes of the registered applet id.
func (m *Manager) Attribute(id types.AppletID) (types.Attributes, error) {
	s := m.SlotFor(id)
	if s == SlotError || !m.slot(s).registered {
		return 0, ErrNotFound
	}
	return m.slot(s).attributes, nil
}

// InquireNotification returns and clears the notification waiting for id.
func (m *Manager) InquireNotification(id types.AppletID) (types.Notification, error) {
	s := m.SlotFor(id)
	if s == SlotError || !m.slot(s).registered {
		return types.NotificationNone, ErrNotFound
	}
	slot := m.slot(s)
	n := slot.notification
	slot.notification = types.NotificationNone
	return n, nil
}

// SendNotification posts n to the active slot.
func (m *Manager) SendNotification(n types.Notification) error {
	if m.activeSlot == SlotError || !m.slot(m.activeSlot).registered {
		return ErrNotFound
	}
	m.notify(m.slot(m.activeSlot), n)
	return nil
}

// SendNotificationToAll posts n to every registered slot.
func (m *Manager) SendNotificationToAll(n types.Notification) {
	for i := range m.slots {
		if m.slots[i].registered {
			m.notify(&m.slots[i], n)
		}
	}
}

func (m *Manager) notify(slot *slotRecord, n types.Notification) {
	slot.notification = n
	m.kernel.Signal(slot.notificationEvent)
	m.log.Debug("notification sent", zap.Stringer("slot", slot.slot), zap.Stringer("notification", n))
	if m.metrics != nil {
		m.metrics.RecordNotification(n.String())
	}
}
