package applet

import "github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"

// Slot is one of the fixed applet execution contexts.
type Slot int

const (
	SlotApplication Slot = iota
	SlotSystemApplet
	SlotHomeMenu
	SlotLibraryApplet
	// SlotError means no slot was found.
	SlotError

	numSlots = int(SlotError)
)

func (s Slot) String() string {
	switch s {
	case SlotApplication:
		return "application"
	case SlotSystemApplet:
		return "system_applet"
	case SlotHomeMenu:
		return "home_menu"
	case SlotLibraryApplet:
		return "library_applet"
	default:
		return "error"
	}
}

// MarshalText encodes the slot by name.
func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type slotRecord struct {
	slot         Slot
	appletID     types.AppletID
	titleID      uint64
	attributes   types.Attributes
	registered   bool
	loaded       bool
	notification types.Notification

	// Owned by the kernel, never recreated.
	notificationEvent types.Handle
	parameterEvent    types.Handle
}

func (s *slotRecord) reset() {
	s.appletID = types.AppletNone
	s.titleID = 0
	s.attributes = 0
	s.registered = false
	s.loaded = false
	s.notification = types.NotificationNone
}

// SlotState is a read-only view of one slot.
type SlotState struct {
	Slot              Slot               `json:"slot"`
	AppletID          types.AppletID     `json:"applet_id"`
	TitleID           uint64             `json:"title_id"`
	Attributes        types.Attributes   `json:"attributes"`
	Registered        bool               `json:"registered"`
	Loaded            bool               `json:"loaded"`
	Notification      types.Notification `json:"notification"`
	NotificationEvent types.Handle       `json:"notification_event"`
	ParameterEvent    types.Handle       `json:"parameter_event"`
}

func (m *Manager) slot(s Slot) *slotRecord {
	return &m.slots[s]
}

// slotAppletID returns the applet id held by s, or none for SlotError.
func (m *Manager) slotAppletID(s Slot) types.AppletID {
	if s == SlotError {
		return types.AppletNone
	}
	return m.slots[s].appletID
}

// SlotFor resolves a concrete or wildcard applet id to the slot holding it.
func (m *Manager) SlotFor(id types.AppletID) Slot {
	switch id {
	case types.AppletApplication:
		if m.slot(SlotApplication).appletID != types.AppletNone {
			return SlotApplication
		}
		return SlotError

	case types.AppletAnySystemApplet:
		if m.slot(SlotSystemApplet).appletID != types.AppletNone {
			return SlotSystemApplet
		}
		// The home menu is a system applet held in its own slot.
		if m.slot(SlotHomeMenu).appletID != types.AppletNone {
			return SlotHomeMenu
		}
		return SlotError

	case types.AppletAnyLibraryApplet, types.AppletAnySysLibraryApplet:
		lib := m.slot(SlotLibraryApplet)
		if lib.appletID == types.AppletNone {
			return SlotError
		}
		pos := lib.attributes.Pos()
		if (id == types.AppletAnyLibraryApplet && pos == types.PosLibrary) ||
			(id == types.AppletAnySysLibraryApplet && pos == types.PosSysLibrary) {
			return SlotLibraryApplet
		}
		return SlotError

	case types.AppletHomeMenu, types.AppletAlternateMenu:
		if m.slot(SlotHomeMenu).appletID != types.AppletNone {
			return SlotHomeMenu
		}
		return SlotError
	}

	for i := range m.slots {
		if m.slots[i].appletID == id {
			return Slot(i)
		}
	}
	return SlotError
}

var positionSlots = [...]Slot{
	types.PosApplication: SlotApplication,
	types.PosLibrary:     SlotLibraryApplet,
	types.PosSystem:      SlotSystemApplet,
	types.PosSysLibrary:  SlotLibraryApplet,
	types.PosResident:    SlotError,
	types.PosAutoLibrary: SlotLibraryApplet,
}

// SlotForAttributes maps declared launch attributes to a slot.
func (m *Manager) SlotForAttributes(attrs types.Attributes) Slot {
	pos := int(attrs.Pos())
	if pos >= len(positionSlots) {
		return SlotError
	}
	s := positionSlots[pos]
	if s == SlotSystemApplet && attrs.IsHomeMenu() {
		return SlotHomeMenu
	}
	return s
}

// SlotForPosition resolves the slot currently holding an applet of pos.
func (m *Manager) SlotForPosition(pos types.AppletPos) Slot {
	var id types.AppletID
	switch pos {
	case types.PosApplication:
		id = types.AppletApplication
	case types.PosLibrary:
		id = types.AppletAnyLibraryApplet
	case types.PosSystem:
		id = types.AppletAnySystemApplet
	case types.PosSysLibrary:
		id = types.AppletAnySysLibraryApplet
	default:
		return SlotError
	}
	return m.SlotFor(id)
}

// Slots returns a snapshot of every slot.
func (m *Manager) Slots() []SlotState {
	out := make([]SlotState, 0, numSlots)
	for i := range m.slots {
		s := &m.slots[i]
		out = append(out, SlotState{
			Slot:              s.slot,
			AppletID:          s.appletID,
			TitleID:           s.titleID,
			Attributes:        s.attributes,
			Registered:        s.registered,
			Loaded:            s.loaded,
			Notification:      s.notification,
			NotificationEvent: s.notificationEvent,
			ParameterEvent:    s.parameterEvent,
		})
	}
	return out
}

// ActiveSlot returns the slot that currently has focus.
func (m *Manager) ActiveSlot() Slot {
	return m.activeSlot
}
