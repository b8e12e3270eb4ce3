package applet

import "github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"

// AppletManInfo reports the active applet and the applet registered at pos.
func (m *Manager) AppletManInfo(pos types.AppletPos) types.AppletManInfo {
	info := types.AppletManInfo{
		ActivePos:   types.PosInvalid,
		RequestedID: types.AppletNone,
		HomeMenuID:  types.AppletHomeMenu,
		ActiveID:    types.AppletNone,
	}
	if m.activeSlot != SlotError {
		active := m.slot(m.activeSlot)
		if active.appletID != types.AppletNone {
			info.ActivePos = active.attributes.Pos()
			info.ActiveID = active.appletID
		}
	}
	if s := m.SlotForPosition(pos); s != SlotError && m.slot(s).registered {
		info.RequestedID = m.slot(s).appletID
	}
	return info
}

// AppletInfo describes the registered applet id.
func (m *Manager) AppletInfo(id types.AppletID) (types.AppletInfo, error) {
	s := m.SlotFor(id)
	if s == SlotError || !m.slot(s).registered {
		return types.AppletInfo{}, ErrNotFound
	}
	slot := m.slot(s)
	return types.AppletInfo{
		TitleID:    slot.titleID,
		MediaType:  TitleMediaType(slot.titleID),
		Registered: slot.registered,
		Loaded:     slot.loaded,
		Attributes: slot.attributes,
	}, nil
}

// CheckApplicationMedia answers the media probe for the running application.
// It reports SDMC when the application, or its update when requested, is on
// the probed media and NAND otherwise.
func (m *Manager) CheckApplicationMedia(in uint8) (types.MediaType, error) {
	app := m.slot(SlotApplication)
	if app.appletID == types.AppletNone {
		return types.MediaNAND, ErrAppNotRunning
	}
	if in >= 0x80 {
		return types.MediaNAND, ErrInvalidArgument
	}

	target := types.MediaSDMC
	if in >= 0x40 {
		target = types.MediaGameCard
	}
	checkUpdate := in == 0x01 || in == 0x42

	if TitleMediaType(app.titleID) == target {
		return types.MediaSDMC, nil
	}
	if checkUpdate && TitleMediaType(UpdateTitleID(app.titleID)) == target {
		return types.MediaSDMC, nil
	}
	return types.MediaNAND, nil
}

// BlockNew3DSMode makes the manager report an Old 3DS from now on.
func (m *Manager) BlockNew3DSMode() {
	m.new3DSModeBlocked = true
}

// TargetPlatform reports the console model applications see.
func (m *Manager) TargetPlatform() types.TargetPlatform {
	if m.opts.New3DS && !m.new3DSModeBlocked {
		return types.PlatformNew3DS
	}
	return types.PlatformOld3DS
}

// ApplicationRunningMode reports the model and registration of the
// application.
func (m *Manager) ApplicationRunningMode() types.ApplicationRunningMode {
	app := m.slot(SlotApplication)
	if app.appletID == types.AppletNone {
		return types.RunningModeNoApplication
	}

	new3DS := m.TargetPlatform() == types.PlatformNew3DS && m.opts.Enable804MHz
	switch {
	case app.registered && new3DS:
		return types.RunningModeNew3DSRegistered
	case app.registered:
		return types.RunningModeOld3DSRegistered
	case new3DS:
		return types.RunningModeNew3DSUnregistered
	default:
		return types.RunningModeOld3DSUnregistered
	}
}
