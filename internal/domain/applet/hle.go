package applet

import (
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/domain/hle"
	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// createHLEApplet starts the emulated stand-in for id and registers it in the
// library slot.
func (m *Manager) createHLEApplet(id, parent types.AppletID, preload bool) error {
	a, err := hle.New(id, parent, preload, m)
	if err != nil {
		if errors.Is(err, hle.ErrUnsupportedApplet) {
			m.log.Error("no emulated applet available", zap.Stringer("applet", id))
			return ErrNotSupported
		}
		return err
	}
	m.hleApplets[id] = a
	m.updateHLEGauge()

	m.log.Info("emulated applet created",
		zap.Stringer("applet", id),
		zap.Stringer("parent", parent),
		zap.Bool("preload", preload))

	attrs, _, _ := m.LockHandle(types.NewAttributes(types.PosAutoLibrary, false, false))
	if _, _, err := m.Initialize(id, attrs); err != nil {
		m.log.Warn("emulated applet initialize failed", zap.Stringer("applet", id), zap.Error(err))
	}
	if err := m.Enable(attrs); err != nil {
		m.log.Warn("emulated applet enable failed", zap.Stringer("applet", id), zap.Error(err))
	}

	m.scheduler.ScheduleEvent(m.opts.HLEUpdateInterval, m.hleUpdateEvent, uint64(id))
	return nil
}

func (m *Manager) hleAppletUpdate(userdata uint64, late time.Duration) {
	id := types.AppletID(userdata)
	a, ok := m.hleApplets[id]
	if !ok {
		m.log.Warn("update for missing emulated applet", zap.Stringer("applet", id))
		return
	}

	if a.IsActive() {
		if err := a.Update(); err != nil {
			m.log.Error("emulated applet update failed", zap.Stringer("applet", id), zap.Error(err))
		}
	}
	if m.metrics != nil {
		m.metrics.RecordHLETick(id.String())
	}

	if a.IsRunning() {
		m.scheduler.ScheduleEvent(m.opts.HLEUpdateInterval-late, m.hleUpdateEvent, userdata)
		return
	}
	delete(m.hleApplets, id)
	m.updateHLEGauge()
	m.log.Debug("emulated applet finished", zap.Stringer("applet", id))
}

// HLEApplet returns the emulated applet running as id.
func (m *Manager) HLEApplet(id types.AppletID) (hle.Applet, bool) {
	a, ok := m.hleApplets[id]
	return a, ok
}

// HLEApplets returns the ids of every emulated applet in ascending order.
func (m *Manager) HLEApplets() []types.AppletID {
	ids := make([]types.AppletID, 0, len(m.hleApplets))
	for id := range m.hleApplets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *Manager) updateHLEGauge() {
	if m.metrics != nil {
		m.metrics.SetHLEApplets(len(m.hleApplets))
	}
}
