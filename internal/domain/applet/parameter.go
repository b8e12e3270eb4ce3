package applet

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

const (
	pathHLE     = "hle"
	pathMailbox = "mailbox"
)

// SendParameter queues p in the mailbox. It fails with ErrParameterPresent
// while another parameter is still pending.
func (m *Manager) SendParameter(p types.MessageParameter) error {
	if m.nextParameter != nil {
		m.log.Warn("parameter already pending",
			zap.Stringer("sender", p.SenderID),
			zap.Stringer("destination", p.DestinationID),
			zap.Stringer("signal", p.Signal),
			zap.Stringer("pending_destination", m.nextParameter.DestinationID))
		if m.metrics != nil {
			m.metrics.RecordParameterBlocked(p.Signal.String())
		}
		return ErrParameterPresent
	}
	m.CancelAndSendParameter(p)
	return nil
}

// trySendParameter sends p unless another parameter is pending, in which
// case p is dropped. Focus changes that follow a send do not depend on its
// delivery.
func (m *Manager) trySendParameter(p types.MessageParameter) {
	_ = m.SendParameter(p)
}

// CancelAndSendParameter delivers p, replacing any pending parameter.
func (m *Manager) CancelAndSendParameter(p types.MessageParameter) {
	m.log.Debug("sending parameter",
		zap.Stringer("sender", p.SenderID),
		zap.Stringer("destination", p.DestinationID),
		zap.Stringer("signal", p.Signal),
		zap.Int("buffer_size", len(p.Buffer)))

	if a, ok := m.hleApplets[p.DestinationID]; ok {
		if err := a.ReceiveParameter(p); err != nil {
			m.log.Error("emulated applet rejected parameter",
				zap.Stringer("applet", p.DestinationID),
				zap.Stringer("signal", p.Signal),
				zap.Error(err))
		}
		m.recordParameter(p.Signal, pathHLE)
		return
	}

	next := p
	switch {
	case next.Signal == types.SignalRequestForSysApplet:
		m.answerSysAppletRequest(&next)
	case next.SenderID.IsSystemApplet() && next.DestinationID.IsApplication() && next.Object != types.InvalidHandle:
		next.Object = types.InvalidHandle
	}
	m.nextParameter = &next
	m.recordParameter(p.Signal, pathMailbox)

	s := m.SlotFor(next.DestinationID)
	if s == SlotError {
		m.log.Debug("parameter destination has no slot", zap.Stringer("destination", next.DestinationID))
		return
	}
	m.kernel.Signal(m.slot(s).parameterEvent)
}

// answerSysAppletRequest turns a system applet request into the response the
// service sends back to the requester.
func (m *Manager) answerSysAppletRequest(p *types.MessageParameter) {
	if info, err := types.ParseCaptureBufferInfo(p.Buffer); err == nil {
		m.captureInfo = &info
		if m.capturer != nil {
			if err := m.capturer.CaptureFrameBuffers(info); err != nil {
				m.log.Warn("framebuffer capture failed", zap.Error(err))
			}
		}
	}
	p.SenderID, p.DestinationID = p.DestinationID, p.SenderID
	p.Signal = types.SignalResponse
	p.Buffer = nil
	p.Object = types.InvalidHandle
}

// GlanceParameter returns the pending parameter addressed to id without
// removing it. Sleep and wakeup notifications for the DSP are consumed even by
// a glance.
func (m *Manager) GlanceParameter(id types.AppletID) (types.MessageParameter, error) {
	if m.nextParameter == nil {
		return types.MessageParameter{}, ErrNoData
	}
	if m.nextParameter.DestinationID != id {
		return types.MessageParameter{}, ErrNotFound
	}
	p := *m.nextParameter
	if p.Signal == types.SignalDspSleep || p.Signal == types.SignalDspWakeup {
		m.nextParameter = nil
	}
	return p, nil
}

// ReceiveParameter returns and removes the pending parameter addressed to id.
func (m *Manager) ReceiveParameter(id types.AppletID) (types.MessageParameter, error) {
	p, err := m.GlanceParameter(id)
	if err != nil {
		return p, err
	}
	m.nextParameter = nil
	return p, nil
}

// CancelParameter drops the pending parameter if it matches the enabled
// sender and receiver filters. It reports whether anything was dropped.
func (m *Manager) CancelParameter(checkSender bool, sender types.AppletID, checkReceiver bool, receiver types.AppletID) bool {
	if m.nextParameter == nil {
		return false
	}
	if checkSender && m.nextParameter.SenderID != sender {
		return false
	}
	if checkReceiver && m.nextParameter.DestinationID != receiver {
		return false
	}
	m.nextParameter = nil
	return true
}

// SendParameterAfterRegistration delivers p now if its destination is
// registered and otherwise holds it until the destination enables. Only one
// parameter is held; a second one replaces the first.
func (m *Manager) SendParameterAfterRegistration(p types.MessageParameter) {
	s := m.SlotFor(p.DestinationID)
	if s != SlotError && m.slot(s).registered {
		m.CancelAndSendParameter(p)
		return
	}
	if m.delayedParameter != nil {
		m.log.Debug("replacing delayed parameter",
			zap.Stringer("previous_destination", m.delayedParameter.DestinationID),
			zap.Stringer("destination", p.DestinationID))
	}
	delayed := p
	m.delayedParameter = &delayed
}

// NextParameter returns a copy of the pending parameter, if any.
func (m *Manager) NextParameter() (types.MessageParameter, bool) {
	if m.nextParameter == nil {
		return types.MessageParameter{}, false
	}
	return *m.nextParameter, true
}

// DelayedParameter returns a copy of the parameter held for registration, if any.
func (m *Manager) DelayedParameter() (types.MessageParameter, bool) {
	if m.delayedParameter == nil {
		return types.MessageParameter{}, false
	}
	return *m.delayedParameter, true
}

func (m *Manager) recordParameter(signal types.SignalType, path string) {
	if m.metrics != nil {
		m.metrics.RecordParameter(signal.String(), path)
	}
}
