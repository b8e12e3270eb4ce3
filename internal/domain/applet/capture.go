package applet

import "github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"

// SendCaptureBufferInfo stores the framebuffer layout left for the next applet.
func (m *Manager) SendCaptureBufferInfo(buffer []byte) error {
	if m.captureBufferInfo != nil {
		return violation("capture buffer info already set")
	}
	if len(buffer) != types.CaptureBufferInfoSize {
		return violation("capture buffer info is 0x%X bytes, want 0x%X", len(buffer), types.CaptureBufferInfoSize)
	}
	m.captureBufferInfo = append([]byte(nil), buffer...)
	return nil
}

// ReceiveCaptureBufferInfo returns and clears the stored framebuffer layout.
func (m *Manager) ReceiveCaptureBufferInfo() []byte {
	buf := m.captureBufferInfo
	m.captureBufferInfo = nil
	if buf == nil {
		return []byte{}
	}
	return buf
}

// CaptureInfo returns the layout captured on the last system applet request.
func (m *Manager) CaptureInfo() ([]byte, bool) {
	if m.captureInfo == nil {
		return nil, false
	}
	return m.captureInfo.Bytes(), true
}
