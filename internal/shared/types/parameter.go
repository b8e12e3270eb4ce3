package types

import (
	"encoding/binary"
	"errors"
	"math"
)

// MessageParameter is one message routed between applets through the mailbox.
type MessageParameter struct {
	SenderID      AppletID   `json:"sender_id"`
	DestinationID AppletID   `json:"destination_id"`
	Signal        SignalType `json:"signal"`
	Object        Handle     `json:"object,omitempty"`
	Buffer        []byte     `json:"buffer,omitempty"`
}

// DeliverArg is the launch payload handed to the next application.
type DeliverArg struct {
	Param           []byte `json:"param,omitempty"`
	HMAC            []byte `json:"hmac,omitempty"`
	SourceProgramID uint64 `json:"source_program_id"`
}

// NewDeliverArg returns a payload with no source program recorded.
func NewDeliverArg(param, hmac []byte) DeliverArg {
	return DeliverArg{Param: param, HMAC: hmac, SourceProgramID: math.MaxUint64}
}

// ApplicationJumpParameters holds the title pair saved by a jump preparation.
type ApplicationJumpParameters struct {
	NextTitleID      uint64               `json:"next_title_id"`
	NextMediaType    MediaType            `json:"next_media_type"`
	Flags            ApplicationJumpFlags `json:"flags"`
	CurrentTitleID   uint64               `json:"current_title_id"`
	CurrentMediaType MediaType            `json:"current_media_type"`
}

// ApplicationStartParameters holds the title saved by a start preparation.
type ApplicationStartParameters struct {
	NextTitleID   uint64    `json:"next_title_id"`
	NextMediaType MediaType `json:"next_media_type"`
}

// CaptureBufferInfoSize is the wire size of CaptureBufferInfo.
const CaptureBufferInfoSize = 0x20

// CaptureBufferInfo describes the saved framebuffer layout handed to system applets.
type CaptureBufferInfo struct {
	Size         uint32 `json:"size"`
	Is3D         bool   `json:"is_3d"`
	TopLeft      uint32 `json:"top_left"`
	TopRight     uint32 `json:"top_right"`
	TopFormat    uint32 `json:"top_format"`
	BottomLeft   uint32 `json:"bottom_left"`
	BottomRight  uint32 `json:"bottom_right"`
	BottomFormat uint32 `json:"bottom_format"`
}

var errShortCaptureInfo = errors.New("capture buffer info needs 0x20 bytes")

// ParseCaptureBufferInfo decodes the little-endian wire layout.
func ParseCaptureBufferInfo(b []byte) (CaptureBufferInfo, error) {
	if len(b) < CaptureBufferInfoSize {
		return CaptureBufferInfo{}, errShortCaptureInfo
	}
	le := binary.LittleEndian
	return CaptureBufferInfo{
		Size:         le.Uint32(b[0:]),
		Is3D:         b[4] != 0,
		TopLeft:      le.Uint32(b[8:]),
		TopRight:     le.Uint32(b[12:]),
		TopFormat:    le.Uint32(b[16:]),
		BottomLeft:   le.Uint32(b[20:]),
		BottomRight:  le.Uint32(b[24:]),
		BottomFormat: le.Uint32(b[28:]),
	}, nil
}

// Bytes encodes the info into its 0x20-byte wire layout.
func (c CaptureBufferInfo) Bytes() []byte {
	b := make([]byte, CaptureBufferInfoSize)
	le := binary.LittleEndian
	le.PutUint32(b[0:], c.Size)
	if c.Is3D {
		b[4] = 1
	}
	le.PutUint32(b[8:], c.TopLeft)
	le.PutUint32(b[12:], c.TopRight)
	le.PutUint32(b[16:], c.TopFormat)
	le.PutUint32(b[20:], c.BottomLeft)
	le.PutUint32(b[24:], c.BottomRight)
	le.PutUint32(b[28:], c.BottomFormat)
	return b
}

// AppletManInfo summarizes the active slot and the home menu identity.
type AppletManInfo struct {
	ActivePos   AppletPos `json:"active_pos"`
	RequestedID AppletID  `json:"requested_id"`
	HomeMenuID  AppletID  `json:"home_menu_id"`
	ActiveID    AppletID  `json:"active_id"`
}

// AppletInfo describes one registered applet.
type AppletInfo struct {
	TitleID    uint64     `json:"title_id"`
	MediaType  MediaType  `json:"media_type"`
	Registered bool       `json:"registered"`
	Loaded     bool       `json:"loaded"`
	Attributes Attributes `json:"attributes"`
}
