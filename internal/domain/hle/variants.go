package hle

import (
	"encoding/binary"
	"errors"
	"unicode/utf16"
)

// Result codes written into the first word of a close buffer.
const (
	resultSuccess uint32 = 0
	resultOK      uint32 = 2
)

var errShortConfig = errors.New("config buffer too short")

// keyboard confirms whatever text the caller placed in the config.
//
// Config layout: [0:4] max text length in code units, [4:] initial text as
// UTF-16LE. Result layout: [0:4] button code, [4:8] text length, [8:] text.
type keyboard struct {
	maxLen uint32
	text   []uint16
}

func (k *keyboard) name() string    { return "software_keyboard" }
func (k *keyboard) memSize() uint32 { return 0x8000 }

func (k *keyboard) start(buffer []byte) error {
	k.maxLen, k.text = 0, nil
	if len(buffer) == 0 {
		return nil
	}
	if len(buffer) < 4 {
		return errShortConfig
	}
	k.maxLen = binary.LittleEndian.Uint32(buffer)
	raw := buffer[4:]
	for i := 0; i+1 < len(raw); i += 2 {
		c := binary.LittleEndian.Uint16(raw[i:])
		if c == 0 {
			break
		}
		k.text = append(k.text, c)
	}
	if k.maxLen > 0 && uint32(len(k.text)) > k.maxLen {
		k.text = k.text[:k.maxLen]
	}
	return nil
}

func (k *keyboard) result() []byte {
	out := make([]byte, 8+2*len(k.text))
	binary.LittleEndian.PutUint32(out, resultOK)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(k.text)))
	for i, c := range k.text {
		binary.LittleEndian.PutUint16(out[8+2*i:], c)
	}
	return out
}

// Text returns the confirmed text of a keyboard result buffer.
func Text(result []byte) (string, bool) {
	if len(result) < 8 {
		return "", false
	}
	n := int(binary.LittleEndian.Uint32(result[4:]))
	if len(result) < 8+2*n {
		return "", false
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(result[8+2*i:])
	}
	return string(utf16.Decode(units)), true
}

// selector picks the initial index of the list it was started with.
//
// Config layout: [0:4] initial index. Result layout: [0:4] return code,
// [4:8] selected index.
type selector struct {
	index uint32
}

func (s *selector) name() string    { return "mii_selector" }
func (s *selector) memSize() uint32 { return 0x1000 }

func (s *selector) start(buffer []byte) error {
	s.index = 0
	if len(buffer) >= 4 {
		s.index = binary.LittleEndian.Uint32(buffer)
	}
	return nil
}

func (s *selector) result() []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint32(out, resultSuccess)
	binary.LittleEndian.PutUint32(out[4:], s.index)
	return out
}

// errorDialog acknowledges the error and hands its config back unchanged.
type errorDialog struct {
	config []byte
}

func (e *errorDialog) name() string    { return "error_dialog" }
func (e *errorDialog) memSize() uint32 { return 0x1000 }

func (e *errorDialog) start(buffer []byte) error {
	e.config = append([]byte(nil), buffer...)
	return nil
}

func (e *errorDialog) result() []byte {
	return append([]byte(nil), e.config...)
}

// mint returns its startup buffer.
type mint struct {
	config []byte
}

func (m *mint) name() string    { return "mint" }
func (m *mint) memSize() uint32 { return 0x1000 }

func (m *mint) start(buffer []byte) error {
	m.config = append([]byte(nil), buffer...)
	return nil
}

func (m *mint) result() []byte {
	return append([]byte(nil), m.config...)
}
