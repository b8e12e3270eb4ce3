package hle

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// ErrUnsupportedApplet is returned by New for ids with no emulated variant.
var ErrUnsupportedApplet = errors.New("hle: unsupported applet id")

// Applet is an emulated library applet driven by the applet manager.
type Applet interface {
	ID() types.AppletID
	Parent() types.AppletID
	Preloaded() bool
	ReceiveParameter(p types.MessageParameter) error
	Update() error
	IsRunning() bool
	IsActive() bool
}

// Host is the subset of the applet manager an emulated applet calls back into.
type Host interface {
	CancelAndSendParameter(p types.MessageParameter)
	PrepareToCloseLibraryApplet(notPause, exiting, jumpHome bool) error
	CloseLibraryApplet(object types.Handle, buffer []byte) error
	CreateSharedMemory(name string, size uint32) types.Handle
}

// behavior is what differs between applet variants.
type behavior interface {
	name() string
	// start parses the wakeup buffer.
	start(buffer []byte) error
	// memSize is the size of the shared block handed out on Request.
	memSize() uint32
	// result builds the buffer returned to the parent when the applet closes.
	result() []byte
}

// New creates the emulated applet for id. The applet starts running but
// inactive; it becomes active on its first Wakeup.
func New(id, parent types.AppletID, preload bool, host Host) (Applet, error) {
	var impl behavior
	switch id {
	case types.AppletSoftwareKeyboard1, types.AppletSoftwareKeyboard2:
		impl = &keyboard{}
	case types.AppletEd1, types.AppletEd2:
		impl = &selector{}
	case types.AppletError, types.AppletError2:
		impl = &errorDialog{}
	case types.AppletMint, types.AppletMint2:
		impl = &mint{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedApplet, id)
	}

	return &base{
		id:      id,
		parent:  parent,
		preload: preload,
		host:    host,
		impl:    impl,
		running: true,
	}, nil
}

// Supported reports whether New has a variant for id.
func Supported(id types.AppletID) bool {
	switch id {
	case types.AppletSoftwareKeyboard1, types.AppletSoftwareKeyboard2,
		types.AppletEd1, types.AppletEd2,
		types.AppletError, types.AppletError2,
		types.AppletMint, types.AppletMint2:
		return true
	}
	return false
}

type base struct {
	id      types.AppletID
	parent  types.AppletID
	preload bool
	host    Host
	impl    behavior

	running bool
	active  bool
	// object is the shared memory handed over with the wakeup; it goes back
	// to the parent on close.
	object types.Handle
}

func (b *base) ID() types.AppletID     { return b.id }
func (b *base) Parent() types.AppletID { return b.parent }
func (b *base) Preloaded() bool        { return b.preload }
func (b *base) IsRunning() bool        { return b.running }
func (b *base) IsActive() bool         { return b.active }

// ReceiveParameter handles a parameter routed straight to this applet.
func (b *base) ReceiveParameter(p types.MessageParameter) error {
	if !b.running {
		return fmt.Errorf("hle: %s already closed", b.id)
	}

	switch p.Signal {
	case types.SignalWakeup:
		if err := b.impl.start(p.Buffer); err != nil {
			return fmt.Errorf("hle: start %s: %w", b.impl.name(), err)
		}
		b.object = p.Object
		b.active = true
		return nil
	case types.SignalWakeupByCancel:
		return b.finish()
	case types.SignalRequest:
		b.respond(b.impl.name(), b.impl.memSize())
		return nil
	default:
		return nil
	}
}

// Update runs one frame. Every variant completes on its first active frame.
func (b *base) Update() error {
	if !b.active {
		return nil
	}
	return b.finish()
}

func (b *base) finish() error {
	if !b.running {
		return nil
	}
	buffer := b.impl.result()
	b.active = false
	b.running = false

	// The library slot is released even when the prepare step is refused.
	prepErr := b.host.PrepareToCloseLibraryApplet(true, false, false)
	if prepErr != nil {
		prepErr = fmt.Errorf("hle: prepare close %s: %w", b.impl.name(), prepErr)
	}
	if err := b.host.CloseLibraryApplet(b.object, buffer); err != nil {
		return errors.Join(prepErr, fmt.Errorf("hle: close %s: %w", b.impl.name(), err))
	}
	return prepErr
}

// respond sends a Response back to the parent with a fresh shared memory block.
func (b *base) respond(name string, size uint32) {
	mem := b.host.CreateSharedMemory(name, size)
	b.host.CancelAndSendParameter(types.MessageParameter{
		SenderID:      b.id,
		DestinationID: b.parent,
		Signal:        types.SignalResponse,
		Object:        mem,
	})
}
