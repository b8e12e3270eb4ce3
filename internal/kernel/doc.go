// Package kernel provides the kernel signal-object table of an emulated
// session.
//
// The applet manager only holds Handle values into this table. Guest-side
// waiters poll Consume; the websocket stream subscribes to Signal events.
package kernel
