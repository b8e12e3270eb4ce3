// Package hle provides the emulated stand-ins for library applets that run
// when no native applet title can be launched.
//
// New selects a variant from the closed id set (two software keyboards, two
// list selectors, two error dialogs, two mint applets). Each variant shares
// one lifecycle: Wakeup starts it, Request is answered with a shared memory
// block, and the first Update after start (or a WakeupByCancel) closes it
// through the Host with a variant-specific result buffer.
package hle
