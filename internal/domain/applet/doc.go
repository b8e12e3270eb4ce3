/*
Package applet implements the applet manager of the APT service.

The manager owns four applet slots (application, system applet, home menu and
library applet), a single-entry parameter mailbox with one delayed parameter,
and the prepare/start/close state machines for every applet category. Library
applets with no native title fall back to the emulated applets of package hle.

The manager is driven from one goroutine: service calls and the two periodic
scheduler callbacks must be serialized by the caller.
*/
package applet
