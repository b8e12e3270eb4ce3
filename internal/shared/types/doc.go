// Package types provides the shared data structures of the applet service.
//
// This package defines the closed value sets the applet manager, the emulated
// applets and the API layer exchange, so every component agrees on ids,
// attribute encodings and signal numbers.
//
// Core Types:
//   - AppletID: Applet identity, including wildcard lookup ids
//   - AppletPos, Attributes: Declared position category and launch flags
//   - SignalType: Intent carried by a routed parameter
//   - Notification: Broadcast event delivered to an applet slot
//   - MessageParameter: One message in the single-slot mailbox
//
// Launch Types:
//   - DeliverArg: Payload handed to the next application
//   - ApplicationJumpParameters, ApplicationStartParameters: Saved launch targets
//   - MediaType, TargetPlatform, ApplicationRunningMode
//
// Capture Types:
//   - CaptureBufferInfo: Framebuffer layout in its 0x20-byte wire form
//
// Example Usage:
//
//	param := types.MessageParameter{
//	    SenderID:      types.AppletApplication,
//	    DestinationID: types.AppletSoftwareKeyboard1,
//	    Signal:        types.SignalWakeup,
//	}
package types
