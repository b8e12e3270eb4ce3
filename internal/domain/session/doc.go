// Package session runs emulated consoles for the API.
//
// A Session bundles one applet manager with the kernel object table, the
// virtual time scheduler, the title loader and the button devices it drives.
// All access to the manager goes through Session.Do, which holds the session
// lock, and the realtime driver advances virtual time under the same lock, so
// the scheduler callbacks never race the service calls.
//
// The Manager is the registry of live sessions. It always holds a default
// session that serves the unscoped routes.
//
// Example Usage:
//
//	sessions, err := session.NewManager(session.ConfigFrom(cfg), session.Deps{Logger: log})
//	s := sessions.Default()
//	go s.Run(ctx)
//	err = s.Do(func(m *applet.Manager) error {
//		return m.PrepareToStartLibraryApplet(types.AppletSoftwareKeyboard1)
//	})
package session
