// Package loader launches guest titles for the applet manager.
//
// Two launchers implement the same LaunchTitle/RebootToTitle contract:
//   - CatalogLauncher starts titles listed in a local YAML, TOML or JSON
//     catalog (or any title with an open catalog).
//   - RemoteLauncher posts launch requests to a frontend service over HTTP,
//     with transport retries, a rate limiter and a circuit breaker.
//
// Both report the started title to the kernel so the applet that registers
// next records the right title id.
package loader
