// Package config provides 12-factor configuration management for the APT service.
//
// Configuration is loaded from environment variables with sensible defaults
// and validated before the session starts.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - APT: Region, console model and applet manager intervals
//   - Timing: Virtual time step and wall-clock driving
//   - Loader: Local title catalog or remote launcher service
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - APT_REGION, APT_NEW_3DS, APT_ENABLE_804MHZ, APT_NATIVE_LIBRARY_APPLETS,
//     APT_SKIP_HOME_BUTTON, APT_BUTTON_INTERVAL, APT_HLE_UPDATE_INTERVAL
//   - TIMING_FRAME, TIMING_REALTIME
//   - LOADER_MODE, LOADER_CATALOG, LOADER_REMOTE_URL, LOADER_TIMEOUT
package config
