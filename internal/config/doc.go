// Package config handles configuration loading for support-hub.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. Missing fields fall back to the defaults from Default().
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from SUPPORT_HUB_CONFIG environment variable
//  2. ~/.config/support-hub/hub.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${SUPPORT_HUB_DB}"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # WebSockets and history API
//	  observer_buffer: 64         # events buffered per observer connection
//	  customer_buffer: 16         # events buffered per customer connection
//	  write_timeout: "10s"
//	  ping_interval: "30s"
//
// Archive database:
//
//	database:
//	  path: "/var/lib/support-hub/support_hub.db"
//
// Bot tuning:
//
//	bot:
//	  escalation_threshold: 0.5   # frustration score triggering soft handoff
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
