// Package config handles loading and validating detector agent configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The configuration covers the ambient concerns of the agent (registry address,
// control port, loop cadence, peripherals, optional mirrors). The enabled-sensor
// set itself is never part of it: that always comes from the registry.
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/detector.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Registry.BaseURL)
package config
