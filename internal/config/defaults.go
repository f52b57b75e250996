package config

import "time"

// DefaultConfig returns a fully-populated Config suitable for local
// development; every field a real deployment must override is still
// present with a conservative value rather than left zero.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			ServiceName:    "owctld",
			ServiceVersion: "dev",
			Endpoint:       "localhost:4317",
			Insecure:       true,
			SampleRate:     1.0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
		ShutdownTimeout: 10 * time.Second,
		Aggregator: AggregatorConfig{
			AccTTL:      120 * time.Second,
			NumWindows:  3,
			MaxReports:  500,
			ReportType:  "relative",
			CTZoneMerge: true,
			NodeID:      "unconfigured-node",
		},
		Steer: SteerConfig{
			BackoffInitial:    5 * time.Second,
			BackoffMax:        5 * time.Minute,
			BackoffMultiplier: 2.0,
			AgeoutTimeout:     10 * time.Minute,
		},
	}
}
