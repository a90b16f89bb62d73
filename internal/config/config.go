package config

import (
	"fmt"
)

// Config carries the fuzzer's process-level settings. Defaults reproduce the
// original fixed behavior: two conventional plan paths, seed zero, run
// forever, randomize outputs as well as inputs.
type Config struct {
	Plan0Path string
	Plan1Path string

	Seed int64

	// MaxIterations bounds the fuzz loop; 0 means run until interrupted.
	MaxIterations uint64

	// RandomizeOutputs controls whether output buffers are refilled with
	// random bytes each iteration in addition to inputs. On by default;
	// stresses the runtime's ability to overwrite pre-existing garbage.
	RandomizeOutputs bool

	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

func Default() Config {
	return Config{
		Plan0Path:        "model0.plan",
		Plan1Path:        "model1.plan",
		Seed:             0,
		MaxIterations:    0,
		RandomizeOutputs: true,
		MetricsAddr:      ":9090",
		LogLevel:         "INFO",
		LogFormat:        "console",
	}
}

func (c *Config) Validate() error {
	if c.Plan0Path == "" {
		return fmt.Errorf("invalid plan0 path: must not be empty")
	}
	if c.Plan1Path == "" {
		return fmt.Errorf("invalid plan1 path: must not be empty")
	}
	return nil
}
