package process

import (
	"errors"
	"time"
)

// DefaultTimeout bounds one plugin invocation.
const DefaultTimeout = 30 * time.Second

// ProcessConfig describes an external command acting as a collaborator.
// The command inherits the environment of pitstop.
type ProcessConfig struct {
	Command string        `mapstructure:"command" yaml:"command" json:"command"`
	Args    []string      `mapstructure:"args" yaml:"args" json:"args"`
	Dir     string        `mapstructure:"dir" yaml:"dir" json:"dir"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`

	// Environment adds variables. Configuration files cannot set it because
	// their keys are case-folded.
	Environment map[string]string `mapstructure:"-" yaml:"-" json:"-"`
}

// Enabled reports whether a command is configured.
func (c ProcessConfig) Enabled() bool {
	return c.Command != ""
}

// EffectiveTimeout is the bound applied to one invocation.
func (c ProcessConfig) EffectiveTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c ProcessConfig) validate() error {
	if c.Command == "" {
		return errors.New("process command is required")
	}
	return nil
}
