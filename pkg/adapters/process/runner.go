// Package process runs external commands as classifier or composer
// collaborators, so a language model can be plugged in without linking it.
//
// The request is written as JSON on stdin and the answer is read from
// stdout. A few fields are also exported as PITSTOP_ARG_* variables. A
// non-zero exit status is an error carrying stderr.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// gracePeriod is how long a canceled process may take to exit after an
// interrupt before it is killed.
const gracePeriod = 2 * time.Second

// run executes cfg with payload on stdin and returns trimmed stdout.
func run(ctx context.Context, cfg ProcessConfig, payload any, args map[string]string) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.EffectiveTimeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = gracePeriod

	// Arguments travel as environment variables, never as flags.
	env := cmd.Environ()
	for k, v := range cfg.Environment {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		env = append(env, "PITSTOP_ARG_"+strings.ToUpper(k)+"="+v)
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(body)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%s: %w", cfg.Command, ctxErr)
		}
		return "", fmt.Errorf("execution of %s failed: %w. Stderr: %s", cfg.Command, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
