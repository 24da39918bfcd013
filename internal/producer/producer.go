// Package producer spawns the external extractor process whose output the
// pipeline consumes.
//
// The pipeline never inspects the producer beyond its exit code: a non-zero
// exit is logged and the cycle continues, because the only contract is the
// file it may or may not have written.
package producer

import (
	"context"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"

	"fileferry/internal/config"
	"fileferry/internal/errors"
)

// Runner executes the producer command. Swappable for tests.
type Runner interface {
	// Run starts the command and waits for it, returning the exit code.
	Run(ctx context.Context, cfg config.ProducerConfig) (int, error)
}

// ExecRunner runs the producer via os/exec with inherited stdio.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, cfg config.ProducerConfig) (int, error) {
	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, errors.Wrap(errors.EProducerSpawn, "failed to run producer: "+cfg.Command, err)
}

// Producer wraps a Runner with logging.
type Producer struct {
	runner Runner
	cfg    config.ProducerConfig
	log    *logrus.Logger
}

// New creates a Producer.
func New(runner Runner, cfg config.ProducerConfig, log *logrus.Logger) *Producer {
	return &Producer{runner: runner, cfg: cfg, log: log}
}

// RunOnce spawns the producer and logs its exit code. Spawn failure is an
// error; a non-zero exit is not.
func (p *Producer) RunOnce(ctx context.Context) error {
	if !p.cfg.Enabled {
		return nil
	}
	p.log.WithFields(logrus.Fields{
		"command": p.cfg.Command,
		"args":    p.cfg.Args,
	}).Info("spawning producer")

	code, err := p.runner.Run(ctx, p.cfg)
	if err != nil {
		return err
	}
	if code != 0 {
		p.log.WithField("exit_code", code).Warn("producer exited non-zero")
	} else {
		p.log.Info("producer completed")
	}
	return nil
}
