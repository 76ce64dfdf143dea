// Package shell hands the terminal off to an interactive ECS exec session.
package shell

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// Launcher starts an interactive session into a container.
type Launcher interface {
	Launch(ctx context.Context, cluster, taskID, container string) error
}

// ExecLauncher shells out to the AWS CLI, which owns the SSM session
// handshake for execute-command.
type ExecLauncher struct {
	Profile string
	Command string

	log *zap.Logger
}

// NewExecLauncher returns a launcher that runs sessions under the given
// profile with the given in-container command.
func NewExecLauncher(profile, command string, log *zap.Logger) *ExecLauncher {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExecLauncher{Profile: profile, Command: command, log: log}
}

// Launch blocks until the interactive session ends. A session that starts
// and later exits non-zero is not treated as an error; failing to start
// the session is.
func (l *ExecLauncher) Launch(ctx context.Context, cluster, taskID, container string) error {
	awsPath, err := exec.LookPath("aws")
	if err != nil {
		return fmt.Errorf("aws CLI not found in PATH: %w", err)
	}

	args := l.args(cluster, taskID, container)

	l.log.Debug("launching execute-command session",
		zap.String("cluster", cluster),
		zap.String("task", taskID),
		zap.String("container", container))

	cmd := exec.CommandContext(ctx, awsPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start execute-command session: %w", err)
	}

	// The remote shell's exit status belongs to the operator, not to us.
	if err := cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil
		}
		return fmt.Errorf("execute-command session failed: %w", err)
	}
	return nil
}

func (l *ExecLauncher) args(cluster, taskID, container string) []string {
	return []string{
		"ecs", "execute-command",
		"--cluster", cluster,
		"--task", taskID,
		"--container", container,
		"--command", l.Command,
		"--interactive",
		"--profile", l.Profile,
	}
}
