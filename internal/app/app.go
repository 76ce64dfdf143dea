// Package app wires discovery, selection and the shell hand-off into one
// sequential pipeline: cluster, then service, then task, then launch.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/noelruault/ecsh/internal/aws"
	"github.com/noelruault/ecsh/internal/shell"
	"github.com/noelruault/ecsh/internal/ui"
)

// AWSAPI is what the pipeline needs from the AWS layer. *aws.Client
// satisfies it; tests substitute a fake.
type AWSAPI interface {
	GetCallerIdentity(ctx context.Context) (*aws.CallerIdentity, error)
	ListClusters(ctx context.Context) ([]string, error)
	ListServices(ctx context.Context, cluster string) ([]aws.ServiceInfo, error)
	ListValidTasks(ctx context.Context, cluster, serviceName string) ([]aws.TaskInfo, error)
	GetTaskLogs(ctx context.Context, cluster, taskArn string, limit int32) ([]aws.LogStream, error)
}

// Options carries the per-run CLI selections.
type Options struct {
	Cluster   string // substring hint, first match wins
	Service   string // exact short name
	Container string
	Logs      bool // print recent task logs instead of opening a shell
	LogLines  int32
}

// App holds the collaborators of one run.
type App struct {
	AWS      AWSAPI
	Selector ui.Selector
	Launcher shell.Launcher
	Out      io.Writer
	Log      *zap.Logger
}

// Run executes the full pipeline. Every stage must produce a non-empty
// candidate set before the next one starts; nothing is retried.
func (a *App) Run(ctx context.Context, opts Options) error {
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}

	ident, err := a.AWS.GetCallerIdentity(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Using %s (account %s)\n", ident.Arn, ident.Account)

	clusters, err := a.AWS.ListClusters(ctx)
	if err != nil {
		return err
	}
	if len(clusters) == 0 {
		return fmt.Errorf("no clusters found")
	}

	clusterArn, err := resolveOne(a.Selector, "Select Cluster", clusters, opts.Cluster, "cluster",
		// Loose on purpose: the first cluster containing the hint wins,
		// even when several match.
		func(arn, hint string) bool { return strings.Contains(arn, hint) },
		aws.ShortName,
	)
	if err != nil {
		return err
	}
	log.Debug("resolved cluster", zap.String("cluster", clusterArn))

	services, err := a.AWS.ListServices(ctx, clusterArn)
	if err != nil {
		return err
	}
	if len(services) == 0 {
		return fmt.Errorf("no services found in cluster %s", clusterArn)
	}

	service, err := resolveOne(a.Selector, "Select Service", services, opts.Service, "service",
		func(s aws.ServiceInfo, name string) bool { return s.Name == name },
		func(s aws.ServiceInfo) string { return s.Name },
	)
	if err != nil {
		return err
	}
	log.Debug("resolved service", zap.String("service", service.Name))

	tasks, err := a.AWS.ListValidTasks(ctx, clusterArn, service.Name)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return fmt.Errorf("no tasks with execute command enabled found in service %s", service.Name)
	}

	task, err := resolveOne(a.Selector, "Select Task", tasks, "", "task",
		nil,
		func(t aws.TaskInfo) string { return fmt.Sprintf("%s (%s)", t.Name, t.ID) },
	)
	if err != nil {
		return err
	}
	log.Debug("resolved task", zap.String("task", task.ID))

	if opts.Logs {
		return a.printLogs(ctx, clusterArn, task, opts.LogLines)
	}

	return a.Launcher.Launch(ctx, aws.ShortName(clusterArn), task.ID, opts.Container)
}

// resolveOne picks one item from a non-empty list: by the match predicate
// when a hint is given, interactively otherwise. All three stages share
// this shape and differ only in their matching rule and display key.
func resolveOne[T any](sel ui.Selector, prompt string, items []T, hint, kind string,
	match func(T, string) bool, label func(T) string) (T, error) {
	var zero T

	if hint != "" {
		for _, item := range items {
			if match(item, hint) {
				return item, nil
			}
		}
		return zero, fmt.Errorf("specified %s %q not found", kind, hint)
	}

	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = label(item)
	}
	idx, err := sel.Select(prompt, labels)
	if err != nil {
		return zero, err
	}
	return items[idx], nil
}

func (a *App) printLogs(ctx context.Context, clusterArn string, task aws.TaskInfo, lines int32) error {
	streams, err := a.AWS.GetTaskLogs(ctx, clusterArn, task.Arn, lines)
	if err != nil {
		return err
	}
	if len(streams) == 0 {
		return fmt.Errorf("no log configuration found for task %s", task.ID)
	}

	for _, st := range streams {
		fmt.Fprintf(a.Out, "== %s (%s/%s)\n", st.Container, st.LogGroup, st.LogStream)
		for _, ev := range st.Events {
			fmt.Fprintf(a.Out, "%s  %s\n", ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Message)
		}
	}
	return nil
}
