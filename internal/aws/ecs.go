package aws

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecsTypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"go.uber.org/zap"
)

// statusRunning is the ECS runtime state a task must report to be a valid
// execute-command target.
const statusRunning = "RUNNING"

// unknownTaskName is used when a task definition carries no family.
const unknownTaskName = "unknown"

// ServiceInfo represents an ECS service within a cluster.
type ServiceInfo struct {
	Arn  string
	Name string
}

// TaskInfo represents a running task that accepts execute-command sessions.
type TaskInfo struct {
	Arn  string
	ID   string
	Name string // task definition family
}

// ListClusters returns the ARNs of all ECS clusters visible to the caller,
// in the order the service returned them.
func (c *Client) ListClusters(ctx context.Context) ([]string, error) {
	if c.ECS == nil {
		return nil, fmt.Errorf("ECS client not initialized")
	}

	// Ensure we have a reasonable timeout
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
	}

	arns, err := collectPages(ctx, func(ctx context.Context, token *string) ([]string, *string, error) {
		out, err := c.ECS.ListClusters(ctx, &ecs.ListClustersInput{
			NextToken: token,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list ECS clusters: %w", err)
		}
		return out.ClusterArns, out.NextToken, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger().Debug("listed ECS clusters", zap.Int("count", len(arns)))
	return arns, nil
}

// ListServices returns all services in a cluster, sorted by short name.
func (c *Client) ListServices(ctx context.Context, cluster string) ([]ServiceInfo, error) {
	if c.ECS == nil {
		return nil, fmt.Errorf("ECS client not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 20*time.Second)
		defer cancel()
	}

	services, err := collectPages(ctx, func(ctx context.Context, token *string) ([]ServiceInfo, *string, error) {
		out, err := c.ECS.ListServices(ctx, &ecs.ListServicesInput{
			Cluster:   &cluster,
			NextToken: token,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list ECS services: %w", err)
		}

		page := make([]ServiceInfo, 0, len(out.ServiceArns))
		for _, arn := range out.ServiceArns {
			page = append(page, ServiceInfo{Arn: arn, Name: ShortName(arn)})
		}
		return page, out.NextToken, nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(services, func(i, j int) bool { return services[i].Name < services[j].Name })

	c.logger().Debug("listed ECS services",
		zap.String("cluster", ShortName(cluster)),
		zap.Int("count", len(services)))
	return services, nil
}

// ListValidTasks returns the service's tasks that are actually running and
// have execute-command enabled, sorted by task definition family. Tasks
// missing an ARN, a task definition reference, or the described definition
// itself are dropped rather than reported.
func (c *Client) ListValidTasks(ctx context.Context, cluster, serviceName string) ([]TaskInfo, error) {
	if c.ECS == nil {
		return nil, fmt.Errorf("ECS client not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	// Each listing page is described as a batch before the next page is
	// fetched, keeping the describe batch bounded by the page size.
	tasks, err := collectPages(ctx, func(ctx context.Context, token *string) ([]TaskInfo, *string, error) {
		out, err := c.ECS.ListTasks(ctx, &ecs.ListTasksInput{
			Cluster:       &cluster,
			ServiceName:   &serviceName,
			DesiredStatus: ecsTypes.DesiredStatusRunning,
			NextToken:     token,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list ECS tasks: %w", err)
		}
		if len(out.TaskArns) == 0 {
			return nil, out.NextToken, nil
		}

		page, err := c.describeValidTasks(ctx, cluster, out.TaskArns)
		if err != nil {
			return nil, nil, err
		}
		return page, out.NextToken, nil
	})
	if err != nil {
		return nil, err
	}

	// Stable so tasks sharing a family keep their enumeration order.
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })

	c.logger().Debug("validated ECS tasks",
		zap.String("cluster", ShortName(cluster)),
		zap.String("service", serviceName),
		zap.Int("count", len(tasks)))
	return tasks, nil
}

// describeValidTasks filters one page of task ARNs down to usable
// execute-command targets.
func (c *Client) describeValidTasks(ctx context.Context, cluster string, taskArns []string) ([]TaskInfo, error) {
	descOut, err := c.ECS.DescribeTasks(ctx, &ecs.DescribeTasksInput{
		Cluster: &cluster,
		Tasks:   taskArns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe ECS tasks: %w", err)
	}

	var valid []TaskInfo
	for _, t := range descOut.Tasks {
		if getString(t.LastStatus) != statusRunning || !t.EnableExecuteCommand {
			continue
		}
		if t.TaskArn == nil || t.TaskDefinitionArn == nil {
			continue
		}

		defOut, err := c.ECS.DescribeTaskDefinition(ctx, &ecs.DescribeTaskDefinitionInput{
			TaskDefinition: t.TaskDefinitionArn,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to describe task definition: %w", err)
		}
		if defOut.TaskDefinition == nil {
			continue
		}

		name := unknownTaskName
		if defOut.TaskDefinition.Family != nil {
			name = *defOut.TaskDefinition.Family
		}

		valid = append(valid, TaskInfo{
			Arn:  *t.TaskArn,
			ID:   ShortName(*t.TaskArn),
			Name: name,
		})
	}
	return valid, nil
}

// ShortName returns the final segment of a hierarchical ARN, the
// conventional display form for clusters, services and tasks alike. An
// identifier with no separator is returned verbatim.
func ShortName(arn string) string {
	parts := strings.Split(arn, "/")
	if len(parts) == 0 {
		return arn
	}
	return parts[len(parts)-1]
}

func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
