package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecsTypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
)

// LogEvent captures a single log line.
type LogEvent struct {
	Timestamp time.Time
	Message   string
}

// LogStream groups recent log lines for one container of a task.
type LogStream struct {
	Container string
	LogGroup  string
	LogStream string
	Events    []LogEvent
}

// GetTaskLogs fetches recent CloudWatch logs for a task, one stream per
// container whose definition uses the awslogs driver.
func (c *Client) GetTaskLogs(ctx context.Context, cluster, taskArn string, limit int32) ([]LogStream, error) {
	if c.ECS == nil || c.CloudWatchLogs == nil {
		return nil, fmt.Errorf("ECS or CloudWatchLogs client not initialized")
	}

	if limit <= 0 {
		limit = 50
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 20*time.Second)
		defer cancel()
	}

	taskID := ShortName(taskArn)

	// Describe the task to get the task definition
	taskDesc, err := c.ECS.DescribeTasks(ctx, &ecs.DescribeTasksInput{
		Cluster: &cluster,
		Tasks:   []string{taskArn},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe ECS task for logs: %w", err)
	}
	if len(taskDesc.Tasks) == 0 {
		return nil, fmt.Errorf("task not found")
	}
	task := taskDesc.Tasks[0]

	// Describe task definition to find log configuration
	tdOut, err := c.ECS.DescribeTaskDefinition(ctx, &ecs.DescribeTaskDefinitionInput{
		TaskDefinition: task.TaskDefinitionArn,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe task definition for logs: %w", err)
	}

	var streams []LogStream
	for _, cd := range tdOut.TaskDefinition.ContainerDefinitions {
		if cd.LogConfiguration == nil || cd.LogConfiguration.LogDriver != ecsTypes.LogDriverAwslogs {
			continue
		}
		opts := cd.LogConfiguration.Options
		logGroup := opts["awslogs-group"]
		streamPrefix := opts["awslogs-stream-prefix"]
		if logGroup == "" || streamPrefix == "" {
			continue
		}
		logStream := fmt.Sprintf("%s/%s/%s", streamPrefix, getString(cd.Name), taskID)

		events, err := c.fetchLogEvents(ctx, logGroup, logStream, limit)
		if err != nil {
			// If the expected stream is missing, fall back to the most
			// recent stream in the group.
			if recent, derr := c.findRecentLogStream(ctx, logGroup); derr == nil && recent != "" {
				if ev, ferr := c.fetchLogEvents(ctx, logGroup, recent, limit); ferr == nil {
					events = ev
					logStream = recent
				}
			}
		}

		streams = append(streams, LogStream{
			Container: getString(cd.Name),
			LogGroup:  logGroup,
			LogStream: logStream,
			Events:    events,
		})
	}

	return streams, nil
}

func (c *Client) fetchLogEvents(ctx context.Context, group, stream string, limit int32) ([]LogEvent, error) {
	out, err := c.CloudWatchLogs.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  &group,
		LogStreamName: &stream,
		Limit:         &limit,
		StartFromHead: sdkaws.Bool(false),
	})
	if err != nil {
		return nil, err
	}

	var events []LogEvent
	for _, ev := range out.Events {
		if ev.Timestamp == nil || ev.Message == nil {
			continue
		}
		events = append(events, LogEvent{
			Timestamp: time.UnixMilli(*ev.Timestamp),
			Message:   *ev.Message,
		})
	}
	return events, nil
}

func (c *Client) findRecentLogStream(ctx context.Context, group string) (string, error) {
	limit := int32(5)
	out, err := c.CloudWatchLogs.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: &group,
		OrderBy:      logTypes.OrderByLastEventTime,
		Descending:   sdkaws.Bool(true),
		Limit:        &limit,
	})
	if err != nil {
		return "", err
	}
	if len(out.LogStreams) == 0 || out.LogStreams[0].LogStreamName == nil {
		return "", fmt.Errorf("no log streams")
	}
	return *out.LogStreams[0].LogStreamName, nil
}
