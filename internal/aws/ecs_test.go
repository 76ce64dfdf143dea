package aws

import (
	"context"
	"errors"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecsTypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/stretchr/testify/require"
)

// fakeECS serves canned pages and records the calls it saw.
type fakeECS struct {
	clusterPages []*ecs.ListClustersOutput
	servicePages []*ecs.ListServicesOutput
	taskPages    []*ecs.ListTasksOutput
	tasksByArn   map[string]ecsTypes.Task
	definitions  map[string]*ecsTypes.TaskDefinition

	clusterCalls    int
	serviceCalls    int
	taskCalls       int
	describeBatches [][]string
	describedDefs   []string

	listErr     error
	describeErr error
	defErr      error
}

func (f *fakeECS) ListClusters(ctx context.Context, params *ecs.ListClustersInput, optFns ...func(*ecs.Options)) (*ecs.ListClustersOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.clusterPages[f.clusterCalls]
	f.clusterCalls++
	return out, nil
}

func (f *fakeECS) ListServices(ctx context.Context, params *ecs.ListServicesInput, optFns ...func(*ecs.Options)) (*ecs.ListServicesOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.servicePages[f.serviceCalls]
	f.serviceCalls++
	return out, nil
}

func (f *fakeECS) ListTasks(ctx context.Context, params *ecs.ListTasksInput, optFns ...func(*ecs.Options)) (*ecs.ListTasksOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.taskPages[f.taskCalls]
	f.taskCalls++
	return out, nil
}

func (f *fakeECS) DescribeTasks(ctx context.Context, params *ecs.DescribeTasksInput, optFns ...func(*ecs.Options)) (*ecs.DescribeTasksOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	f.describeBatches = append(f.describeBatches, params.Tasks)
	out := &ecs.DescribeTasksOutput{}
	for _, arn := range params.Tasks {
		if t, ok := f.tasksByArn[arn]; ok {
			out.Tasks = append(out.Tasks, t)
		}
	}
	return out, nil
}

func (f *fakeECS) DescribeTaskDefinition(ctx context.Context, params *ecs.DescribeTaskDefinitionInput, optFns ...func(*ecs.Options)) (*ecs.DescribeTaskDefinitionOutput, error) {
	if f.defErr != nil {
		return nil, f.defErr
	}
	f.describedDefs = append(f.describedDefs, *params.TaskDefinition)
	return &ecs.DescribeTaskDefinitionOutput{
		TaskDefinition: f.definitions[*params.TaskDefinition],
	}, nil
}

func runningTask(arn, defArn string, execEnabled bool) ecsTypes.Task {
	return ecsTypes.Task{
		TaskArn:              sdkaws.String(arn),
		TaskDefinitionArn:    sdkaws.String(defArn),
		LastStatus:           sdkaws.String("RUNNING"),
		EnableExecuteCommand: execEnabled,
	}
}

func TestShortName(t *testing.T) {
	if got := ShortName("arn:aws:ecs:region:acct:cluster/prod-main"); got != "prod-main" {
		t.Errorf("Expected short name 'prod-main', got '%s'", got)
	}
	if got := ShortName("bare-identifier"); got != "bare-identifier" {
		t.Errorf("Expected identifier returned verbatim, got '%s'", got)
	}
	if got := ShortName("svc/a/b"); got != "b" {
		t.Errorf("Expected last segment 'b', got '%s'", got)
	}
}

func TestListClustersPaginates(t *testing.T) {
	fake := &fakeECS{
		clusterPages: []*ecs.ListClustersOutput{
			{ClusterArns: []string{"arn/c1", "arn/c2"}, NextToken: sdkaws.String("t1")},
			{ClusterArns: []string{"arn/c3"}},
		},
	}
	c := &Client{ECS: fake}

	got, err := c.ListClusters(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"arn/c1", "arn/c2", "arn/c3"}, got)
	require.Equal(t, 2, fake.clusterCalls)
}

func TestListServicesSortsByShortName(t *testing.T) {
	fake := &fakeECS{
		servicePages: []*ecs.ListServicesOutput{
			{ServiceArns: []string{
				"arn:aws:ecs:eu-west-1:1:service/prod/zeta",
				"arn:aws:ecs:eu-west-1:1:service/prod/alpha",
				"no-slash-service",
			}},
		},
	}
	c := &Client{ECS: fake}

	got, err := c.ListServices(context.Background(), "arn/prod")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "alpha", got[0].Name)
	require.Equal(t, "no-slash-service", got[1].Name)
	require.Equal(t, "zeta", got[2].Name)
	require.Equal(t, "arn:aws:ecs:eu-west-1:1:service/prod/alpha", got[0].Arn)
}

func TestListValidTasksFiltersStatusAndExecFlag(t *testing.T) {
	stopped := runningTask("arn/task/t3", "arn/def/web:3", true)
	stopped.LastStatus = sdkaws.String("STOPPED")
	deactivating := runningTask("arn/task/t5", "arn/def/web:3", false)
	deactivating.LastStatus = sdkaws.String("DEACTIVATING")

	fake := &fakeECS{
		taskPages: []*ecs.ListTasksOutput{
			{TaskArns: []string{"arn/task/t1", "arn/task/t2", "arn/task/t3", "arn/task/t4", "arn/task/t5"}},
		},
		tasksByArn: map[string]ecsTypes.Task{
			"arn/task/t1": runningTask("arn/task/t1", "arn/def/web:3", true),
			"arn/task/t2": runningTask("arn/task/t2", "arn/def/web:3", false),
			"arn/task/t3": stopped,
			"arn/task/t4": runningTask("arn/task/t4", "arn/def/web:3", true),
			"arn/task/t5": deactivating,
		},
		definitions: map[string]*ecsTypes.TaskDefinition{
			"arn/def/web:3": {Family: sdkaws.String("web")},
		},
	}
	c := &Client{ECS: fake}

	got, err := c.ListValidTasks(context.Background(), "arn/prod", "web")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "t1", got[0].ID)
	require.Equal(t, "t4", got[1].ID)
	for _, task := range got {
		require.Equal(t, "web", task.Name)
	}
}

func TestListValidTasksSortsByFamily(t *testing.T) {
	fake := &fakeECS{
		taskPages: []*ecs.ListTasksOutput{
			{TaskArns: []string{"arn/task/t1", "arn/task/t2", "arn/task/t3"}},
		},
		tasksByArn: map[string]ecsTypes.Task{
			"arn/task/t1": runningTask("arn/task/t1", "arn/def/zeta:1", true),
			"arn/task/t2": runningTask("arn/task/t2", "arn/def/alpha:1", true),
			"arn/task/t3": runningTask("arn/task/t3", "arn/def/mu:1", true),
		},
		definitions: map[string]*ecsTypes.TaskDefinition{
			"arn/def/zeta:1":  {Family: sdkaws.String("zeta")},
			"arn/def/alpha:1": {Family: sdkaws.String("alpha")},
			"arn/def/mu:1":    {Family: sdkaws.String("mu")},
		},
	}
	c := &Client{ECS: fake}

	got, err := c.ListValidTasks(context.Background(), "arn/prod", "svc")
	require.NoError(t, err)

	var names []string
	for _, task := range got {
		names = append(names, task.Name)
	}
	require.Equal(t, []string{"alpha", "mu", "zeta"}, names)
}

func TestListValidTasksMissingFamilyFallsBack(t *testing.T) {
	fake := &fakeECS{
		taskPages: []*ecs.ListTasksOutput{
			{TaskArns: []string{"arn/task/t1"}},
		},
		tasksByArn: map[string]ecsTypes.Task{
			"arn/task/t1": runningTask("arn/task/t1", "arn/def/x:1", true),
		},
		definitions: map[string]*ecsTypes.TaskDefinition{
			"arn/def/x:1": {},
		},
	}
	c := &Client{ECS: fake}

	got, err := c.ListValidTasks(context.Background(), "arn/prod", "svc")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "unknown", got[0].Name)
}

func TestListValidTasksDropsPartialRecords(t *testing.T) {
	noArn := runningTask("", "arn/def/x:1", true)
	noArn.TaskArn = nil
	noDef := runningTask("arn/task/t2", "", true)
	noDef.TaskDefinitionArn = nil

	fake := &fakeECS{
		taskPages: []*ecs.ListTasksOutput{
			// t3 is listed but not describable at all.
			{TaskArns: []string{"arn/task/t1", "arn/task/t2", "arn/task/t3"}},
		},
		tasksByArn: map[string]ecsTypes.Task{
			"arn/task/t1": noArn,
			"arn/task/t2": noDef,
		},
		definitions: map[string]*ecsTypes.TaskDefinition{},
	}
	c := &Client{ECS: fake}

	got, err := c.ListValidTasks(context.Background(), "arn/prod", "svc")
	require.NoError(t, err)
	require.Empty(t, got)
	require.Empty(t, fake.describedDefs, "partial records must not reach definition lookup")
}

func TestListValidTasksDescribesPerPage(t *testing.T) {
	fake := &fakeECS{
		taskPages: []*ecs.ListTasksOutput{
			{TaskArns: []string{"arn/task/t1", "arn/task/t2"}, NextToken: sdkaws.String("t1")},
			{TaskArns: []string{"arn/task/t3"}},
		},
		tasksByArn: map[string]ecsTypes.Task{
			"arn/task/t1": runningTask("arn/task/t1", "arn/def/a:1", true),
			"arn/task/t2": runningTask("arn/task/t2", "arn/def/a:1", true),
			"arn/task/t3": runningTask("arn/task/t3", "arn/def/a:1", true),
		},
		definitions: map[string]*ecsTypes.TaskDefinition{
			"arn/def/a:1": {Family: sdkaws.String("a")},
		},
	}
	c := &Client{ECS: fake}

	got, err := c.ListValidTasks(context.Background(), "arn/prod", "svc")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, [][]string{
		{"arn/task/t1", "arn/task/t2"},
		{"arn/task/t3"},
	}, fake.describeBatches)
}

func TestListValidTasksPropagatesDescribeError(t *testing.T) {
	boom := errors.New("access denied")
	fake := &fakeECS{
		taskPages: []*ecs.ListTasksOutput{
			{TaskArns: []string{"arn/task/t1"}},
		},
		describeErr: boom,
	}
	c := &Client{ECS: fake}

	_, err := c.ListValidTasks(context.Background(), "arn/prod", "svc")
	require.ErrorIs(t, err, boom)
}
