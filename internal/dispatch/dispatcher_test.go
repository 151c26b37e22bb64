package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedulertypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/dto"
)

type lambdaStub struct {
	out *lambda.InvokeOutput
	err error

	lastInput *lambda.InvokeInput
}

func (s *lambdaStub) Invoke(_ context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	s.lastInput = in
	return s.out, s.err
}

type schedulerStub struct {
	out *scheduler.CreateScheduleOutput
	err error

	lastInput *scheduler.CreateScheduleInput
}

func (s *schedulerStub) CreateSchedule(_ context.Context, in *scheduler.CreateScheduleInput, _ ...func(*scheduler.Options)) (*scheduler.CreateScheduleOutput, error) {
	s.lastInput = in
	return s.out, s.err
}

func newTestDispatcher(l LambdaAPI, s SchedulerAPI) *Dispatcher {
	cfg := &config.Config{
		AWSRegion:          "us-east-1",
		SchedulerRoleARN:   "arn:aws:iam::123:role/scheduler",
		SchedulerTargetURL: "https://engine.example.com/internal/v1/scheduled-message",
	}
	creds := credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")
	return NewDispatcher(l, s, creds, cfg, zap.NewNop())
}

func restMessage(baseURL, path, method string, body string) *dto.UnifiedJobMessage {
	return &dto.UnifiedJobMessage{
		ProxyRequest: dto.ProxyRequest{
			Body:       &body,
			Path:       path,
			HTTPMethod: method,
			Headers:    map[string]string{"Content-Type": "application/json"},
		},
		Execution: dto.ExecutionConfig{Type: config.ExecutionRestAPI, BaseURL: baseURL},
		Metadata:  dto.JobMetadata{JobID: "job-1", MessageGroupID: "g"},
	}
}

func TestDispatchRestAPISuccess(t *testing.T) {
	var gotPath, gotMethod, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := newTestDispatcher(&lambdaStub{}, &schedulerStub{})
	msg := restMessage(srv.URL, "/orders/1", "PUT", `{"x":1}`)
	msg.ProxyRequest.QueryStringParameters = map[string]string{"force": "true"}

	res, err := d.Dispatch(context.Background(), msg)

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Empty(t, res.ScheduleRef)
	assert.Equal(t, "/orders/1", gotPath)
	assert.Equal(t, "PUT", gotMethod)
	assert.Equal(t, "force=true", gotQuery)
}

func TestDispatchRestAPINon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := newTestDispatcher(&lambdaStub{}, &schedulerStub{})

	_, err := d.Dispatch(context.Background(), restMessage(srv.URL, "/x", "POST", "{}"))

	require.Error(t, err)
	assert.False(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "status=500")
	assert.Contains(t, err.Error(), "boom")
}

func TestDispatchRestAPIExpectedStatuses(t *testing.T) {
	tests := []struct {
		name     string
		respond  int
		expected []int
		wantErr  bool
	}{
		{"listed non-2xx accepted", http.StatusTeapot, []int{418}, false},
		{"2xx outside the list rejected", http.StatusOK, []int{201, 204}, true},
		{"empty list keeps 2xx default", http.StatusOK, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.respond)
			}))
			defer srv.Close()

			d := newTestDispatcher(&lambdaStub{}, &schedulerStub{})
			msg := restMessage(srv.URL, "/hooks/x", "POST", "{}")
			msg.Execution.ExpectedStatuses = tt.expected

			_, err := d.Dispatch(context.Background(), msg)

			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, IsConfigError(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDispatchRestAPIMissingBaseURL(t *testing.T) {
	d := newTestDispatcher(&lambdaStub{}, &schedulerStub{})
	msg := restMessage("", "/x", "POST", "{}")

	_, err := d.Dispatch(context.Background(), msg)

	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestDispatchLambdaInvoke(t *testing.T) {
	fnErr := "Unhandled"
	tests := []struct {
		name    string
		stub    *lambdaStub
		exec    dto.ExecutionConfig
		wantErr bool
		config  bool
	}{
		{
			name: "event invoke accepted",
			stub: &lambdaStub{out: &lambda.InvokeOutput{StatusCode: 202}},
			exec: dto.ExecutionConfig{Type: config.ExecutionLambdaInvoke, FunctionName: "fn"},
		},
		{
			name: "request response ok",
			stub: &lambdaStub{out: &lambda.InvokeOutput{StatusCode: 200}},
			exec: dto.ExecutionConfig{Type: config.ExecutionLambdaInvoke, FunctionName: "fn", InvocationType: "RequestResponse"},
		},
		{
			name:    "function error fails",
			stub:    &lambdaStub{out: &lambda.InvokeOutput{StatusCode: 200, FunctionError: &fnErr}},
			exec:    dto.ExecutionConfig{Type: config.ExecutionLambdaInvoke, FunctionName: "fn"},
			wantErr: true,
		},
		{
			name:    "bad status fails",
			stub:    &lambdaStub{out: &lambda.InvokeOutput{StatusCode: 500}},
			exec:    dto.ExecutionConfig{Type: config.ExecutionLambdaInvoke, FunctionName: "fn"},
			wantErr: true,
		},
		{
			name:    "missing function name is config error",
			stub:    &lambdaStub{},
			exec:    dto.ExecutionConfig{Type: config.ExecutionLambdaInvoke},
			wantErr: true,
			config:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(tt.stub, &schedulerStub{})
			msg := &dto.UnifiedJobMessage{
				Execution: tt.exec,
				Metadata:  dto.JobMetadata{JobID: "job-1"},
			}

			_, err := d.Dispatch(context.Background(), msg)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.config, IsConfigError(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDispatchLambdaURLSignsRequest(t *testing.T) {
	var auth, host string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		host = r.Host
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := newTestDispatcher(&lambdaStub{}, &schedulerStub{})
	body := `{"y":2}`
	msg := &dto.UnifiedJobMessage{
		ProxyRequest: dto.ProxyRequest{Body: &body, Path: "/hook", HTTPMethod: "POST"},
		Execution:    dto.ExecutionConfig{Type: config.ExecutionLambdaURL, FunctionURL: srv.URL},
		Metadata:     dto.JobMetadata{JobID: "job-1"},
	}

	_, err := d.Dispatch(context.Background(), msg)

	require.NoError(t, err)
	assert.Contains(t, auth, "AWS4-HMAC-SHA256")
	assert.Contains(t, auth, "Credential=AKID")
	assert.Contains(t, auth, "us-east-1/lambda/aws4_request")
	assert.NotEmpty(t, host)
}

func TestDispatchSchedule(t *testing.T) {
	arn := "arn:aws:scheduler:::schedule/default/job-x"
	stub := &schedulerStub{out: &scheduler.CreateScheduleOutput{ScheduleArn: &arn}}
	d := newTestDispatcher(&lambdaStub{}, stub)

	target := &dto.UnifiedJobMessage{
		Execution: dto.ExecutionConfig{Type: config.ExecutionRestAPI, BaseURL: "https://api.example.com"},
		Metadata:  dto.JobMetadata{JobID: "inner"},
	}
	msg := &dto.UnifiedJobMessage{
		Execution: dto.ExecutionConfig{
			Type:               config.ExecutionSchedule,
			ScheduleExpression: "at(2026-09-01T00:00:00)",
			TargetJob:          target,
		},
		Metadata: dto.JobMetadata{JobID: "outer"},
	}

	res, err := d.Dispatch(context.Background(), msg)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.ScheduleRef, "job-outer-"))
	assert.Equal(t, arn, res.ScheduleARN)

	in := stub.lastInput
	require.NotNil(t, in)
	assert.Equal(t, "at(2026-09-01T00:00:00)", aws.ToString(in.ScheduleExpression))
	assert.Equal(t, schedulertypes.FlexibleTimeWindowModeOff, in.FlexibleTimeWindow.Mode)
	assert.Equal(t, "https://engine.example.com/internal/v1/scheduled-message", aws.ToString(in.Target.Arn))
	assert.Equal(t, "arn:aws:iam::123:role/scheduler", aws.ToString(in.Target.RoleArn))
	assert.Contains(t, aws.ToString(in.Target.Input), `"jobId":"inner"`)
}

func TestDispatchScheduleMissingFields(t *testing.T) {
	d := newTestDispatcher(&lambdaStub{}, &schedulerStub{})

	tests := []struct {
		name string
		exec dto.ExecutionConfig
	}{
		{
			name: "no expression",
			exec: dto.ExecutionConfig{Type: config.ExecutionSchedule, TargetJob: &dto.UnifiedJobMessage{}},
		},
		{
			name: "no target job",
			exec: dto.ExecutionConfig{Type: config.ExecutionSchedule, ScheduleExpression: "rate(5 minutes)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Dispatch(context.Background(), &dto.UnifiedJobMessage{
				Execution: tt.exec,
				Metadata:  dto.JobMetadata{JobID: "job-1"},
			})
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestDispatchUnknownType(t *testing.T) {
	d := newTestDispatcher(&lambdaStub{}, &schedulerStub{})

	_, err := d.Dispatch(context.Background(), &dto.UnifiedJobMessage{
		Execution: dto.ExecutionConfig{Type: "carrier-pigeon"},
		Metadata:  dto.JobMetadata{JobID: "job-1"},
	})

	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}
