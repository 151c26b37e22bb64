// Package dispatch executes unified job messages against their targets.
// It is stateless and never touches job rows: the orchestrator decides what
// a failed attempt means.
package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedulertypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	"go.uber.org/zap"

	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/dto"
)

// LambdaAPI is the slice of the Lambda client the dispatcher uses.
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// SchedulerAPI is the slice of the EventBridge Scheduler client the
// dispatcher uses.
type SchedulerAPI interface {
	CreateSchedule(ctx context.Context, params *scheduler.CreateScheduleInput, optFns ...func(*scheduler.Options)) (*scheduler.CreateScheduleOutput, error)
}

// Result reports side-channel output of a successful attempt.
type Result struct {
	// ScheduleRef is the name of the schedule a "schedule" dispatch created,
	// recorded on the job row for later cleanup. Empty for other kinds.
	ScheduleRef string
	ScheduleARN string
}

// Dispatcher performs the side effect a job message describes. All clients
// are injected so tests can substitute fakes.
type Dispatcher struct {
	lambdaClient    LambdaAPI
	schedulerClient SchedulerAPI
	httpClient      *http.Client
	creds           aws.CredentialsProvider

	region             string
	schedulerRoleARN   string
	schedulerTargetURL string

	logger *zap.Logger
}

func NewDispatcher(
	lambdaClient LambdaAPI,
	schedulerClient SchedulerAPI,
	creds aws.CredentialsProvider,
	cfg *config.Config,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		lambdaClient:       lambdaClient,
		schedulerClient:    schedulerClient,
		httpClient:         &http.Client{Timeout: config.DispatchTimeoutSeconds * time.Second},
		creds:              creds,
		region:             cfg.AWSRegion,
		schedulerRoleARN:   cfg.SchedulerRoleARN,
		schedulerTargetURL: cfg.SchedulerTargetURL,
		logger:             logger,
	}
}

// Dispatch executes one attempt for msg. A nil error means the attempt
// succeeded; a *ConfigError means the descriptor is incomplete; a *Error
// means the attempt ran and failed.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *dto.UnifiedJobMessage) (*Result, error) {
	d.logger.Info("dispatching message",
		zap.String("job_id", msg.Metadata.JobID),
		zap.String("execution_type", string(msg.Execution.Type)),
	)

	switch msg.Execution.Type {
	case config.ExecutionLambdaInvoke:
		return &Result{}, d.invokeFunction(ctx, msg)
	case config.ExecutionLambdaURL:
		return &Result{}, d.invokeFunctionURL(ctx, msg)
	case config.ExecutionRestAPI:
		return &Result{}, d.callRestEndpoint(ctx, msg)
	case config.ExecutionSchedule:
		return d.createSchedule(ctx, msg)
	default:
		return nil, &ConfigError{Field: "type", Message: fmt.Sprintf("unknown execution type %q", msg.Execution.Type)}
	}
}

func (d *Dispatcher) invokeFunction(ctx context.Context, msg *dto.UnifiedJobMessage) error {
	exec := msg.Execution
	if exec.FunctionName == "" {
		return &ConfigError{Field: "functionName", Message: "required for lambda-invoke"}
	}

	invocationType := lambdatypes.InvocationTypeEvent
	if exec.InvocationType != "" {
		invocationType = lambdatypes.InvocationType(exec.InvocationType)
	}

	payload, err := json.Marshal(msg.ProxyRequest)
	if err != nil {
		return failf(config.ExecutionLambdaInvoke, "marshal payload: %w", err)
	}

	out, err := d.lambdaClient.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(exec.FunctionName),
		InvocationType: invocationType,
		Payload:        payload,
	})
	if err != nil {
		return failf(config.ExecutionLambdaInvoke, "invoke %s: %w", exec.FunctionName, err)
	}

	// 202 for Event, 200 for RequestResponse.
	if out.StatusCode != 200 && out.StatusCode != 202 {
		return failf(config.ExecutionLambdaInvoke, "invoke %s: status=%d", exec.FunctionName, out.StatusCode)
	}
	if out.FunctionError != nil {
		return failf(config.ExecutionLambdaInvoke, "invoke %s: function error %s", exec.FunctionName, *out.FunctionError)
	}

	return nil
}

func (d *Dispatcher) invokeFunctionURL(ctx context.Context, msg *dto.UnifiedJobMessage) error {
	exec := msg.Execution
	if exec.FunctionURL == "" {
		return &ConfigError{Field: "functionUrl", Message: "required for lambda-url"}
	}

	target, err := url.Parse(exec.FunctionURL)
	if err != nil {
		return &ConfigError{Field: "functionUrl", Message: "not a valid URL"}
	}

	fullURL := strings.TrimSuffix(exec.FunctionURL, "/") + ensureLeadingSlash(msg.ProxyRequest.Path)
	body := msg.ProxyRequest.BodyString()

	req, err := http.NewRequestWithContext(ctx, msg.ProxyRequest.HTTPMethod, fullURL, strings.NewReader(body))
	if err != nil {
		return failf(config.ExecutionLambdaURL, "build request: %w", err)
	}
	for k, v := range msg.ProxyRequest.Headers {
		req.Header.Set(k, v)
	}
	req.Host = target.Hostname()

	creds, err := d.creds.Retrieve(ctx)
	if err != nil {
		return failf(config.ExecutionLambdaURL, "retrieve credentials: %w", err)
	}

	sum := sha256.Sum256([]byte(body))
	signer := v4.NewSigner()
	if err := signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), "lambda", d.region, time.Now().UTC()); err != nil {
		return failf(config.ExecutionLambdaURL, "sign request: %w", err)
	}

	return d.doHTTP(config.ExecutionLambdaURL, req, exec.ExpectedStatuses)
}

func (d *Dispatcher) callRestEndpoint(ctx context.Context, msg *dto.UnifiedJobMessage) error {
	exec := msg.Execution
	if exec.BaseURL == "" {
		return &ConfigError{Field: "baseUrl", Message: "required for rest-api"}
	}

	fullURL := strings.TrimSuffix(exec.BaseURL, "/") + ensureLeadingSlash(msg.ProxyRequest.Path)

	req, err := http.NewRequestWithContext(ctx, msg.ProxyRequest.HTTPMethod, fullURL, strings.NewReader(msg.ProxyRequest.BodyString()))
	if err != nil {
		return failf(config.ExecutionRestAPI, "build request: %w", err)
	}
	for k, v := range msg.ProxyRequest.Headers {
		req.Header.Set(k, v)
	}
	if len(msg.ProxyRequest.QueryStringParameters) > 0 {
		q := req.URL.Query()
		for k, v := range msg.ProxyRequest.QueryStringParameters {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	return d.doHTTP(config.ExecutionRestAPI, req, exec.ExpectedStatuses)
}

func (d *Dispatcher) createSchedule(ctx context.Context, msg *dto.UnifiedJobMessage) (*Result, error) {
	exec := msg.Execution
	if exec.ScheduleExpression == "" {
		return nil, &ConfigError{Field: "scheduleExpression", Message: "required for schedule"}
	}
	if exec.TargetJob == nil {
		return nil, &ConfigError{Field: "targetJob", Message: "required for schedule"}
	}
	if d.schedulerRoleARN == "" {
		return nil, &ConfigError{Field: "schedulerRoleArn", Message: "AWS_SCHEDULER_ROLE_ARN not configured"}
	}
	if d.schedulerTargetURL == "" {
		return nil, &ConfigError{Field: "schedulerTargetUrl", Message: "AWS_SCHEDULER_TARGET_URL not configured"}
	}

	input, err := json.Marshal(exec.TargetJob)
	if err != nil {
		return nil, failf(config.ExecutionSchedule, "marshal target job: %w", err)
	}

	name := fmt.Sprintf("job-%s-%d", msg.Metadata.JobID, time.Now().UnixMilli())

	out, err := d.schedulerClient.CreateSchedule(ctx, &scheduler.CreateScheduleInput{
		Name:               aws.String(name),
		ScheduleExpression: aws.String(exec.ScheduleExpression),
		Target: &schedulertypes.Target{
			Arn:     aws.String(d.schedulerTargetURL),
			RoleArn: aws.String(d.schedulerRoleARN),
			Input:   aws.String(string(input)),
		},
		FlexibleTimeWindow: &schedulertypes.FlexibleTimeWindow{
			Mode: schedulertypes.FlexibleTimeWindowModeOff,
		},
		Description: aws.String("Scheduled job: " + msg.Metadata.JobID),
	})
	if err != nil {
		return nil, failf(config.ExecutionSchedule, "create schedule %s: %w", name, err)
	}

	res := &Result{ScheduleRef: name}
	if out.ScheduleArn != nil {
		res.ScheduleARN = *out.ScheduleArn
	}

	d.logger.Info("schedule created",
		zap.String("job_id", msg.Metadata.JobID),
		zap.String("schedule", name),
		zap.String("arn", res.ScheduleARN),
	)

	return res, nil
}

func (d *Dispatcher) doHTTP(kind config.ExecutionType, req *http.Request, expected []int) error {
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return failf(kind, "%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	if !statusAccepted(resp.StatusCode, expected) {
		// Keep a short body excerpt for the job's last_error.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return failf(kind, "%s %s: status=%d body=%s", req.Method, req.URL, resp.StatusCode, string(excerpt))
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}

// statusAccepted applies the job's expectedStatuses when set; otherwise any
// 2xx counts as success.
func statusAccepted(status int, expected []int) bool {
	if len(expected) == 0 {
		return status >= 200 && status < 300
	}
	for _, s := range expected {
		if s == status {
			return true
		}
	}
	return false
}

func ensureLeadingSlash(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}
