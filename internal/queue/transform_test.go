package queue

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biizlabs/jobengine/internal/config"
)

func TestMapSourceMessageUnifiedShape(t *testing.T) {
	raw := `{
		"lambdaProxyMessage": {
			"body": "{\"x\":1}",
			"path": "/orders",
			"httpMethod": "PUT",
			"headers": {"Authorization": "Bearer t"}
		},
		"execution": {"type": "rest-api", "baseUrl": "https://api.example.com"},
		"metadata": {"jobId": "job-9", "appId": "app-1", "messageGroupId": "g", "idempotencyKey": "idem"}
	}`

	msg := MapSourceMessage(raw, "crypto")

	assert.Equal(t, "PUT", msg.ProxyRequest.HTTPMethod)
	assert.Equal(t, "/orders", msg.ProxyRequest.Path)
	assert.Equal(t, "Bearer t", msg.ProxyRequest.Headers["Authorization"])
	assert.Equal(t, config.ExecutionRestAPI, msg.Execution.Type)
	assert.Equal(t, "https://api.example.com", msg.Execution.BaseURL)
	assert.Equal(t, "job-9", msg.Metadata.JobID)
	assert.Equal(t, "g", msg.Metadata.MessageGroupID)
	assert.Equal(t, "idem", msg.Metadata.IdempotencyKey)
}

func TestMapSourceMessageFlatFields(t *testing.T) {
	raw := `{
		"body": {"amount": 10},
		"path": "/payments",
		"httpMethod": "POST",
		"executionType": "lambda-invoke",
		"functionName": "pay-fn",
		"appId": "app-2"
	}`

	msg := MapSourceMessage(raw, "ox")

	require.NotNil(t, msg.ProxyRequest.Body)
	assert.JSONEq(t, `{"amount":10}`, *msg.ProxyRequest.Body)
	assert.Equal(t, "/payments", msg.ProxyRequest.Path)
	assert.Equal(t, config.ExecutionLambdaInvoke, msg.Execution.Type)
	assert.Equal(t, "pay-fn", msg.Execution.FunctionName)
	assert.Equal(t, "app-2", msg.Metadata.AppID)
	// fields the producer omitted get tracked defaults
	assert.Equal(t, "ox", msg.Metadata.MessageGroupID)
	assert.NotEmpty(t, msg.Metadata.IdempotencyKey)
	_, err := uuid.Parse(msg.Metadata.JobID)
	assert.NoError(t, err)
}

func TestMapSourceMessageMalformedJSON(t *testing.T) {
	raw := `{not json at all`

	msg := MapSourceMessage(raw, "crypto")

	require.NotNil(t, msg.ProxyRequest.Body)
	assert.Equal(t, raw, *msg.ProxyRequest.Body)
	assert.Equal(t, "POST", msg.ProxyRequest.HTTPMethod)
	assert.Equal(t, "/", msg.ProxyRequest.Path)
	assert.Equal(t, "/{proxy+}", msg.ProxyRequest.Resource)
	assert.Equal(t, "application/json", msg.ProxyRequest.Headers["Content-Type"])
	assert.Equal(t, config.ExecutionRestAPI, msg.Execution.Type)
	assert.Equal(t, "crypto", msg.Metadata.MessageGroupID)
	assert.Contains(t, msg.Metadata.IdempotencyKey, "crypto-")
	assert.NotEmpty(t, msg.Metadata.JobID)
}

func TestMapSourceMessageDefaults(t *testing.T) {
	msg := MapSourceMessage(`{}`, "crypto")

	assert.Nil(t, msg.ProxyRequest.Body)
	assert.Equal(t, "POST", msg.ProxyRequest.HTTPMethod)
	assert.Equal(t, "/", msg.ProxyRequest.Path)
	assert.Equal(t, "", msg.ProxyRequest.PathParameters["proxy"])
	assert.Equal(t, "/", msg.ProxyRequest.RequestContext.Path)
	assert.Equal(t, "/{proxy+}", msg.ProxyRequest.RequestContext.ResourcePath)
	assert.Equal(t, config.ExecutionRestAPI, msg.Execution.Type)
}

func TestMapSourceMessageNestedOverFlatPriority(t *testing.T) {
	raw := `{
		"baseUrl": "https://flat.example.com",
		"execution": {"type": "rest-api", "baseUrl": "https://nested.example.com"},
		"metadata": {"jobId": "nested-job"}
	}`

	msg := MapSourceMessage(raw, "ox")

	// flat fields win when both forms appear
	assert.Equal(t, "https://flat.example.com", msg.Execution.BaseURL)
	assert.Equal(t, "nested-job", msg.Metadata.JobID)
}

func TestMapSourceMessageRequestContextFallback(t *testing.T) {
	raw := `{
		"requestContext": {"path": "/ctx", "resourcePath": "/ctx/{id}", "httpMethod": "DELETE"}
	}`

	msg := MapSourceMessage(raw, "crypto")

	assert.Equal(t, "/ctx", msg.ProxyRequest.Path)
	assert.Equal(t, "/ctx/{id}", msg.ProxyRequest.Resource)
	assert.Equal(t, "DELETE", msg.ProxyRequest.HTTPMethod)
}
