package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/dto"
)

// MapSourceMessage converts one raw source-queue payload into the unified
// envelope. It never fails: unparseable bodies become a fallback message
// that preserves the raw payload, so nothing upstream is ever dropped.
func MapSourceMessage(raw string, queueName string) *dto.UnifiedJobMessage {
	var src dto.SourceMessage
	if err := json.Unmarshal([]byte(raw), &src); err != nil {
		src = dto.SourceMessage{RawBody: raw}
	}
	return mapSource(&src, queueName)
}

func mapSource(src *dto.SourceMessage, queueName string) *dto.UnifiedJobMessage {
	msg := &dto.UnifiedJobMessage{
		ProxyRequest: resolveProxy(src),
		Execution:    resolveExecution(src),
		Metadata:     resolveMetadata(src, queueName),
	}
	return msg
}

func resolveProxy(src *dto.SourceMessage) dto.ProxyRequest {
	if src.ProxyRequest != nil {
		p := *src.ProxyRequest
		fillProxyDefaults(&p)
		return p
	}

	method := firstNonEmpty(src.HTTPMethod, src.Method)
	path := src.Path
	resource := src.Resource
	if src.RequestContext != nil {
		path = firstNonEmpty(path, src.RequestContext.Path)
		resource = firstNonEmpty(resource, src.RequestContext.ResourcePath)
		method = firstNonEmpty(method, src.RequestContext.HTTPMethod)
	}

	p := dto.ProxyRequest{
		Body:                  resolveBody(src.Body, src.RawBody),
		Path:                  path,
		HTTPMethod:            method,
		Resource:              resource,
		Headers:               src.Headers,
		PathParameters:        src.PathParameters,
		QueryStringParameters: src.QueryStringParameters,
	}
	if src.IsBase64Encoded != nil {
		p.IsBase64Encoded = *src.IsBase64Encoded
	}
	if src.RequestContext != nil {
		p.RequestContext = *src.RequestContext
	}
	fillProxyDefaults(&p)
	return p
}

// fillProxyDefaults completes the envelope so every downstream consumer sees
// a fully-formed proxy request.
func fillProxyDefaults(p *dto.ProxyRequest) {
	if p.HTTPMethod == "" {
		p.HTTPMethod = "POST"
	}
	if p.Path == "" {
		p.Path = "/"
	}
	if p.Resource == "" {
		p.Resource = "/{proxy+}"
	}
	if len(p.Headers) == 0 {
		p.Headers = map[string]string{"Content-Type": "application/json"}
	}
	if len(p.PathParameters) == 0 {
		p.PathParameters = map[string]string{"proxy": strings.TrimPrefix(p.Path, "/")}
	}
	if p.RequestContext == (dto.RequestContext{}) {
		p.RequestContext = dto.RequestContext{
			Path:         p.Path,
			ResourcePath: p.Resource,
			HTTPMethod:   p.HTTPMethod,
		}
	}
}

// resolveBody normalizes the many body shapes producers send: a JSON string
// is kept as-is, an inline object is re-serialized, and an unparseable
// payload survives verbatim via rawBody.
func resolveBody(body any, rawBody string) *string {
	switch v := body.(type) {
	case nil:
		if rawBody != "" {
			return &rawBody
		}
		return nil
	case string:
		return &v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		s := string(b)
		return &s
	}
}

func resolveExecution(src *dto.SourceMessage) dto.ExecutionConfig {
	exec := dto.ExecutionConfig{
		Type:           src.ExecutionType,
		BaseURL:        src.BaseURL,
		FunctionName:   src.FunctionName,
		FunctionURL:    src.FunctionURL,
		InvocationType: src.InvocationType,
	}
	if src.Execution != nil {
		if exec.Type == "" {
			exec.Type = src.Execution.Type
		}
		exec.BaseURL = firstNonEmpty(exec.BaseURL, src.Execution.BaseURL)
		exec.FunctionName = firstNonEmpty(exec.FunctionName, src.Execution.FunctionName)
		exec.FunctionURL = firstNonEmpty(exec.FunctionURL, src.Execution.FunctionURL)
		exec.InvocationType = firstNonEmpty(exec.InvocationType, src.Execution.InvocationType)
	}
	if exec.Type == "" {
		exec.Type = config.ExecutionRestAPI
	}
	return exec
}

func resolveMetadata(src *dto.SourceMessage, queueName string) dto.JobMetadata {
	meta := dto.JobMetadata{
		JobID:          src.JobID,
		AppID:          src.AppID,
		MessageGroupID: src.MessageGroupID,
		IdempotencyKey: src.IdempotencyKey,
		RetryCount:     src.RetryCount,
	}
	if src.Metadata != nil {
		meta.JobID = firstNonEmpty(meta.JobID, src.Metadata.JobID)
		meta.AppID = firstNonEmpty(meta.AppID, src.Metadata.AppID)
		meta.MessageGroupID = firstNonEmpty(meta.MessageGroupID, src.Metadata.MessageGroupID)
		meta.IdempotencyKey = firstNonEmpty(meta.IdempotencyKey, src.Metadata.IdempotencyKey)
		if meta.RetryCount == 0 {
			meta.RetryCount = src.Metadata.RetryCount
		}
	}

	if meta.JobID == "" {
		meta.JobID = uuid.NewString()
	}
	// The source queue name keeps per-source FIFO ordering for messages that
	// never declared a group.
	if meta.MessageGroupID == "" {
		meta.MessageGroupID = queueName
	}
	if meta.IdempotencyKey == "" {
		meta.IdempotencyKey = fmt.Sprintf("%s-%d-%s", queueName, time.Now().UnixMilli(), uuid.NewString())
	}
	meta.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	return meta
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
