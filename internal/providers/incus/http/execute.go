package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

const maxResponseBytes = 1 << 20

// execute performs one API call and decodes the envelope. Async responses
// are waited on before returning, so callers always observe the final
// state of the operation. When out is non-nil, the envelope metadata is
// decoded into it.
func (g *Gateway) execute(ctx context.Context, method, path string, query url.Values, body, out any) (apiEnvelope, error) {
	envelope, err := g.call(ctx, method, path, query, body)
	if err != nil {
		return apiEnvelope{}, err
	}

	if envelope.Type == "async" && envelope.Operation != "" {
		if err := g.waitOperation(ctx, envelope.Operation); err != nil {
			return apiEnvelope{}, err
		}
	}

	if out != nil && len(envelope.Metadata) > 0 {
		if err := json.Unmarshal(envelope.Metadata, out); err != nil {
			return apiEnvelope{}, remoteError("server returned malformed metadata", err)
		}
	}

	return envelope, nil
}

func (g *Gateway) call(ctx context.Context, method, path string, query url.Values, body any) (apiEnvelope, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return apiEnvelope{}, classifyTransportError(err)
	}

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apiEnvelope{}, internalError("failed to encode request body", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, g.resolveURL(path, query), bodyReader)
	if err != nil {
		return apiEnvelope{}, internalError("failed to build request", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	g.log.V(1).Info("api call", "method", method, "path", path)

	response, err := g.client.Do(request)
	if err != nil {
		return apiEnvelope{}, classifyTransportError(err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return apiEnvelope{}, remoteError("failed to read response body", err)
	}

	var envelope apiEnvelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			if response.StatusCode >= http.StatusBadRequest {
				return apiEnvelope{}, classifyStatusError(response.StatusCode, summarizeBody(raw))
			}
			return apiEnvelope{}, remoteError("server response is not valid JSON", err)
		}
	}

	if response.StatusCode >= http.StatusBadRequest {
		message := envelope.Error
		if message == "" {
			message = summarizeBody(raw)
		}
		return apiEnvelope{}, classifyStatusError(response.StatusCode, message)
	}
	if envelope.Type == "error" {
		return apiEnvelope{}, classifyStatusError(envelope.ErrorCode, envelope.Error)
	}

	return envelope, nil
}

func (g *Gateway) resolveURL(path string, query url.Values) string {
	target := *g.baseURL
	target.Path = path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	return target.String()
}

func classifyStatusError(statusCode int, message string) error {
	full := fmt.Sprintf("server returned %d: %s", statusCode, message)

	switch statusCode {
	case http.StatusNotFound:
		return notFoundError(full, nil)
	case http.StatusConflict:
		return conflictError(full, nil)
	}

	if statusCode >= 400 && statusCode < 500 {
		return validationError(full, nil)
	}
	return remoteError(full, nil)
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return timeoutError("request timed out", err)
	}
	return remoteError("request failed", err)
}

func summarizeBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "<empty>"
	}
	if len(trimmed) > 512 {
		return trimmed[:512] + "..."
	}
	return trimmed
}
