package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const operationWaitSeconds = 300

type apiOperation struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Err        string `json:"err"`
}

// waitOperation blocks until a background operation settles. The server
// hands back opaque operation paths; the trailing element must be the
// operation UUID.
func (g *Gateway) waitOperation(ctx context.Context, operationPath string) error {
	id := operationPath[strings.LastIndex(operationPath, "/")+1:]
	if _, err := uuid.Parse(id); err != nil {
		return remoteError(fmt.Sprintf("server returned malformed operation path %q", operationPath), err)
	}

	query := url.Values{}
	query.Set("timeout", fmt.Sprintf("%d", operationWaitSeconds))

	envelope, err := g.call(ctx, http.MethodGet, apiPrefix+"/operations/"+id+"/wait", query, nil)
	if err != nil {
		return err
	}

	var operation apiOperation
	if len(envelope.Metadata) > 0 {
		if err := json.Unmarshal(envelope.Metadata, &operation); err != nil {
			return remoteError("operation status is malformed", err)
		}
	}

	// 200 is success; anything else in the 4xx range surfaces the
	// operation's own error message.
	if operation.StatusCode != 0 && operation.StatusCode != http.StatusOK {
		message := operation.Err
		if message == "" {
			message = operation.Status
		}
		return classifyStatusError(operation.StatusCode, fmt.Sprintf("operation %s failed: %s", id, message))
	}
	return nil
}
