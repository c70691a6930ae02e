package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/SashaVektor/apple-store-clone/pkg/errors"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 1 << 20

// upstreamErrorBody covers the two shapes upstream APIs use for errors: our
// own envelope ({"error":{"code","message"}}) and Sanity's
// ({"error":{"description","type"}}).
type upstreamErrorBody struct {
	Error *struct {
		Code        string `json:"code"`
		Message     string `json:"message"`
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"error"`
}

// ParseResponseError consumes and closes a non-2xx response and translates
// it into an AppError named after the upstream service.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var upstream upstreamErrorBody
	if json.Unmarshal(bodyBytes, &upstream) == nil && upstream.Error != nil {
		code, message := upstream.Error.Code, upstream.Error.Message
		if code == "" {
			code = upstream.Error.Type
		}
		if message == "" {
			message = upstream.Error.Description
		}
		return mapUpstreamError(resp.StatusCode, code, message, serviceName)
	}

	return mapUpstreamError(resp.StatusCode, "", string(bodyBytes), serviceName)
}

func mapUpstreamError(status int, code, message, serviceName string) error {
	qualifiedMsg := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualifiedMsg)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualifiedMsg)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		// Credentials for an upstream are our misconfiguration, not the caller's.
		return fmt.Errorf("%s rejected credentials (%d): %s", serviceName, status, message)
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualifiedMsg)
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", serviceName, status, code, message)
	default:
		return fmt.Errorf("%s returned status %d (%s): %s", serviceName, status, code, message)
	}
}
