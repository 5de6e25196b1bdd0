package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
)

// RemoteError is the error body returned by a JSON API: either the
// {"error":{"code","message"}} envelope or a flat {"code","message"} object.
type RemoteError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (r RemoteError) codeAndMessage() (string, string, bool) {
	if r.Error != nil {
		return r.Error.Code, r.Error.Message, true
	}
	if r.Code != "" || r.Message != "" {
		return r.Code, r.Message, true
	}
	return "", "", false
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// translates it into an AppError carrying the remote code and message.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", serviceName, resp.StatusCode, err)
	}

	var remote RemoteError
	if json.Unmarshal(body, &remote) == nil {
		if code, message, ok := remote.codeAndMessage(); ok {
			return mapRemoteError(resp.StatusCode, code, message, serviceName)
		}
	}

	return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, string(body))
}

func mapRemoteError(status int, code, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apperrors.Internal(fmt.Errorf("%w: %s rejected credentials (%d/%s)", apperrors.ErrInternal, serviceName, status, code))
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName, message)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusPaymentRequired, status == http.StatusUnprocessableEntity:
		return apperrors.PaymentFailed(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.Unavailable(qualified, fmt.Errorf("remote code %s", code))
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", serviceName, status, code, message)
	default:
		return &apperrors.AppError{Code: code, Message: qualified, Status: status}
	}
}

// IsSuccess reports whether status is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
