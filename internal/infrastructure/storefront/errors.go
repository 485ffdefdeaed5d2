package storefront

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	errCodeNetwork      = "NETWORK_ERROR"
	errCodeBadRequest   = "BAD_REQUEST"
	errCodeUnauthorized = "AUTH_UNAUTHORIZED"
	errCodeForbidden    = "AUTH_FORBIDDEN"
	errCodeNotFound     = "NOT_FOUND"
	errCodeConflict     = "CONFLICT"
	errCodeValidation   = "VALIDATION_FAILED"
	errCodeInternal     = "INTERNAL_ERROR"
)

// APIError 為遠端呼叫失敗的統一型別；Status 為 0 表示連線層失敗（無回應）。
type APIError struct {
	Status  int
	Code    string
	Message string
	Errors  map[string][]string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("storefront api unreachable: %s", e.Message)
	}
	return fmt.Sprintf("storefront api error (status %d %s): %s", e.Status, e.Code, e.Message)
}

// IsNetwork 檢查是否為連線層失敗（沒有收到任何回應）。
func (e *APIError) IsNetwork() bool { return e.Status == 0 }

// IsUnauthorized 檢查是否為 401。
func (e *APIError) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }

// IsValidation 檢查是否為 400/422 驗證失敗。
func (e *APIError) IsValidation() bool {
	return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
}

// IsNotFound 檢查是否為 404。
func (e *APIError) IsNotFound() bool { return e.Status == http.StatusNotFound }

// IsConflict 檢查是否為 409。
func (e *APIError) IsConflict() bool { return e.Status == http.StatusConflict }

// IsServer 檢查是否為 5xx。引擎不自動重試這類錯誤。
func (e *APIError) IsServer() bool { return e.Status >= 500 }

// AsAPIError 自錯誤鏈取出 APIError。
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func defaultCode(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return errCodeBadRequest
	case status == http.StatusUnauthorized:
		return errCodeUnauthorized
	case status == http.StatusForbidden:
		return errCodeForbidden
	case status == http.StatusNotFound:
		return errCodeNotFound
	case status == http.StatusConflict:
		return errCodeConflict
	case status == http.StatusUnprocessableEntity:
		return errCodeValidation
	case status >= 500:
		return errCodeInternal
	default:
		return errCodeBadRequest
	}
}

// parseAPIError 自錯誤回應組出 APIError；非 envelope 格式時退回純文字。
func parseAPIError(status int, raw []byte) *APIError {
	out := &APIError{Status: status, Code: defaultCode(status), Message: http.StatusText(status)}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Message != "" {
			out.Message = env.Message
		}
		if env.Code != "" {
			out.Code = env.Code
		}
		out.Errors = env.Errors
		return out
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		out.Message = msg
	}
	return out
}
