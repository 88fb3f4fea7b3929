package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"promptsmith/ollama"
)

var (
	// ErrNoResponse is returned when a vendor answers without usable content.
	ErrNoResponse = errors.New("no response content from model")

	// ErrMalformedResponse is returned when a vendor response is missing a
	// field it is required to carry, such as the models array of a listing.
	ErrMalformedResponse = errors.New("malformed response from provider")

	// ErrDynamicModelsUnsupported is returned by ListModels on vendors without
	// a usable model listing endpoint.
	ErrDynamicModelsUnsupported = errors.New("provider does not support dynamic model listing")

	// ErrAdapterNotFound is returned by Registry.Adapter for unknown ids.
	ErrAdapterNotFound = errors.New("adapter not found")
)

// StatusError annotates a vendor error with the HTTP status the vendor
// answered with. Unwrap returns the original SDK or transport error.
type StatusError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// annotateError wraps err in a StatusError when an HTTP status can be
// recovered from it. Errors without a status are returned unchanged.
func annotateError(err error) error {
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return err
	}

	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) && oaiErr.StatusCode != 0 {
		msg := oaiErr.Message
		if msg == "" {
			msg = vendorMessage(oaiErr.RawJSON())
		}
		return newStatusError(oaiErr.StatusCode, msg, err)
	}

	var antErr *anthropic.Error
	if errors.As(err, &antErr) && antErr.StatusCode != 0 {
		return newStatusError(antErr.StatusCode, vendorMessage(antErr.RawJSON()), err)
	}

	if code, msg := geminiStatus(err); code != 0 {
		return newStatusError(code, msg, err)
	}

	if code := ollama.StatusCode(err); code != 0 {
		return newStatusError(code, err.Error(), err)
	}

	return err
}

// geminiStatus reads the status from a genai.APIError, which the SDK may hand
// out by value or by pointer.
func geminiStatus(err error) (int, string) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, geminiMessage(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, geminiMessage(*apiErrPtr)
	}
	return 0, ""
}

func geminiMessage(e genai.APIError) string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	return http.StatusText(e.Code)
}

func newStatusError(code int, msg string, err error) *StatusError {
	if msg == "" {
		msg = err.Error()
	}
	return &StatusError{StatusCode: code, Message: msg, Err: err}
}

// vendorMessage digs the human readable message out of a vendor error body.
// Both {"error":{"message":...}} and {"message":...} shapes are accepted.
func vendorMessage(raw string) string {
	if raw == "" {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return ""
	}
	if body.Error.Message != "" {
		return body.Error.Message
	}
	return body.Message
}
