package vtuapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/datapadi/web/internal/domain/shared"
)

// envelope is the common response shape of the backend
type envelope struct {
	Success       *bool           `json:"success,omitempty"`
	Message       string          `json:"message,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
	Pagination    json.RawMessage `json:"pagination,omitempty"`
	TransactionID string          `json:"transactionId,omitempty"`
	Token         string          `json:"token,omitempty"`
	User          json.RawMessage `json:"user,omitempty"`
	PaymentLink   string          `json:"paymentLink,omitempty"`
	CustomerName  string          `json:"customerName,omitempty"`
}

func decodeEnvelope(body []byte) (*envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &envelope{}, nil
	}
	if trimmed[0] != '{' {
		return nil, decodeError("response is not a JSON object")
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, decodeError(err.Error())
	}
	return &env, nil
}

// decodeInto unmarshals a payload. A missing payload and a payload of the
// wrong shape are both decode failures.
func decodeInto(raw json.RawMessage, what string, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return decodeError(what + " missing from response")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return decodeError(fmt.Sprintf("%s: %v", what, err))
	}
	return nil
}

func decodeError(detail string) *shared.DomainError {
	return shared.NewDomainError(shared.CodeDecodeFailed, "Unexpected response from backend: "+detail)
}

func statusError(status int, message string) *shared.DomainError {
	if status == http.StatusUnauthorized {
		if message == "" {
			message = "Session expired, please sign in again"
		}
		return shared.NewDomainError(shared.CodeUnauthorized, message)
	}
	if status == http.StatusNotFound {
		if message == "" {
			message = "Resource not found"
		}
		return shared.NewDomainError(shared.CodeNotFound, message)
	}
	if message == "" {
		message = fmt.Sprintf("Backend request failed with status %d", status)
	}
	return shared.NewDomainError(shared.CodeUpstreamFailed, message)
}
