package contract

import (
	"errors"

	"github.com/alexanderramin/caseflow/internal/domain"
)

// CodeInternal is reported for failures that are not engine errors.
const CodeInternal = "INTERNAL"

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewErrorEnvelope describes err for a client. Non-engine failures are
// reported as INTERNAL without their details.
func NewErrorEnvelope(err error) ErrorEnvelope {
	var e *domain.Error
	if errors.As(err, &e) {
		msg := e.Message
		if msg == "" {
			msg = string(e.Code)
		}
		return ErrorEnvelope{Error: APIError{Code: string(e.Code), Message: msg, Reason: string(e.Reason)}}
	}
	return ErrorEnvelope{Error: APIError{Code: CodeInternal, Message: "internal error"}}
}
