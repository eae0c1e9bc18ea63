package hiservice

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/wardle/hiservice/soap"
)

var (
	// ErrEmptyBatch means that a batch with no requests was submitted
	ErrEmptyBatch = errors.New("hiservice: empty batch")
	// ErrNoElementNames means that reference data was requested without naming any elements
	ErrNoElementNames = errors.New("hiservice: at least one element name is required")
	// ErrUnexpectedEmptyResponse means that the HI Service returned no content
	ErrUnexpectedEmptyResponse = errors.New("hiservice: unexpected empty response")
	// ErrTimeout means that the HI Service did not respond within the configured deadline
	ErrTimeout = errors.New("hiservice: timeout")
)

// Severity levels used in service messages
const (
	SeverityInformational = "Informational"
	SeverityWarning       = "Warning"
	SeverityError         = "Error"
	SeverityFatal         = "Fatal"
)

// ServiceMessage is an informational, warning or error message returned by the HI Service
type ServiceMessage struct {
	Code     string `json:"code" yaml:"code"`
	Severity string `json:"severity" yaml:"severity"`
	Reason   string `json:"reason" yaml:"reason"`
}

func (m ServiceMessage) String() string {
	return fmt.Sprintf("%s (%s): %s", m.Code, m.Severity, m.Reason)
}

// FaultError is returned when the HI Service rejects a request with a SOAP fault
type FaultError struct {
	Code            string           `json:"code" yaml:"code"`
	Reason          string           `json:"reason" yaml:"reason"`
	HighestSeverity string           `json:"highestSeverity,omitempty" yaml:"highestSeverity,omitempty"`
	Messages        []ServiceMessage `json:"serviceMessages,omitempty" yaml:"serviceMessages,omitempty"`
}

func (e *FaultError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("hiservice: fault: %s: %s", e.Code, e.Reason)
	}
	msgs := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		msgs[i] = m.String()
	}
	return fmt.Sprintf("hiservice: fault: %s: %s", e.Reason, strings.Join(msgs, "; "))
}

// newFaultError converts a SOAP fault into a FaultError, decoding any service messages in its detail
func newFaultError(fault *soap.Fault) *FaultError {
	fe := &FaultError{Code: fault.Code, Reason: fault.String}
	var sm serviceMessages
	if err := fault.DecodeDetail(&sm); err == nil {
		fe.HighestSeverity = sm.HighestSeverity
		fe.Messages = sm.toMessages()
	}
	return fe
}

// translateError converts transport errors into the errors of this package
func (app *App) translateError(err error) (string, error) {
	var fault *soap.Fault
	if errors.As(err, &fault) {
		return outcomeFault, newFaultError(fault)
	}
	if errors.Is(err, soap.ErrEmptyResponse) {
		return outcomeError, ErrUnexpectedEmptyResponse
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return outcomeTimeout, app.timeoutError()
	}
	if urlError, ok := err.(*url.Error); ok {
		if urlError.Timeout() {
			return outcomeTimeout, app.timeoutError()
		}
	}
	return outcomeError, err
}

func (app *App) timeoutError() error {
	return fmt.Errorf("%w: HI Service did not respond within deadline (%d sec)", ErrTimeout, int(app.timeout.Seconds()))
}
