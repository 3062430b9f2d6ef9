// Package outcome defines the sum type produced by every tool call and its
// translation into the MCP result/error contract.
package outcome

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Kind discriminates dispatch outcomes. Exactly one response is produced per
// outcome; no failure is ever silently dropped.
type Kind string

const (
	KindSuccess       Kind = "success"
	KindValidation    Kind = "validation_error"
	KindAuthorization Kind = "authorization_required"
	KindConfig        Kind = "config_error"
	KindBackend       Kind = "backend_error"
	KindTransport     Kind = "transport_error"
	KindUnknownTool   Kind = "unknown_tool"
	KindInternal      Kind = "internal_error"
)

// FieldError is one field-level validation diagnostic: a path into the
// arguments, a human-readable reason, and a machine-readable code.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Path, e.Message, e.Code)
}

// Outcome is created per call and consumed immediately by Translate; it is
// never persisted.
type Outcome struct {
	Kind     Kind
	Body     json.RawMessage
	Guidance string
	Fields   []FieldError
	Status   int
	Message  string
}

func Success(body json.RawMessage) Outcome {
	return Outcome{Kind: KindSuccess, Body: body}
}

// SuccessWithGuidance annotates a success payload with usage guidance, used
// by discoverability tools so agent callers learn the follow-up calls.
func SuccessWithGuidance(body json.RawMessage, guidance string) Outcome {
	return Outcome{Kind: KindSuccess, Body: body, Guidance: guidance}
}

func Validation(fields ...FieldError) Outcome {
	return Outcome{Kind: KindValidation, Message: "invalid tool arguments", Fields: fields}
}

func Authorization(reason string) Outcome {
	return Outcome{Kind: KindAuthorization, Message: reason}
}

func Config(message string) Outcome {
	return Outcome{Kind: KindConfig, Message: message}
}

func Backend(status int, message string) Outcome {
	return Outcome{Kind: KindBackend, Status: status, Message: message}
}

func Transport(message string) Outcome {
	return Outcome{Kind: KindTransport, Message: message}
}

func UnknownTool(name string) Outcome {
	return Outcome{Kind: KindUnknownTool, Message: fmt.Sprintf("unknown tool %q", name)}
}

func Internal(err error) Outcome {
	return Outcome{Kind: KindInternal, Message: fmt.Sprintf("internal error: %v", err)}
}

type errorBody struct {
	Code    Kind         `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

type successBody struct {
	Data  json.RawMessage `json:"data"`
	Usage string          `json:"usage"`
}

// Translate maps an outcome onto the protocol's two response shapes. Every
// failure kind becomes an in-band error result carrying a structured JSON
// body with a categorized code, so agent callers get a machine-checkable
// discriminator rather than a bare string.
func Translate(o Outcome) *mcp.CallToolResult {
	if o.Kind == KindSuccess {
		body := o.Body
		if len(body) == 0 {
			body = json.RawMessage(`null`)
		}
		if o.Guidance != "" {
			wrapped, err := json.Marshal(successBody{Data: body, Usage: o.Guidance})
			if err == nil {
				body = wrapped
			}
		}
		return mcp.NewToolResultText(string(body))
	}

	payload, err := json.Marshal(struct {
		Error errorBody `json:"error"`
	}{Error: errorBody{
		Code:    o.Kind,
		Message: o.Message,
		Status:  o.Status,
		Fields:  o.Fields,
	}})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", o.Kind, o.Message))
	}
	return mcp.NewToolResultError(string(payload))
}
