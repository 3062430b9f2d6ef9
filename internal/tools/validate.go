package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/cms-mcp/strapi-mcp/internal/outcome"
	"github.com/cms-mcp/strapi-mcp/internal/policy"
)

// Validated request variants. Defaults are already applied; a request value
// only exists for input that passed the full schema.

type ListServersRequest struct{}

type GetContentTypesRequest struct {
	Server string
}

type GetComponentsRequest struct {
	Server   string
	Page     int
	PageSize int
}

type RestCallRequest struct {
	Server     string
	Endpoint   string
	Method     string
	Params     map[string]any
	Body       map[string]any
	Authorized bool
}

type MediaMetadata struct {
	Name        string
	Caption     string
	AltText     string
	Description string
}

type UploadMediaRequest struct {
	Server     string
	SourceURL  string
	Format     string
	Quality    int
	Metadata   *MediaMetadata
	Authorized bool
}

// ValidationError aggregates field-level diagnostics. It is an outcome
// value, not a fault: the dispatcher reports it and carries on.
type ValidationError struct {
	Fields []outcome.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return "invalid tool arguments: " + strings.Join(parts, "; ")
}

// ErrUnknownTool reports a dispatch request for a name outside the catalog.
type ErrUnknownTool struct {
	Name string
}

func (e *ErrUnknownTool) Error() string { return fmt.Sprintf("unknown tool %q", e.Name) }

// Validate parses raw, loosely typed arguments for the named tool into its
// typed, normalized request. Numeric-looking strings coerce to integers and
// "true"/"false" to booleans; unknown extra fields are rejected so argument
// typos never pass silently. The cross-field authorization precondition is
// checked here too, before any network call can happen, and reported as a
// *policy.Error.
func Validate(name string, raw map[string]any) (any, error) {
	spec, ok := specFor(name)
	if !ok {
		return nil, &ErrUnknownTool{Name: name}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	values, fieldErrs := checkFields(spec, raw)
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	switch spec.name {
	case ListServers:
		return &ListServersRequest{}, nil

	case GetContentTypes:
		return &GetContentTypesRequest{Server: values["server"].(string)}, nil

	case GetComponents:
		return &GetComponentsRequest{
			Server:   values["server"].(string),
			Page:     values["page"].(int),
			PageSize: values["pageSize"].(int),
		}, nil

	case RestCall:
		req := &RestCallRequest{
			Server:     values["server"].(string),
			Endpoint:   values["endpoint"].(string),
			Method:     strings.ToUpper(values["method"].(string)),
			Authorized: values["authorized"].(bool),
		}
		if m, ok := values["params"]; ok {
			req.Params = m.(map[string]any)
		}
		if m, ok := values["body"]; ok {
			req.Body = m.(map[string]any)
		}
		if err := policy.RequireRestAuthorization(req.Method, req.Authorized); err != nil {
			return nil, err
		}
		return req, nil

	case UploadMedia:
		req := &UploadMediaRequest{
			Server:     values["server"].(string),
			SourceURL:  values["sourceUrl"].(string),
			Format:     strings.ToLower(values["format"].(string)),
			Quality:    values["quality"].(int),
			Authorized: values["authorized"].(bool),
		}
		if parsed, err := url.Parse(req.SourceURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, &ValidationError{Fields: []outcome.FieldError{{
				Path: "sourceUrl", Message: "must be a valid absolute URL", Code: "custom",
			}}}
		}
		if m, ok := values["metadata"]; ok {
			meta, metaErrs := parseMetadata(m.(map[string]any))
			if len(metaErrs) > 0 {
				return nil, &ValidationError{Fields: metaErrs}
			}
			req.Metadata = meta
		}
		if err := policy.RequireUploadAuthorization(req.Authorized); err != nil {
			return nil, err
		}
		return req, nil
	}
	return nil, &ErrUnknownTool{Name: name}
}

// checkFields runs the per-field pass: presence, coercion, enum and range
// checks, strict unknown-field rejection, then defaults for absent optional
// fields. Defaults are applied only on an otherwise successful pass.
func checkFields(spec toolSpec, raw map[string]any) (map[string]any, []outcome.FieldError) {
	values := map[string]any{}
	var errs []outcome.FieldError

	known := map[string]fieldSpec{}
	for _, f := range spec.fields {
		known[f.name] = f
	}

	extra := []string{}
	for key := range raw {
		if _, ok := known[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		errs = append(errs, outcome.FieldError{
			Path:    key,
			Message: fmt.Sprintf("unrecognized field %q", key),
			Code:    "unrecognized_keys",
		})
	}

	for _, f := range spec.fields {
		rawValue, present := raw[f.name]
		if !present || rawValue == nil {
			if f.required {
				errs = append(errs, outcome.FieldError{Path: f.name, Message: "required", Code: "invalid_type"})
				continue
			}
			switch f.kind {
			case kindString:
				if f.defString != "" {
					values[f.name] = f.defString
				}
			case kindInt:
				if f.defInt != nil {
					values[f.name] = *f.defInt
				}
			case kindBool:
				if f.defBool != nil {
					values[f.name] = *f.defBool
				}
			}
			continue
		}

		switch f.kind {
		case kindString:
			s, ok := coerceString(rawValue)
			if !ok {
				errs = append(errs, outcome.FieldError{Path: f.name, Message: "expected a string", Code: "invalid_type"})
				continue
			}
			if f.required && strings.TrimSpace(s) == "" {
				errs = append(errs, outcome.FieldError{Path: f.name, Message: "must not be empty", Code: "too_small"})
				continue
			}
			if len(f.enum) > 0 && !inEnum(f.enum, s) {
				errs = append(errs, outcome.FieldError{
					Path:    f.name,
					Message: fmt.Sprintf("must be one of: %s", strings.Join(f.enum, ", ")),
					Code:    "custom",
				})
				continue
			}
			values[f.name] = s

		case kindInt:
			n, ok := coerceInt(rawValue)
			if !ok {
				errs = append(errs, outcome.FieldError{Path: f.name, Message: "must be a positive integer", Code: "custom"})
				continue
			}
			if f.min != nil && n < *f.min {
				errs = append(errs, outcome.FieldError{
					Path: f.name, Message: fmt.Sprintf("must be at least %d", *f.min), Code: "too_small",
				})
				continue
			}
			if f.max != nil && n > *f.max {
				errs = append(errs, outcome.FieldError{
					Path: f.name, Message: fmt.Sprintf("must be at most %d", *f.max), Code: "too_big",
				})
				continue
			}
			values[f.name] = n

		case kindBool:
			b, ok := coerceBool(rawValue)
			if !ok {
				errs = append(errs, outcome.FieldError{Path: f.name, Message: "expected a boolean", Code: "invalid_type"})
				continue
			}
			values[f.name] = b

		case kindObject:
			m, ok := rawValue.(map[string]any)
			if !ok {
				errs = append(errs, outcome.FieldError{Path: f.name, Message: "expected an object", Code: "invalid_type"})
				continue
			}
			values[f.name] = m
		}
	}

	return values, errs
}

var metadataKeys = map[string]struct{}{
	"name": {}, "caption": {}, "altText": {}, "description": {},
}

func parseMetadata(raw map[string]any) (*MediaMetadata, []outcome.FieldError) {
	var errs []outcome.FieldError
	meta := &MediaMetadata{}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, ok := metadataKeys[key]; !ok {
			errs = append(errs, outcome.FieldError{
				Path:    "metadata." + key,
				Message: fmt.Sprintf("unrecognized field %q", key),
				Code:    "unrecognized_keys",
			})
			continue
		}
		s, ok := coerceString(raw[key])
		if !ok {
			errs = append(errs, outcome.FieldError{
				Path: "metadata." + key, Message: "expected a string", Code: "invalid_type",
			})
			continue
		}
		switch key {
		case "name":
			meta.Name = s
		case "caption":
			meta.Caption = s
		case "altText":
			meta.AltText = s
		case "description":
			meta.Description = s
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return meta, nil
}

func inEnum(enum []string, v string) bool {
	for _, e := range enum {
		if strings.EqualFold(e, v) {
			return true
		}
	}
	return false
}

func coerceString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func coerceInt(v any) (int, bool) {
	switch typed := v.(type) {
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case float64:
		if typed != math.Trunc(typed) {
			return 0, false
		}
		return int(typed), true
	case json.Number:
		n, err := typed.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func coerceBool(v any) (bool, bool) {
	switch typed := v.(type) {
	case bool:
		return typed, true
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}
