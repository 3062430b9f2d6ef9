// Package server wires the tool catalog, validator, authorization gate,
// registry and backend dispatcher into an MCP server.
package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/cms-mcp/strapi-mcp/internal/media"
	"github.com/cms-mcp/strapi-mcp/internal/outcome"
	"github.com/cms-mcp/strapi-mcp/internal/policy"
	"github.com/cms-mcp/strapi-mcp/internal/registry"
	"github.com/cms-mcp/strapi-mcp/internal/strapi"
	"github.com/cms-mcp/strapi-mcp/internal/tools"
	"github.com/cms-mcp/strapi-mcp/internal/track"
)

const contentTypesGuidance = "Each content type's schema.pluralName is the collection segment for rest-call endpoints (api/<pluralName>). Check an attribute's required flag before writing."

const listServersGuidance = "Pass a server name to get-content-types to discover its collections before calling rest-call."

// Server handles one tool call at a time per request goroutine; calls are
// fully independent and share only read-only state.
type Server struct {
	registry *registry.Registry
	client   *strapi.Client
	pipeline *media.Pipeline
	tracker  *track.Tracker
	logger   zerolog.Logger
	mcp      *mcpserver.MCPServer
}

func New(reg *registry.Registry, client *strapi.Client, pipeline *media.Pipeline, tracker *track.Tracker, version string, logger zerolog.Logger) *Server {
	s := &Server{
		registry: reg,
		client:   client,
		pipeline: pipeline,
		tracker:  tracker,
		logger:   logger.With().Str("component", "server").Logger(),
	}

	m := mcpserver.NewMCPServer(
		"strapi-mcp",
		version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)
	for _, tool := range tools.Catalog() {
		m.AddTool(tool, s.handler(tool.Name))
	}
	s.mcp = m
	return s
}

// Run serves MCP over stdio until the transport closes. Failure to start the
// transport is the only fatal condition in the process.
func (s *Server) Run() error {
	return mcpserver.ServeStdio(s.mcp)
}

func (s *Server) handler(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return outcome.Translate(s.Dispatch(ctx, name, request.GetArguments())), nil
	}
}

// Dispatch runs the full decision pipeline for one call: validate, gate,
// resolve, dispatch, and classify. Every error is converted to an outcome
// here; nothing propagates out to crash the transport.
func (s *Server) Dispatch(ctx context.Context, name string, args map[string]any) outcome.Outcome {
	lc := s.tracker.Begin(name, stringArg(args, "server"))
	res := s.dispatch(ctx, name, args)
	s.tracker.End(lc, string(res.Kind))
	if res.Kind != outcome.KindSuccess {
		s.logger.Debug().
			Str("tool", name).
			Str("outcome", string(res.Kind)).
			Str("detail", s.tracker.Sanitize(res.Message)).
			Msg("tool call did not succeed")
	}
	return res
}

func (s *Server) dispatch(ctx context.Context, name string, args map[string]any) outcome.Outcome {
	req, err := tools.Validate(name, args)
	if err != nil {
		return classify(err)
	}

	switch typed := req.(type) {
	case *tools.ListServersRequest:
		return s.listServers()

	case *tools.GetContentTypesRequest:
		profile, err := s.registry.Resolve(typed.Server)
		if err != nil {
			return classify(err)
		}
		res := s.client.ContentTypes(ctx, profile)
		if res.Kind == outcome.KindSuccess {
			res.Guidance = contentTypesGuidance
		}
		return res

	case *tools.GetComponentsRequest:
		profile, err := s.registry.Resolve(typed.Server)
		if err != nil {
			return classify(err)
		}
		return s.client.Components(ctx, profile, typed.Page, typed.PageSize)

	case *tools.RestCallRequest:
		profile, err := s.registry.Resolve(typed.Server)
		if err != nil {
			return classify(err)
		}
		return s.client.Rest(ctx, profile, typed.Method, typed.Endpoint, typed.Params, typed.Body)

	case *tools.UploadMediaRequest:
		profile, err := s.registry.Resolve(typed.Server)
		if err != nil {
			return classify(err)
		}
		return s.pipeline.UploadFromURL(ctx, profile, typed)
	}

	return outcome.UnknownTool(name)
}

func (s *Server) listServers() outcome.Outcome {
	profiles := s.registry.List()
	entries := make([]map[string]string, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, map[string]string{
			"name":    p.Name,
			"api_url": p.BaseURL,
			"version": p.Version,
		})
	}
	body, err := json.Marshal(map[string]any{"servers": entries})
	if err != nil {
		return outcome.Internal(err)
	}
	guidance := listServersGuidance
	if len(profiles) == 0 {
		guidance = "No servers are configured. Create " + s.registry.ConfigPath() + " mapping server names to {api_url, api_key, version}."
	}
	return outcome.SuccessWithGuidance(body, guidance)
}

// classify maps the typed errors of the lower layers onto outcome kinds.
func classify(err error) outcome.Outcome {
	var validationErr *tools.ValidationError
	if errors.As(err, &validationErr) {
		return outcome.Validation(validationErr.Fields...)
	}
	var authErr *policy.Error
	if errors.As(err, &authErr) {
		return outcome.Authorization(authErr.Reason)
	}
	var configErr *registry.ConfigError
	if errors.As(err, &configErr) {
		return outcome.Config(configErr.Error())
	}
	var unknownErr *tools.ErrUnknownTool
	if errors.As(err, &unknownErr) {
		return outcome.UnknownTool(unknownErr.Name)
	}
	return outcome.Internal(err)
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}
