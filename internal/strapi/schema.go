package strapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/cms-mcp/strapi-mcp/internal/config"
	"github.com/cms-mcp/strapi-mcp/internal/outcome"
)

// CheckWriteBody is the best-effort secondary validation stage for write
// bodies: it fetches the target collection's content-type schema and
// reports required attributes missing from the body. The policy is fail
// open — never block a call on introspection failure — so every error path
// degrades to no warnings.
func (c *Client) CheckWriteBody(ctx context.Context, profile config.Profile, endpoint string, body map[string]any) []string {
	collection := collectionFromEndpoint(endpoint)
	if collection == "" || body == nil {
		return nil
	}

	res := c.ContentTypes(ctx, profile)
	if res.Kind != outcome.KindSuccess {
		c.logger.Debug().Str("collection", collection).Msg("schema introspection unavailable, skipping write-body check")
		return nil
	}

	required, ok := requiredAttributes(res.Body, collection)
	if !ok {
		return nil
	}

	attrs := body
	if data, isMap := body["data"].(map[string]any); isMap {
		attrs = data
	}

	var warnings []string
	for _, name := range required {
		if _, present := attrs[name]; !present {
			warnings = append(warnings, fmt.Sprintf("required attribute %q is missing from the body", name))
		}
	}
	return warnings
}

// collectionFromEndpoint extracts the plural collection name from paths
// like api/articles or api/articles/1.
func collectionFromEndpoint(endpoint string) string {
	parts := strings.Split(strings.Trim(strings.TrimSpace(endpoint), "/"), "/")
	if len(parts) < 2 || parts[0] != "api" {
		return ""
	}
	return parts[1]
}

func requiredAttributes(contentTypes json.RawMessage, collection string) ([]string, bool) {
	var parsed struct {
		Data []struct {
			Schema struct {
				PluralName string `json:"pluralName"`
				Attributes map[string]struct {
					Required bool `json:"required"`
				} `json:"attributes"`
			} `json:"schema"`
		} `json:"data"`
	}
	if err := json.Unmarshal(contentTypes, &parsed); err != nil {
		return nil, false
	}
	for _, ct := range parsed.Data {
		if ct.Schema.PluralName != collection {
			continue
		}
		var required []string
		for name, attr := range ct.Schema.Attributes {
			if attr.Required {
				required = append(required, name)
			}
		}
		sort.Strings(required)
		return required, true
	}
	return nil, false
}

// Rest runs a rest-call: for writes, the fail-open body check runs first
// and its findings are logged, then exactly one backend request is issued.
func (c *Client) Rest(ctx context.Context, profile config.Profile, method, endpoint string, params, body map[string]any) outcome.Outcome {
	if body != nil && (method == http.MethodPost || method == http.MethodPut) {
		for _, warning := range c.CheckWriteBody(ctx, profile, endpoint, body) {
			c.logger.Warn().Str("endpoint", endpoint).Msg(warning)
		}
	}
	return c.Do(ctx, profile, method, endpoint, params, body)
}
