// Package tools holds the canonical per-tool validation schema. The MCP
// catalog descriptors and the call-time validator are both derived from the
// same table, so the advertised schema and the enforced one cannot drift.
package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	ListServers     = "list-servers"
	GetContentTypes = "get-content-types"
	GetComponents   = "get-components"
	RestCall        = "rest-call"
	UploadMedia     = "upload-media"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindBool
	kindObject
)

type fieldSpec struct {
	name        string
	kind        fieldKind
	required    bool
	description string
	enum        []string
	min         *int
	max         *int
	defString   string
	defInt      *int
	defBool     *bool
}

type toolSpec struct {
	name        string
	description string
	readOnly    bool
	fields      []fieldSpec
}

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

var toolSpecs = []toolSpec{
	{
		name:        ListServers,
		description: "List all configured Strapi servers with their base URL and version.",
		readOnly:    true,
	},
	{
		name:        GetContentTypes,
		description: "Fetch the content-type schemas from a Strapi server. Use this first to discover collection names and attributes before calling rest-call.",
		readOnly:    true,
		fields: []fieldSpec{
			{name: "server", kind: kindString, required: true, description: "Name of the configured server"},
		},
	},
	{
		name:        GetComponents,
		description: "List the components defined on a Strapi server, paginated.",
		readOnly:    true,
		fields: []fieldSpec{
			{name: "server", kind: kindString, required: true, description: "Name of the configured server"},
			{name: "page", kind: kindInt, description: "Page number, starting at 1", min: intp(1), defInt: intp(1)},
			{name: "pageSize", kind: kindInt, description: "Items per page", min: intp(1), defInt: intp(25)},
		},
	},
	{
		name:        RestCall,
		description: "Execute a REST request against a Strapi server. GET reads are always allowed; POST, PUT and DELETE modify data and require authorized=true after explicit user confirmation.",
		fields: []fieldSpec{
			{name: "server", kind: kindString, required: true, description: "Name of the configured server"},
			{name: "endpoint", kind: kindString, required: true, description: "API path, e.g. api/articles or api/articles/1"},
			{name: "method", kind: kindString, description: "HTTP method", enum: []string{"GET", "POST", "PUT", "DELETE"}, defString: "GET"},
			{name: "params", kind: kindObject, description: "Query parameters; nested maps become Strapi bracket syntax, e.g. filters[title][$eq]=x"},
			{name: "body", kind: kindObject, description: "JSON request body for POST and PUT"},
			{name: "authorized", kind: kindBool, description: "Must be true for write methods, set only after explicit user confirmation", defBool: boolp(false)},
		},
	},
	{
		name:        UploadMedia,
		description: "Download an image from a URL, optionally convert its format, and upload it to the Strapi media library. Always a write operation: requires authorized=true after explicit user confirmation.",
		fields: []fieldSpec{
			{name: "server", kind: kindString, required: true, description: "Name of the configured server"},
			{name: "sourceUrl", kind: kindString, required: true, description: "URL of the image to fetch"},
			{name: "format", kind: kindString, description: "Target format, or original to upload unchanged", enum: []string{"jpeg", "png", "webp", "original"}, defString: "original"},
			{name: "quality", kind: kindInt, description: "Encoding quality for lossy formats", min: intp(1), max: intp(100), defInt: intp(80)},
			{name: "metadata", kind: kindObject, description: "Optional file info: name, caption, altText, description"},
			{name: "authorized", kind: kindBool, description: "Must be true, set only after explicit user confirmation", defBool: boolp(false)},
		},
	},
}

func specFor(name string) (toolSpec, bool) {
	for _, t := range toolSpecs {
		if t.name == name {
			return t, true
		}
	}
	return toolSpec{}, false
}

// Names returns the catalog's tool names in registration order.
func Names() []string {
	out := make([]string, 0, len(toolSpecs))
	for _, t := range toolSpecs {
		out = append(out, t.name)
	}
	return out
}

// Catalog derives the advertised MCP tool descriptors from the schema table.
func Catalog() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(toolSpecs))
	for _, t := range toolSpecs {
		out = append(out, buildTool(t))
	}
	return out
}

func buildTool(t toolSpec) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.description)}
	if t.readOnly {
		opts = append(opts,
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
		)
	} else {
		opts = append(opts, mcp.WithDestructiveHintAnnotation(true))
	}

	for _, f := range t.fields {
		props := []mcp.PropertyOption{}
		if f.description != "" {
			props = append(props, mcp.Description(f.description))
		}
		if f.required {
			props = append(props, mcp.Required())
		}
		switch f.kind {
		case kindString:
			if len(f.enum) > 0 {
				props = append(props, mcp.Enum(f.enum...))
			}
			if f.defString != "" {
				props = append(props, mcp.DefaultString(f.defString))
			}
			opts = append(opts, mcp.WithString(f.name, props...))
		case kindInt:
			if f.min != nil {
				props = append(props, mcp.Min(float64(*f.min)))
			}
			if f.max != nil {
				props = append(props, mcp.Max(float64(*f.max)))
			}
			if f.defInt != nil {
				props = append(props, mcp.DefaultNumber(float64(*f.defInt)))
			}
			opts = append(opts, mcp.WithNumber(f.name, props...))
		case kindBool:
			if f.defBool != nil {
				props = append(props, mcp.DefaultBool(*f.defBool))
			}
			opts = append(opts, mcp.WithBoolean(f.name, props...))
		case kindObject:
			opts = append(opts, mcp.WithObject(f.name, props...))
		}
	}

	return mcp.NewTool(t.name, opts...)
}
