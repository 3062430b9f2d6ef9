package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogAdvertisesEveryTool(t *testing.T) {
	t.Parallel()

	catalog := Catalog()
	require.Len(t, catalog, len(Names()))
	for i, name := range Names() {
		require.Equal(t, name, catalog[i].Name)
		require.NotEmpty(t, catalog[i].Description)
	}
}

func TestCatalogSchemaMatchesValidator(t *testing.T) {
	t.Parallel()

	var restCall map[string]any
	for _, tool := range Catalog() {
		if tool.Name != RestCall {
			continue
		}
		data, err := json.Marshal(tool)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &restCall))
	}
	require.NotNil(t, restCall)

	schema := restCall["inputSchema"].(map[string]any)
	props := schema["properties"].(map[string]any)

	for _, field := range []string{"server", "endpoint", "method", "params", "body", "authorized"} {
		require.Contains(t, props, field)
	}

	method := props["method"].(map[string]any)
	require.ElementsMatch(t, []any{"GET", "POST", "PUT", "DELETE"}, method["enum"])
	require.Equal(t, "GET", method["default"])

	required := schema["required"].([]any)
	require.ElementsMatch(t, []any{"server", "endpoint"}, required)
}

func TestCatalogAnnotations(t *testing.T) {
	t.Parallel()

	for _, tool := range Catalog() {
		ann := tool.Annotations
		switch tool.Name {
		case ListServers, GetContentTypes, GetComponents:
			require.NotNil(t, ann.ReadOnlyHint, tool.Name)
			require.True(t, *ann.ReadOnlyHint, tool.Name)
		case RestCall, UploadMedia:
			require.NotNil(t, ann.DestructiveHint, tool.Name)
			require.True(t, *ann.DestructiveHint, tool.Name)
		}
	}
}
