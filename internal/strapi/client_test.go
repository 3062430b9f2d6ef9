package strapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cms-mcp/strapi-mcp/internal/config"
	"github.com/cms-mcp/strapi-mcp/internal/outcome"
)

func testProfile(baseURL string) config.Profile {
	return config.Profile{Name: "prod", BaseURL: baseURL, APIKey: "t1", Version: "v4"}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(&http.Client{}, zerolog.Nop())
}

func TestContentTypesSendsBearerAuth(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	res := newTestClient(t).ContentTypes(context.Background(), testProfile(srv.URL))
	require.Equal(t, outcome.KindSuccess, res.Kind)
	require.JSONEq(t, `{"data":[]}`, string(res.Body))
	require.Equal(t, "/api/content-type-builder/content-types", gotPath)
	require.Equal(t, "Bearer t1", gotAuth)
}

func TestDoEncodesNestedQuery(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	params := map[string]any{"filters": map[string]any{"title": map[string]any{"$eq": "x"}}}
	res := newTestClient(t).Do(context.Background(), testProfile(srv.URL), http.MethodGet, "api/articles", params, nil)
	require.Equal(t, outcome.KindSuccess, res.Kind)
	require.Equal(t, "filters%5Btitle%5D%5B%24eq%5D=x", gotQuery)
}

func TestDoSendsBodyOnlyForWrites(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		fmt.Fprint(w, `{"data":{"id":1}}`)
	}))
	defer srv.Close()

	client := newTestClient(t)
	body := map[string]any{"data": map[string]any{"title": "x"}}

	res := client.Do(context.Background(), testProfile(srv.URL), http.MethodPost, "api/articles", nil, body)
	require.Equal(t, outcome.KindSuccess, res.Kind)
	require.JSONEq(t, `{"data":{"title":"x"}}`, string(gotBody))
	require.Equal(t, "application/json", gotContentType)

	res = client.Do(context.Background(), testProfile(srv.URL), http.MethodGet, "api/articles", nil, body)
	require.Equal(t, outcome.KindSuccess, res.Kind)
	require.Empty(t, gotBody, "a GET never carries a body")
	require.Empty(t, gotContentType)
}

func TestDoBackendFailureCarriesStatusAndDetail(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"name":"NotFoundError","message":"Not Found"}}`)
	}))
	defer srv.Close()

	res := newTestClient(t).Do(context.Background(), testProfile(srv.URL), http.MethodDelete, "api/articles/999", nil, nil)
	require.Equal(t, outcome.KindBackend, res.Kind)
	require.Equal(t, 404, res.Status)
	require.Contains(t, res.Message, "404")
	require.Contains(t, res.Message, "Not Found")
	require.Contains(t, res.Message, "get-content-types", "404 hint points at schema discovery")
}

func TestDoBackendFailureFallsBackToStatusLine(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream exploded")
	}))
	defer srv.Close()

	res := newTestClient(t).Do(context.Background(), testProfile(srv.URL), http.MethodGet, "api/articles", nil, nil)
	require.Equal(t, outcome.KindBackend, res.Kind)
	require.Equal(t, 502, res.Status)
	require.Contains(t, res.Message, "502")
}

func TestDoTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	res := newTestClient(t).Do(context.Background(), testProfile(srv.URL), http.MethodGet, "api/articles", nil, nil)
	require.Equal(t, outcome.KindTransport, res.Kind)
	require.Contains(t, res.Message, "prod")
}

func TestDoEmptySuccessBodyIsNull(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	res := newTestClient(t).Do(context.Background(), testProfile(srv.URL), http.MethodDelete, "api/articles/1", nil, nil)
	require.Equal(t, outcome.KindSuccess, res.Kind)
	require.Equal(t, "null", string(res.Body))
}

func TestDoNonJSONSuccessBodyIsStringified(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "pong")
	}))
	defer srv.Close()

	res := newTestClient(t).Do(context.Background(), testProfile(srv.URL), http.MethodGet, "api/ping", nil, nil)
	require.Equal(t, outcome.KindSuccess, res.Kind)
	require.Equal(t, `"pong"`, string(res.Body))
}

func componentsFixture(n int) string {
	items := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, map[string]any{"uid": fmt.Sprintf("shared.comp-%02d", i)})
	}
	data, _ := json.Marshal(map[string]any{"data": items})
	return string(data)
}

func TestComponentsPaginatesClientSide(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/content-type-builder/components", r.URL.Path)
		fmt.Fprint(w, componentsFixture(35))
	}))
	defer srv.Close()

	res := newTestClient(t).Components(context.Background(), testProfile(srv.URL), 2, 10)
	require.Equal(t, outcome.KindSuccess, res.Kind)

	var page struct {
		Data       []map[string]any `json:"data"`
		Pagination struct {
			Page      int `json:"page"`
			PageSize  int `json:"pageSize"`
			Total     int `json:"total"`
			PageCount int `json:"pageCount"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(res.Body, &page))
	require.Len(t, page.Data, 10)
	require.Equal(t, "shared.comp-10", page.Data[0]["uid"])
	require.Equal(t, 2, page.Pagination.Page)
	require.Equal(t, 10, page.Pagination.PageSize)
	require.Equal(t, 35, page.Pagination.Total)
	require.Equal(t, 4, page.Pagination.PageCount)
}

func TestComponentsPageBeyondEnd(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, componentsFixture(5))
	}))
	defer srv.Close()

	res := newTestClient(t).Components(context.Background(), testProfile(srv.URL), 9, 10)
	require.Equal(t, outcome.KindSuccess, res.Kind)

	var page struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body, &page))
	require.Empty(t, page.Data)
}

func TestComponentsAcceptsBareArray(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"uid":"shared.seo"}]`)
	}))
	defer srv.Close()

	res := newTestClient(t).Components(context.Background(), testProfile(srv.URL), 1, 25)
	require.Equal(t, outcome.KindSuccess, res.Kind)

	var page struct {
		Data       []map[string]any `json:"data"`
		Pagination struct{ Total int }
	}
	require.NoError(t, json.Unmarshal(res.Body, &page))
	require.Len(t, page.Data, 1)
}

func TestUploadBuildsMultipartForm(t *testing.T) {
	t.Parallel()

	var gotFilename, gotFileInfo string
	var gotBytes []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotBytes, _ = io.ReadAll(file)
		gotFileInfo = r.FormValue("fileInfo")
		fmt.Fprint(w, `[{"id":7,"name":"hero.jpg"}]`)
	}))
	defer srv.Close()

	info := map[string]any{"name": "hero.jpg", "alternativeText": "A hero"}
	res := newTestClient(t).Upload(context.Background(), testProfile(srv.URL), "hero.jpg", []byte{0xff, 0xd8}, info)
	require.Equal(t, outcome.KindSuccess, res.Kind)
	require.Equal(t, "hero.jpg", gotFilename)
	require.Equal(t, []byte{0xff, 0xd8}, gotBytes)
	require.JSONEq(t, `{"name":"hero.jpg","alternativeText":"A hero"}`, gotFileInfo)
}

func TestFetchRejectsNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, _, err := newTestClient(t).Fetch(context.Background(), srv.URL+"/img.png")
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestFetchReturnsBytesAndContentType(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	data, ct, err := newTestClient(t).Fetch(context.Background(), srv.URL+"/img.png")
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), data)
	require.Equal(t, "image/png", ct)
}
