package strapi

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeQueryBracketSyntax(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{
			name:   "empty",
			params: nil,
			want:   "",
		},
		{
			name:   "flat scalar",
			params: map[string]any{"locale": "en"},
			want:   "locale=en",
		},
		{
			name:   "nested filter",
			params: map[string]any{"filters": map[string]any{"title": map[string]any{"$eq": "x"}}},
			want:   "filters[title][$eq]=x",
		},
		{
			name:   "array indices",
			params: map[string]any{"populate": []any{"author", "cover"}},
			want:   "populate[0]=author&populate[1]=cover",
		},
		{
			name:   "numeric and boolean values",
			params: map[string]any{"pagination": map[string]any{"page": float64(2)}, "publicationState": true},
			want:   "pagination[page]=2&publicationState=true",
		},
		{
			name: "keys sorted deterministically",
			params: map[string]any{
				"sort":    []any{"createdAt:desc"},
				"fields":  []any{"title"},
				"filters": map[string]any{"slug": map[string]any{"$eq": "a"}},
			},
			want: "fields[0]=title&filters[slug][$eq]=a&sort[0]=createdAt:desc",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := EncodeQuery(tc.params)
			decoded, err := url.QueryUnescape(got)
			require.NoError(t, err)
			require.Equal(t, tc.want, decoded)
		})
	}
}

func TestEncodeQueryEscapesReservedCharacters(t *testing.T) {
	t.Parallel()

	got := EncodeQuery(map[string]any{"filters": map[string]any{"title": map[string]any{"$eq": "a&b=c"}}})
	require.Equal(t, "filters%5Btitle%5D%5B%24eq%5D=a%26b%3Dc", got)
}

func TestEncodeQueryStable(t *testing.T) {
	t.Parallel()

	params := map[string]any{"b": "2", "a": "1", "c": map[string]any{"y": "4", "x": "3"}}
	first := EncodeQuery(params)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, EncodeQuery(params))
	}
}
