package strapi

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// EncodeQuery serializes a structured params map into Strapi's nested
// bracket syntax: {"filters":{"title":{"$eq":"x"}}} becomes
// filters[title][$eq]=x and {"populate":["author"]} becomes
// populate[0]=author. Flat JSON-stringification would not round-trip
// through Strapi's query parser, which expects this nesting.
func EncodeQuery(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(params))
	flattenMap("", params, func(key, value string) {
		pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(value))
	})
	return strings.Join(pairs, "&")
}

func flattenMap(prefix string, m map[string]any, emit func(key, value string)) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "[" + k + "]"
		}
		flattenValue(key, m[k], emit)
	}
}

func flattenValue(key string, v any, emit func(key, value string)) {
	switch typed := v.(type) {
	case map[string]any:
		flattenMap(key, typed, emit)
	case []any:
		for i, item := range typed {
			flattenValue(fmt.Sprintf("%s[%d]", key, i), item, emit)
		}
	case nil:
		emit(key, "")
	case string:
		emit(key, typed)
	default:
		emit(key, fmt.Sprintf("%v", typed))
	}
}
