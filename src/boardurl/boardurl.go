package boardurl

import (
	"net/url"

	"git.gdb.dev/gdb/board/src/config"
)

var baseUrl = config.Config.BaseUrl

// SetGlobalBaseUrl changes the origin every Build function uses. Tests and
// the website command call it.
func SetGlobalBaseUrl(u string) {
	baseUrl = u
}

type Q struct {
	Name  string
	Value string
}

func Url(path string, query []Q) string {
	result := baseUrl + "/" + trim(path)
	if q := encodeQuery(query); q != "" {
		result += "?" + q
	}
	return result
}

func trim(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}
	return path
}

func encodeQuery(query []Q) string {
	result := url.Values{}
	for _, q := range query {
		if q.Value == "" {
			continue
		}
		result.Set(q.Name, q.Value)
	}
	return result.Encode()
}
