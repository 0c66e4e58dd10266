package service

import (
	"mime"
	"net/http"
	"strings"
)

const sniffLen = 512

// CheckContentType compares a declared MIME type with the type sniffed from
// the first bytes of data. It returns the sniffed type and whether the two
// are compatible. An empty declaration or an inconclusive sniff counts as
// compatible.
func CheckContentType(data []byte, declared string) (string, bool) {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	detected := baseType(http.DetectContentType(data))

	if declared == "" || detected == "application/octet-stream" {
		return detected, true
	}
	return detected, isContentTypeMatch(detected, baseType(declared))
}

func baseType(t string) string {
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(t))
}

// containers lists declared types whose payload sniffs as a generic
// container or as plain text.
var containers = map[string][]string{
	"application/json":         {"text/plain"},
	"application/xml":          {"text/xml", "text/plain"},
	"application/epub+zip":     {"application/zip"},
	"application/java-archive": {"application/zip"},

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {"application/zip"},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {"application/zip"},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {"application/zip"},
	"application/vnd.android.package-archive":                                   {"application/zip"},
}

func isContentTypeMatch(actual, declared string) bool {
	// Exact match
	if actual == declared {
		return true
	}

	// Same top-level type, e.g. image/png declared as image/jpeg
	actualPrefix, _, _ := strings.Cut(actual, "/")
	declaredPrefix, _, _ := strings.Cut(declared, "/")
	if actualPrefix == declaredPrefix {
		return true
	}

	for _, compat := range containers[declared] {
		if actual == compat {
			return true
		}
	}
	return false
}
