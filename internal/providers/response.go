package providers

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// firstOf returns the first existing field among names.
func firstOf(r gjson.Result, names ...string) gjson.Result {
	for _, n := range names {
		if v := r.Get(n); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// extractImage returns the first inline part of candidates[0] whose media
// type starts with image/. camelCase and snake_case field names are both
// accepted.
func extractImage(body []byte) ([]byte, string, bool) {
	parts := gjson.GetBytes(body, "candidates.0.content.parts")
	if !parts.IsArray() {
		return nil, "", false
	}
	for _, part := range parts.Array() {
		inline := firstOf(part, "inlineData", "inline_data")
		if !inline.Exists() {
			continue
		}
		mime := firstOf(inline, "mimeType", "mime_type").String()
		data := inline.Get("data").String()
		if !strings.HasPrefix(mime, "image/") || data == "" {
			continue
		}
		img, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			continue
		}
		return img, mime, true
	}
	return nil, "", false
}

// responseText joins text parts, used to explain image-less answers.
func responseText(body []byte) string {
	var sb strings.Builder
	gjson.GetBytes(body, "candidates.0.content.parts.#.text").ForEach(func(_, v gjson.Result) bool {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(v.String())
		return true
	})
	return truncate(sb.String(), 200)
}

// errorMessage pulls error.status and error.message out of a failed response.
func errorMessage(body []byte, status int) string {
	st := gjson.GetBytes(body, "error.status").String()
	msg := gjson.GetBytes(body, "error.message").String()
	switch {
	case st != "" && msg != "":
		return st + ": " + msg
	case msg != "":
		return msg
	case st != "":
		return st
	}
	if s := strings.TrimSpace(string(body)); s != "" && !gjson.ValidBytes(body) {
		return fmt.Sprintf("HTTP %d: %s", status, truncate(s, 200))
	}
	return fmt.Sprintf("HTTP %d", status)
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
