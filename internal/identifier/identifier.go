// Package identifier extracts document identifiers from HUDOC links, whose
// fragment is a URL-encoded JSON object such as {"itemid":["001-123456"]}.
package identifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Extraction failures.
var (
	ErrNoFragment        = errors.New("link has no fragment")
	ErrMalformedFragment = errors.New("fragment is not a JSON object")
	ErrMissingKey        = errors.New("identifier key not found")
)

// Extract returns the value stored under key in link's fragment. Single
// quotes are treated as double quotes since some feeds emit them.
func Extract(link, key string) (string, error) {
	_, fragment, ok := strings.Cut(link, "#")
	if !ok || strings.TrimSpace(fragment) == "" {
		return "", ErrNoFragment
	}
	decoded := strings.ReplaceAll(unescape(fragment), "'", `"`)

	var data map[string]any
	if err := json.Unmarshal([]byte(decoded), &data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedFragment, err)
	}
	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	if list, isList := raw.([]any); isList {
		if len(list) == 0 {
			return "", fmt.Errorf("%w: %q is an empty list", ErrMissingKey, key)
		}
		raw = list[0]
	}
	id, err := scalar(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrMissingKey, key, err)
	}
	return id, nil
}

// unescape decodes %XX sequences, leaving stray or invalid escapes as they are.
func unescape(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}

func scalar(v any) (string, error) {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return "", errors.New("empty value")
		}
		return val, nil
	case float64:
		return fmt.Sprintf("%v", val), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// Extractor wraps Extract with logging so callers only see an empty result.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor returns an Extractor that reports failures to logger.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// FromLink returns the identifier or "" after logging why it was not found.
func (e *Extractor) FromLink(link, key string) string {
	id, err := Extract(link, key)
	if err != nil {
		e.logger.Warn("failed to parse identifier from link",
			zap.String("link", link),
			zap.String("id_key", key),
			zap.Error(err),
		)
		return ""
	}
	return id
}
