package config

import (
	"sort"
	"strings"
)

// enumNormalizer maps loosely written input (case, surrounding space,
// aliases) onto enum values.
type enumNormalizer[T ~string] struct {
	values   map[string]T
	fallback T
}

func newEnumNormalizer[T ~string](fallback T, values map[string]T) enumNormalizer[T] {
	normalized := make(map[string]T, len(values))
	for k, v := range values {
		normalized[clean(k)] = v
	}
	return enumNormalizer[T]{values: normalized, fallback: fallback}
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// lookup returns the enum value for raw, if any.
func (n enumNormalizer[T]) lookup(raw string) (T, bool) {
	v, ok := n.values[clean(raw)]
	return v, ok
}

// normalize returns the enum value for raw, or the fallback when raw is unknown.
func (n enumNormalizer[T]) normalize(raw string) T {
	if v, ok := n.lookup(raw); ok {
		return v
	}
	return n.fallback
}

// canonical is like normalize but keeps unknown input (cleaned) so that
// validation can report it. Empty input yields the fallback.
func (n enumNormalizer[T]) canonical(raw string) T {
	if clean(raw) == "" {
		return n.fallback
	}
	if v, ok := n.lookup(raw); ok {
		return v
	}
	return T(clean(raw))
}

// validKeys lists the accepted spellings, sorted.
func (n enumNormalizer[T]) validKeys() string {
	keys := make([]string, 0, len(n.values))
	for k := range n.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

var (
	logLevels = newEnumNormalizer(LogLevelInfo, map[string]LogLevel{
		"debug":   LogLevelDebug,
		"info":    LogLevelInfo,
		"warn":    LogLevelWarn,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
	})
	logFormats = newEnumNormalizer(LogFormatText, map[string]LogFormat{
		"text": LogFormatText,
		"json": LogFormatJSON,
	})
	publishTools = newEnumNormalizer(PublishToolCommand, map[string]PublishTool{
		"command": PublishToolCommand,
		"git":     PublishToolGit,
	})
	authTypes = newEnumNormalizer(AuthTypeNone, map[string]AuthType{
		"none":  AuthTypeNone,
		"ssh":   AuthTypeSSH,
		"token": AuthTypeToken,
		"basic": AuthTypeBasic,
	})
	retryBackoffs = newEnumNormalizer(RetryBackoffLinear, map[string]RetryBackoffMode{
		"fixed":       RetryBackoffFixed,
		"linear":      RetryBackoffLinear,
		"exponential": RetryBackoffExponential,
	})
)
