package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode/utf8"
)

type fieldAction int

const (
	keep fieldAction = iota
	redact
	hash
	// measure replaces prompt and generated text with its size.
	measure
)

// fieldRules is checked in order; the first key fragment contained in the lowercased key wins.
var fieldRules = []struct {
	fragment string
	action   fieldAction
}{
	{"api_key", redact},
	{"apikey", redact},
	{"x-api-key", redact},
	{"authorization", redact},
	{"secret", redact},
	{"password", redact},
	{"cookie", redact},
	{"dsn", redact},

	{"caller_id", hash},
	{"client_ip", hash},

	{"system_prompt", measure},
	{"user_prompt", measure},
	{"prompt_text", measure},
	{"current_spec", measure},
	{"output", measure},
}

var (
	redactOnce       sync.Once
	redactionEnabled bool
	hashSalt         string
)

func redactionOn() bool {
	redactOnce.Do(func() {
		switch strings.TrimSpace(strings.ToLower(os.Getenv("LOG_REDACTION_ENABLED"))) {
		case "0", "false", "no", "off":
			redactionEnabled = false
		default:
			redactionEnabled = true
		}
		hashSalt = strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))
	})
	return redactionEnabled
}

func sanitizeKVs(kv []interface{}) []interface{} {
	if len(kv) == 0 || !redactionOn() {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := toString(kv[i])
		out = append(out, key, sanitizeValue(strings.ToLower(strings.TrimSpace(key)), kv[i+1]))
	}
	return out
}

func actionFor(key string) fieldAction {
	if key == "" {
		return keep
	}
	for _, r := range fieldRules {
		if strings.Contains(key, r.fragment) {
			return r.action
		}
	}
	return keep
}

func sanitizeValue(key string, val interface{}) interface{} {
	switch actionFor(key) {
	case redact:
		return "[REDACTED]"
	case hash:
		return hashValue(val)
	case measure:
		return fmt.Sprintf("[%d chars]", utf8.RuneCountInString(toString(val)))
	}
	if m, ok := val.(map[string]interface{}); ok {
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[k] = sanitizeValue(strings.ToLower(strings.TrimSpace(k)), v)
		}
		return out
	}
	return val
}

func hashValue(val interface{}) string {
	raw := toString(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(hashSalt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
