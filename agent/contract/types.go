package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Document struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Param is one tool argument. Value holds a string or an int.
type Param struct {
	Key   string
	Value any
}

// Params keeps tool arguments in insertion order.
type Params []Param

func NewParams(kv ...any) Params {
	out := make(Params, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		out = out.With(key, kv[i+1])
	}
	return out
}

// With returns a copy of p with key set to value. An existing key keeps its
// position. p itself is never modified.
func (p Params) With(key string, value any) Params {
	out := make(Params, len(p), len(p)+1)
	copy(out, p)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Param{Key: key, Value: value})
}

func (p Params) Get(key string) (any, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

func (p Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// String renders the value for key, or "" when absent.
func (p Params) String(key string) string {
	v, ok := p.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}

func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for _, kv := range p {
		keys = append(keys, kv.Key)
	}
	return keys
}

func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal param %s: %w", kv.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the key order of the incoming object. Whole JSON
// numbers become int; other numbers keep their text form.
func (p *Params) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: params must be a JSON object", ErrValidation)
	}

	out := Params{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode param %s: %w", key, err)
		}
		if num, ok := raw.(json.Number); ok {
			if n, err := strconv.Atoi(num.String()); err == nil {
				raw = n
			} else {
				raw = num.String()
			}
		}
		out = out.With(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*p = out
	return nil
}

type ToolCall struct {
	Tool   string `json:"tool"`
	Params Params `json:"params"`
}

// ToolResult is the decoded JSON body of a tool response. Error-shaped
// results carry "error" and optionally "explanation".
type ToolResult map[string]any

func ErrorResult(message, explanation string) ToolResult {
	out := ToolResult{"error": message}
	if explanation != "" {
		out["explanation"] = explanation
	}
	return out
}

func (r ToolResult) ErrorMessage() (string, bool) {
	v, ok := r["error"]
	if !ok {
		return "", false
	}
	return fmt.Sprint(v), true
}

func (r ToolResult) Text(key, fallback string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (r ToolResult) Number(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	default:
		return 0
	}
}

func (r ToolResult) Object(key string) ToolResult {
	if m, ok := r[key].(map[string]any); ok {
		return ToolResult(m)
	}
	if m, ok := r[key].(ToolResult); ok {
		return m
	}
	return ToolResult{}
}

func (r ToolResult) List(key string) []any {
	switch v := r[key].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, 0, len(v))
		for _, s := range v {
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}

// Escalation describes a query handed off to human support.
type Escalation struct {
	SessionID      string    `json:"session_id,omitempty"`
	Query          string    `json:"query"`
	AccountContext string    `json:"account_context,omitempty"`
	Topics         []string  `json:"topics,omitempty"`
	Evidence       []string  `json:"evidence,omitempty"`
	At             time.Time `json:"at"`
}
