package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type ValueType string

const (
	STRING_VAL ValueType = "STRING"
	NUMBER_VAL ValueType = "NUMBER"
	LIST_VAL   ValueType = "LIST"
)

// Value is the decoded form of a single statement field. The wire format
// carries no type information, so the type is recovered from the textual
// shape of the segment (see decodeValue).
type Value interface {
	Type() ValueType
	Inspect() string
}

type String struct {
	Value string
}

func (s *String) Type() ValueType { return STRING_VAL }
func (s *String) Inspect() string { return s.Value }

func (s *String) MarshalJSON() ([]byte, error) { return json.Marshal(s.Value) }

type Number struct {
	Value int64
}

func (n *Number) Type() ValueType { return NUMBER_VAL }
func (n *Number) Inspect() string { return strconv.FormatInt(n.Value, 10) }

func (n *Number) MarshalJSON() ([]byte, error) { return json.Marshal(n.Value) }

type List struct {
	Elements []Value
}

func (l *List) Type() ValueType { return LIST_VAL }
func (l *List) Inspect() string {
	parts := make([]string, len(l.Elements))
	for i, el := range l.Elements {
		parts[i] = el.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *List) MarshalJSON() ([]byte, error) { return json.Marshal(l.Elements) }

var (
	safeToken    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	integerToken = regexp.MustCompile(`^-?\d+$`)
)

// encodeValue writes one leaf value in wire form. Safe tokens pass through
// literally; everything else containing characters outside [A-Za-z0-9_-]
// (including the delimiters ';', ':' and ',') is base64url-escaped with a
// '~' prefix so the encoded string never contains an unescaped delimiter.
func encodeValue(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return encodeString(v), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case *String:
		return encodeString(v.Value), nil
	case *Number:
		return strconv.FormatInt(v.Value, 10), nil
	case *List:
		elements := make([]any, len(v.Elements))
		for i, el := range v.Elements {
			elements[i] = el
		}
		return encodeList(elements)
	case []any:
		return encodeList(v)
	case []string:
		elements := make([]any, len(v))
		for i, s := range v {
			elements[i] = s
		}
		return encodeList(elements)
	case []int:
		elements := make([]any, len(v))
		for i, n := range v {
			elements[i] = n
		}
		return encodeList(elements)
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func encodeString(s string) string {
	if s == "" {
		return ""
	}
	if safeToken.MatchString(s) {
		return s
	}
	return "~" + base64.RawURLEncoding.EncodeToString([]byte(s))
}

func encodeList(elements []any) (string, error) {
	parts := make([]string, len(elements))
	for i, el := range elements {
		switch el.(type) {
		case []any, []string, []int, *List, map[string]any:
			return "", fmt.Errorf("unsupported nested value %T in list", el)
		}
		enc, err := encodeValue(el)
		if err != nil {
			return "", err
		}
		parts[i] = enc
	}
	return strings.Join(parts, ","), nil
}

// decodeValue classifies a raw segment value back into a typed Value.
// The order is fixed: '~' prefix first, then comma-split, then integer,
// else literal string. An escaped payload may contain commas, so checking
// the prefix before splitting is what keeps those payloads intact.
func decodeValue(raw string) (Value, error) {
	if raw == "" {
		return &String{Value: ""}, nil
	}
	if strings.HasPrefix(raw, "~") {
		decoded, err := base64.RawURLEncoding.DecodeString(raw[1:])
		if err != nil {
			return nil, fmt.Errorf("decode escaped value: %w", err)
		}
		return &String{Value: string(decoded)}, nil
	}
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		elements := make([]Value, len(parts))
		for i, part := range parts {
			el, err := decodeValue(part)
			if err != nil {
				return nil, err
			}
			elements[i] = el
		}
		return &List{Elements: elements}, nil
	}
	if integerToken.MatchString(raw) {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return &Number{Value: n}, nil
		}
	}
	return &String{Value: raw}, nil
}
