// Package codec implements the avouch statement wire format: a nested
// key/value mapping serialized into a single ';'-delimited string of
// 'key:value' segments, self-described by a mandatory format version
// ('v') and origin identifier ('o').
package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Statement is one decoded record. Fields is a nested mapping whose
// interior nodes are map[string]any and whose leaves are Value.
type Statement struct {
	Version int
	Origin  string
	Fields  map[string]any
}

// Encode serializes a nested mapping into a statement string. Leaf values
// may be strings, numbers, booleans, flat arrays of those, or decoded
// Values; interior nodes must be map[string]any. Keys must not contain
// '.', ':' or ';' (an input contract, not checked here). The 'v' and 'o'
// segments always come first; remaining keys follow in sorted order per
// nesting level.
func Encode(data map[string]any, version int, origin string) (string, error) {
	segments := make([]string, 0, len(data)+2)
	segments = append(segments, "v:"+strconv.Itoa(version))
	segments = append(segments, "o:"+encodeString(origin))

	for _, pair := range Flatten(data) {
		enc, err := encodeValue(pair.Value)
		if err != nil {
			return "", fmt.Errorf("encode field %q: %w", pair.Path, err)
		}
		segments = append(segments, pair.Path+":"+enc)
	}

	return strings.Join(segments, ";"), nil
}

// Decode parses a statement string. It is total: malformed input of any
// kind (no recognizable segments, missing or non-integer version, missing
// origin, corrupt base64) yields nil, never an error or panic. Segments
// without a ':' or with an empty key are dropped; unknown keys are kept so
// statements from newer producers still decode.
func Decode(raw string) *Statement {
	if raw == "" {
		return nil
	}

	var pairs []Pair
	var version int
	var origin string
	versionSeen := false
	originSeen := false

	for _, segment := range strings.Split(raw, ";") {
		if segment == "" {
			continue
		}
		idx := strings.Index(segment, ":")
		if idx <= 0 {
			continue
		}
		key, rawValue := segment[:idx], segment[idx+1:]

		switch key {
		case "v":
			n, err := strconv.Atoi(rawValue)
			if err != nil {
				return nil
			}
			version = n
			versionSeen = true
		case "o":
			s, err := decodeOrigin(rawValue)
			if err != nil {
				return nil
			}
			origin = s
			originSeen = true
		default:
			value, err := decodeValue(rawValue)
			if err != nil {
				return nil
			}
			pairs = append(pairs, Pair{Path: key, Value: value})
		}
	}

	if !versionSeen || !originSeen {
		return nil
	}

	return &Statement{
		Version: version,
		Origin:  origin,
		Fields:  Unflatten(pairs),
	}
}

// decodeOrigin reads the 'o' segment. The origin is a string by
// definition, so no numeric or list classification applies; only the
// escape prefix is honored.
func decodeOrigin(raw string) (string, error) {
	if strings.HasPrefix(raw, "~") {
		decoded, err := base64.RawURLEncoding.DecodeString(raw[1:])
		if err != nil {
			return "", fmt.Errorf("decode origin: %w", err)
		}
		return string(decoded), nil
	}
	return raw, nil
}

// Encode re-serializes a decoded statement.
func (s *Statement) Encode() (string, error) {
	return Encode(s.Fields, s.Version, s.Origin)
}

// Get returns the leaf value at a dotted path.
func (s *Statement) Get(path string) (Value, bool) {
	current := s.Fields
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		node, ok := current[seg]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			value, ok := node.(Value)
			return value, ok
		}
		current, ok = node.(map[string]any)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

// Flatten returns the statement's fields as dotted-path pairs. Every
// pair's value is a Value.
func (s *Statement) Flatten() []Pair {
	return Flatten(s.Fields)
}

// MarshalJSON renders the statement as a flat JSON object with the
// metadata under the reserved keys "_v" and "_o" alongside the decoded
// fields.
func (s *Statement) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Fields)+2)
	for k, v := range s.Fields {
		out[k] = v
	}
	out["_v"] = s.Version
	out["_o"] = s.Origin
	return json.Marshal(out)
}
