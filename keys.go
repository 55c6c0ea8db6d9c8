package recordcache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// maxKeyLength bounds the total key size. Memcached caps keys at 250 bytes
// and Redis has no practical limit, so the lower bound wins.
const maxKeyLength = 250

// nullToken renders blank attribute values. A null and an empty string hash
// to the same lookup in every supported store, so they share a token.
const nullToken = "null"

// firstSuffix disambiguates "first matching row" entries from "all matching
// rows" entries on non-primary-key indices.
const firstSuffix = "/first"

// Pair is one attribute=value condition of a recognized query, in raw
// (unformatted) form. Values holds the id list of a primary-key IN query;
// for every other condition it is nil and Value is used.
type Pair struct {
	Attr   string
	Value  any
	Values []any
}

// KeyForID returns the direct key of a single record.
func (s *Schema) KeyForID(id any) string {
	return s.KeyFor([]Pair{{Attr: s.primaryKey, Value: id}})
}

// KeyForIDs returns one direct key per id. Primary-key IN queries fan out to
// individual keys; a combined key is never produced.
func (s *Schema) KeyForIDs(ids []any) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.KeyForID(id)
	}
	return keys
}

// KeyFor builds the canonical key for a set of attribute/value pairs.
// Pairs are joined in attribute-sorted order; callers pass them pre-sorted
// (Recognize and the invalidation path both do). A single primary-key pair
// carrying a value list must go through KeyForIDs instead; here a list
// renders as a raw token and is only reachable from unregistered shapes.
//
// KeyFor is a pure function of the schema metadata and its inputs.
func (s *Schema) KeyFor(pairs []Pair) string {
	tokens := make([]string, len(pairs))
	for i, p := range pairs {
		tokens[i] = p.Attr + "=" + s.formatValue(p.Value, s.columnType(p.Attr))
	}
	body := strings.Join(tokens, "/")

	if len(body) > maxKeyLength-len(s.prefix) || containsSpace(body) {
		sum := md5.Sum([]byte(body))
		body = hex.EncodeToString(sum[:])
	}

	return s.prefix + body
}

// formatValue renders a single attribute value for key use.
//
// Blank values (nil, empty string) collapse to the null token so a missing
// attribute and an explicit NULL share an entry; false is not blank.
// Booleans render as 1/0 to match how the store serializes them. Strings are
// case-normalized because the common collations compare case-insensitively.
func (s *Schema) formatValue(v any, ct ColumnType) string {
	if isBlank(v) {
		return nullToken
	}

	if b, ok := v.(bool); ok {
		if b {
			return "1"
		}
		return "0"
	}

	switch ct {
	case ColumnString:
		return "'" + strings.ToLower(fmt.Sprint(v)) + "'"
	case ColumnInt, ColumnFloat:
		return numericToken(v)
	case ColumnBool:
		return boolToken(v)
	case ColumnTime:
		if t, ok := v.(time.Time); ok {
			return "'" + t.UTC().Format("2006-01-02 15:04:05") + "'"
		}
		return "'" + strings.ToLower(fmt.Sprint(v)) + "'"
	default:
		return fmt.Sprint(v)
	}
}

// numericToken renders numbers as-is; non-numeric inputs on numeric columns
// (bind values arriving as strings) pass through verbatim.
func numericToken(v any) string {
	switch n := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// boolToken renders non-bool values stored in boolean columns (the store may
// hand back 0/1 integers or "t"/"f" strings).
func boolToken(v any) string {
	switch t := v.(type) {
	case string:
		switch strings.ToLower(t) {
		case "t", "true", "1":
			return "1"
		default:
			return "0"
		}
	default:
		return fmt.Sprint(v)
	}
}

// isBlank reports whether a value renders as the null token.
// false is explicitly not blank.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}

func containsSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}
