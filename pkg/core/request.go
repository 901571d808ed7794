package core

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Params holds request parameters for a single call. Values may be strings,
// numbers, booleans, Decimals, times, or string slices (for repeated keys
// like "uuids[]").
type Params map[string]any

// NewParams returns an empty parameter set.
func NewParams() Params {
	return make(Params)
}

// Set stores a value under the given key and returns the set for chaining.
// Nil values are dropped.
func (p Params) Set(key string, value any) Params {
	if value == nil {
		return p
	}
	p[key] = value
	return p
}

// SetList stores a string slice. Keys ending in "[]" are sent as repeated
// query keys; other keys are joined with commas, matching the service's
// conventions for multi-value parameters.
func (p Params) SetList(key string, values []string) Params {
	if len(values) == 0 {
		return p
	}
	if strings.HasSuffix(key, "[]") {
		p[key] = values
		return p
	}
	p[key] = strings.Join(values, ",")
	return p
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case Decimal:
		return val.String()
	case *Decimal:
		return val.String()
	case time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Encode canonicalizes the parameters into a query string: keys sorted
// alphabetically, values urlencoded, slice values expanded into repeated
// keys. The same encoding is used for the request URL and for the signed
// query digest, so the token is bound to the exact content sent.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		switch vals := p[k].(type) {
		case []string:
			for _, v := range vals {
				if b.Len() > 0 {
					b.WriteByte('&')
				}
				b.WriteString(url.QueryEscape(k))
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
		default:
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(formatValue(p[k])))
		}
	}
	return b.String()
}

// Values converts the parameters to url.Values for the HTTP layer.
func (p Params) Values() url.Values {
	values := make(url.Values, len(p))
	for k, v := range p {
		switch vals := v.(type) {
		case []string:
			for _, s := range vals {
				values.Add(k, s)
			}
		default:
			values.Set(k, formatValue(v))
		}
	}
	return values
}
