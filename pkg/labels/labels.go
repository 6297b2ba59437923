// Package labels resolves DCAT-AP choice values to localized display
// labels using an embedded translation table. Unknown values and
// unknown locales fall back to the input unchanged.
package labels

import (
	_ "embed"
	"encoding/json"
	"strings"
)

//go:embed translations/dcat_ap_choices.json
var translationsJSON []byte

var translations map[string]map[string]string

func init() {
	if err := json.Unmarshal(translationsJSON, &translations); err != nil {
		panic("labels: embedded translation table is malformed: " + err.Error())
	}
}

// DefaultLocale is used when the caller passes an empty locale.
const DefaultLocale = "en"

// Localized returns the display label for value in the given locale.
// A value shaped like a JSON array is looked up element-wise and joined
// with commas. Anything without a translation comes back unchanged.
func Localized(value, locale string) string {
	if locale == "" {
		locale = DefaultLocale
	}

	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		var items []string
		if err := json.Unmarshal([]byte(value), &items); err != nil {
			return value
		}
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = lookup(item, locale)
		}
		return strings.Join(out, ",")
	}

	return lookup(value, locale)
}

func lookup(value, locale string) string {
	locales, ok := translations[value]
	if !ok {
		return value
	}
	if label, ok := locales[locale]; ok {
		return label
	}
	return value
}

// ParseJSON decodes a JSON document, returning nil on invalid input
// instead of an error. Mirrors the tolerant parsing the display layer
// expects for extras that may or may not hold JSON.
func ParseJSON(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	return v
}
