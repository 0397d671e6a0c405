package convention

import "strings"

// Singularize returns the singular form of an English plural.
// Words that do not look plural are returned unchanged.
func Singularize(word string) string {
	if word == "" {
		return ""
	}

	lower := strings.ToLower(word)

	// Check irregular singulars
	for singular, plural := range irregularPlurals {
		if strings.ToLower(plural) == lower {
			if word[0] >= 'A' && word[0] <= 'Z' {
				return strings.ToUpper(singular[:1]) + singular[1:]
			}
			return singular
		}
	}

	// Words ending in 'ies' → change to 'y'
	if strings.HasSuffix(lower, "ies") {
		return word[:len(word)-3] + "y"
	}

	// Words ending in 'ves' → change to 'f'
	if strings.HasSuffix(lower, "ves") {
		return word[:len(word)-3] + "f"
	}

	// Words ending in 'es' (after sibilants) → remove 'es'
	if strings.HasSuffix(lower, "ses") ||
		strings.HasSuffix(lower, "xes") ||
		strings.HasSuffix(lower, "zes") ||
		strings.HasSuffix(lower, "ches") ||
		strings.HasSuffix(lower, "shes") {
		return word[:len(word)-2]
	}

	// Words ending in 's' → remove 's'
	if strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss") {
		return word[:len(word)-1]
	}

	return word
}

// Common irregular plurals, singular to plural.
var irregularPlurals = map[string]string{
	"person":   "people",
	"man":      "men",
	"woman":    "women",
	"child":    "children",
	"foot":     "feet",
	"tooth":    "teeth",
	"goose":    "geese",
	"mouse":    "mice",
	"ox":       "oxen",
	"index":    "indices",
	"matrix":   "matrices",
	"vertex":   "vertices",
	"analysis": "analyses",
	"crisis":   "crises",
	"thesis":   "theses",
	"datum":    "data",
	"medium":   "media",
	"schema":   "schemas",
	"status":   "statuses",
}

// RefTarget derives the schema a reference attribute points to when the
// document leaves it out: the attribute name in PascalCase, with the last
// word singularized for arrays.
//
//	RefTarget("customer", false)   == "Customer"
//	RefTarget("order_items", true) == "OrderItem"
//	RefTarget("people", true)      == "Person"
func RefTarget(attribute string, many bool) string {
	name := strings.TrimSuffix(attribute, PredicateSuffix)
	parts := strings.Split(SnakeCase(name), "_")
	if many && len(parts) > 0 {
		parts[len(parts)-1] = Singularize(parts[len(parts)-1])
	}

	var sb strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}
