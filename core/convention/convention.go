// Package convention derives names from minimal schema definitions.
// It applies the naming rules for source keys, alternate key forms,
// predicate names and qualified schema names.
package convention

import (
	"strings"
	"unicode"
)

// Separator joins the segments of a qualified schema name.
const Separator = "."

// PredicateSuffix marks predicate names derived from boolean attributes.
const PredicateSuffix = "?"

// ExternalKey returns the default source key for an attribute name.
// The attribute name is used as given, minus a trailing predicate marker.
func ExternalKey(name string) string {
	return strings.TrimSuffix(name, PredicateSuffix)
}

// AlternateKey returns the other key form for a source key:
// snake_case keys map to camelCase and camelCase keys map to snake_case.
// Returns "" when the key has no distinct alternate form.
func AlternateKey(key string) string {
	var alt string
	if strings.Contains(key, "_") {
		alt = CamelCase(key)
	} else {
		alt = SnakeCase(key)
	}
	if alt == key {
		return ""
	}
	return alt
}

// SnakeCase converts camelCase or PascalCase to snake_case.
//
//	SnakeCase("createdAt") == "created_at"
//	SnakeCase("HTTPStatus") == "http_status"
func SnakeCase(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	sb.Grow(len(s) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' {
				prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
					sb.WriteByte('_')
				}
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}

	return sb.String()
}

// CamelCase converts snake_case to lowerCamelCase.
//
//	CamelCase("created_at") == "createdAt"
func CamelCase(s string) string {
	parts := strings.Split(s, "_")
	var sb strings.Builder
	sb.Grow(len(s))

	first := true
	for _, part := range parts {
		if part == "" {
			continue
		}
		if first {
			sb.WriteString(part)
			first = false
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		sb.WriteString(string(runes))
	}

	return sb.String()
}

// PredicateName returns the predicate name for a boolean attribute,
// or "" when the attribute name already reads as a predicate.
func PredicateName(name string) string {
	if strings.HasSuffix(name, PredicateSuffix) {
		return ""
	}
	return name + PredicateSuffix
}

// Namespace returns the enclosing namespace segments of a qualified name.
//
//	Namespace("shop.models.Order") == []string{"shop", "models"}
func Namespace(qualified string) []string {
	if qualified == "" {
		return nil
	}
	segments := strings.Split(qualified, Separator)
	return segments[:len(segments)-1]
}

// Candidates lists the qualified names a reference may denote when used
// from inside namespace, innermost first and the root name last.
// A leading separator anchors the name at the root.
//
//	Candidates("Item", []string{"shop", "models"}) ==
//	    []string{"shop.models.Item", "shop.Item", "Item"}
func Candidates(name string, namespace []string) []string {
	if strings.HasPrefix(name, Separator) {
		return []string{strings.TrimPrefix(name, Separator)}
	}
	candidates := make([]string, 0, len(namespace)+1)
	for i := len(namespace); i > 0; i-- {
		candidates = append(candidates, strings.Join(namespace[:i], Separator)+Separator+name)
	}
	return append(candidates, name)
}

// ShortName returns the last segment of a qualified name.
func ShortName(qualified string) string {
	if i := strings.LastIndex(qualified, Separator); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// IsValidIdentifier checks that s is a letter or underscore followed by
// letters, digits or underscores. A trailing predicate marker is allowed.
func IsValidIdentifier(s string) bool {
	s = strings.TrimSuffix(s, PredicateSuffix)
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else if !isLetter(c) && !isDigit(c) && c != '_' {
			return false
		}
	}

	return true
}

// IsValidQualifiedName checks every dot-separated segment of a schema name.
func IsValidQualifiedName(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, Separator) {
		if seg == "" || strings.HasSuffix(seg, PredicateSuffix) || !IsValidIdentifier(seg) {
			return false
		}
	}
	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
