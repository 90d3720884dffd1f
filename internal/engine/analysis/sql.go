package analysis

import "strings"

// sqlKeywords mark a string literal as a probable SQL statement. A keyword
// anywhere in the string counts, case-insensitively; false positives on
// prose containing e.g. "select" are accepted.
var sqlKeywords = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "DROP", "ALTER",
}

const maxQueryPreview = 80

func looksLikeSQL(text string) bool {
	upper := strings.ToUpper(text)
	for _, kw := range sqlKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func queryPreview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxQueryPreview {
		return text[:maxQueryPreview]
	}
	return text
}
