package analysis

import "strings"

// SecretType classifies a credential-looking variable by its name.
type SecretType string

const (
	SecretAPIKey     SecretType = "API_KEY"
	SecretSecretKey  SecretType = "SECRET_KEY"
	SecretPassword   SecretType = "PASSWORD"
	SecretToken      SecretType = "TOKEN"
	SecretAuth       SecretType = "AUTH"
	SecretCredential SecretType = "CREDENTIAL"
	SecretUnknown    SecretType = "UNKNOWN"
)

var secretNameMarkers = []string{
	"API_KEY", "APIKEY", "SECRET", "PASSWORD", "PASSWD", "PWD",
	"TOKEN", "AUTH", "CREDENTIAL",
}

// placeholders are literal values that indicate a template rather than a
// leaked credential.
var placeholders = map[string]bool{
	"":            true,
	"changeme":    true,
	"change-me":   true,
	"placeholder": true,
	"xxx":         true,
	"...":         true,
	"none":        true,
	"null":        true,
	"todo":        true,
	"your-api-key": true,
	"your-secret":  true,
}

func isSecretName(name string) bool {
	upper := strings.ToUpper(name)
	for _, marker := range secretNameMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// isPlaceholderValue filters values that are clearly not real credentials:
// known template words, env-var style <...> markers, and very short strings.
func isPlaceholderValue(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if placeholders[v] {
		return true
	}
	if strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">") {
		return true
	}
	if strings.Contains(v, "example") || strings.Contains(v, "dummy") {
		return true
	}
	return len(v) < 4
}

func ClassifySecret(name string) SecretType {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "API_KEY") || strings.Contains(upper, "APIKEY"):
		return SecretAPIKey
	case strings.Contains(upper, "SECRET"):
		return SecretSecretKey
	case strings.Contains(upper, "PASSWORD") || strings.Contains(upper, "PASSWD") || strings.Contains(upper, "PWD"):
		return SecretPassword
	case strings.Contains(upper, "TOKEN"):
		return SecretToken
	case strings.Contains(upper, "AUTH"):
		return SecretAuth
	case strings.Contains(upper, "CREDENTIAL"):
		return SecretCredential
	default:
		return SecretUnknown
	}
}

// stringLiteralValue unwraps a rendered default like "\"abc\"" to abc.
// Returns false for non-string defaults.
func stringLiteralValue(rendered string) (string, bool) {
	if len(rendered) < 2 {
		return "", false
	}
	first := rendered[0]
	last := rendered[len(rendered)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return rendered[1 : len(rendered)-1], true
	}
	return "", false
}
