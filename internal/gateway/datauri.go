package gateway

import "strings"

// MimeFromDataURI extracts the MIME type from a "data:<mime>;base64,..."
// reference. Returns an empty string when the reference is not a data URI.
func MimeFromDataURI(dataURI string) string {
	if !strings.HasPrefix(dataURI, "data:") {
		return ""
	}
	rest := dataURI[len("data:"):]
	if idx := strings.IndexAny(rest, ";,"); idx >= 0 {
		return rest[:idx]
	}
	return ""
}
