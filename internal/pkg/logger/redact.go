package logger

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// RedactEmail masks the local part of an address, keeping at most its first
// two characters: "john@example.com" becomes "jo***@example.com".
func RedactEmail(addr string) string {
	local, domainPart, ok := strings.Cut(addr, "@")
	if !ok {
		return "***@***"
	}
	if len(local) <= 2 {
		return "***@" + domainPart
	}
	return local[:2] + "***@" + domainPart
}

// mask redacts addresses in a field value. Fields that name a recipient are
// masked outright; any other value has embedded addresses replaced.
func mask(key, val string) string {
	k := strings.ToLower(key)
	if strings.Contains(k, "email") || strings.Contains(k, "recipient") {
		return RedactEmail(val)
	}
	return emailPattern.ReplaceAllStringFunc(val, RedactEmail)
}
