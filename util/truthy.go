package util

import "strings"

// Truthy interprets common affirmative env var spellings.
func Truthy(s string) bool {
	normalized := strings.ToLower(strings.Trim(s, " "))
	return normalized == "true" || normalized == "1" || normalized == "yes"
}
