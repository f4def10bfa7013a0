package policy

import "regexp"

var (
	botTokenPattern = regexp.MustCompile(`\d{5,}:[A-Za-z0-9_-]{30,}`)
	dsnPassPattern  = regexp.MustCompile(`(://[^:/@\s]+:)[^@\s]+@`)
)

// RedactSecrets masks bot tokens and connection string passwords. Client
// errors from the Bot API embed the request URL, token included.
func RedactSecrets(input string) (redacted string, changed bool) {
	out := input

	next := botTokenPattern.ReplaceAllString(out, "[REDACTED_TOKEN]")
	changed = changed || next != out
	out = next

	next = dsnPassPattern.ReplaceAllString(out, "${1}[REDACTED]@")
	changed = changed || next != out
	out = next

	return out, changed
}

// RedactError is RedactSecrets for an error value; nil yields "".
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	out, _ := RedactSecrets(err.Error())
	return out
}
