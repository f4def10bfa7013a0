package policy

import "strings"

// Allowlist restricts which user ids the bot answers. An empty list admits
// everyone.
type Allowlist struct {
	ids map[string]struct{}
}

// ParseAllowlist reads a comma or whitespace separated list of user ids.
func ParseAllowlist(raw string) Allowlist {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return Allowlist{}
	}
	ids := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		ids[f] = struct{}{}
	}
	return Allowlist{ids: ids}
}

func (a Allowlist) Permits(userID string) bool {
	if len(a.ids) == 0 {
		return true
	}
	_, ok := a.ids[userID]
	return ok
}

func (a Allowlist) Len() int {
	return len(a.ids)
}
