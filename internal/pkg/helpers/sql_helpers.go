package helpers

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern returns a substring pattern for ILIKE with the wildcard characters in s escaped.
func LikePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
