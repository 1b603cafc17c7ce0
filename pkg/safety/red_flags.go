// Package safety holds the keyword red-flag check. It is consulted by
// callers of the workflow, not by any stage.
package safety

import "strings"

// RedFlags are lower-case phrases matched by plain substring search.
var RedFlags = []string{
	"chest pain",
	"difficulty breathing",
	"stiff neck",
	"drooling",
	"cannot swallow",
	"confusion",
	"fainting",
	"bleeding",
	"seizure",
	"rash and fever",
	"fever more than 3 days",
	"infant",
	"pregnant",
}

// CheckRedFlags returns the red flags found in text, in list order. The
// result is never nil.
func CheckRedFlags(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, flag := range RedFlags {
		if strings.Contains(lower, flag) {
			found = append(found, flag)
		}
	}
	return found
}
