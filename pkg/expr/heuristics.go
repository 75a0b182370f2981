package expr

import (
	"regexp"
	"strings"
)

// statementPattern matches sources that already do something on their own:
// an explicit call or any operator. Anything else is treated as a bare
// handler reference. A call may span lines.
var statementPattern = regexp.MustCompile(`(?s)\(.*?\)|[=,;!+\-*/%]+`)

// LooksLikeStatement reports whether an event binding source should run as
// written. Sources for which it returns false name a handler that is called
// with the event, as in "onClick" becoming "onClick($event)".
func LooksLikeStatement(src string) bool {
	return statementPattern.MatchString(src)
}

// HandlerSource returns the source to compile for an event binding.
func HandlerSource(src, eventVar string) string {
	src = strings.TrimSpace(src)
	if LooksLikeStatement(src) {
		return src
	}
	return src + "(" + eventVar + ")"
}
