package publisher

import "strings"

// Route selects the publishing branch for a run.
type Route string

const (
	Twitter   Route = "twitter"
	Instagram Route = "instagram"
	Facebook  Route = "facebook"
	LinkedIn  Route = "linkedin"
	Pinterest Route = "pinterest"
)

var aliases = map[string]Route{
	"x":        Twitter,
	"xtwitter": Twitter,
}

// Selector lowercases and trims a route as given by the caller. The result
// names the schema tag and is the platform shown to the model, so aliases
// are kept: "xtwitter" reads <xtwitter>, not <twitter>.
func Selector(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseRoute resolves a selector to its publishing branch. Unknown selectors
// are returned as-is and have no branch.
func ParseRoute(s string) Route {
	key := Selector(s)
	if r, ok := aliases[key]; ok {
		return r
	}
	return Route(key)
}
