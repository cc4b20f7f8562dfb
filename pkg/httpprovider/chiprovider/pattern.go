package chiprovider

import "strings"

// translatePattern rewrites ":name" segments to chi's "{name}" and a
// trailing "*" or "*name" segment to chi's catch-all. It returns the
// catch-all's name, if any, so the parameter can be exposed under it.
func translatePattern(uri string) (pattern, wildcard string) {
	segments := strings.Split(uri, "/")
	for i, seg := range segments {
		switch {
		case strings.HasPrefix(seg, ":"):
			segments[i] = "{" + seg[1:] + "}"
		case strings.HasPrefix(seg, "*") && i == len(segments)-1:
			wildcard = seg[1:]
			segments[i] = "*"
		}
	}
	return strings.Join(segments, "/"), wildcard
}
