package exchange

import (
	"mime"
	"sort"
	"strconv"
	"strings"

	"github.com/munnerz/goautoneg"
	"golang.org/x/text/language"
)

// normalizeType resolves "json" or "html" style shorthands to a full media
// type and "+json" style suffixes to a wildcard. Unknown shorthands return "".
func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	switch {
	case t == "":
		return ""
	case strings.HasPrefix(t, "+"):
		return "*/*" + t
	case strings.Contains(t, "/"):
		return t
	}
	full := mime.TypeByExtension("." + t)
	if full == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(full)
	if err != nil {
		return ""
	}
	return mt
}

// Accepts returns the offer that best matches the Accept header. With no
// header the first offer wins.
func Accepts(header string, offers ...string) (string, bool) {
	if len(offers) == 0 {
		return "", false
	}
	if strings.TrimSpace(header) == "" {
		return offers[0], true
	}

	alternatives := make([]string, 0, len(offers))
	index := make(map[string]int, len(offers))
	for i, offer := range offers {
		mt := normalizeType(offer)
		if mt == "" || strings.HasPrefix(mt, "*/*+") {
			continue
		}
		if _, seen := index[mt]; !seen {
			index[mt] = i
			alternatives = append(alternatives, mt)
		}
	}
	if len(alternatives) == 0 {
		return "", false
	}

	for _, clause := range goautoneg.ParseAccept(header) {
		if clause.Q <= 0 {
			continue
		}
		for _, alt := range alternatives {
			typ, sub, _ := strings.Cut(alt, "/")
			if (clause.Type == "*" || clause.Type == typ) && (clause.SubType == "*" || clause.SubType == sub) {
				return offers[index[alt]], true
			}
		}
	}
	return "", false
}

// AcceptsLanguages returns the offer that best matches an Accept-Language
// header.
func AcceptsLanguages(header string, offers ...string) (string, bool) {
	if len(offers) == 0 {
		return "", false
	}
	header = strings.TrimSpace(header)
	if header == "" || header == "*" {
		return offers[0], true
	}

	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "", false
	}

	supported := make([]language.Tag, 0, len(offers))
	index := make([]int, 0, len(offers))
	for i, offer := range offers {
		tag, err := language.Parse(offer)
		if err != nil {
			continue
		}
		supported = append(supported, tag)
		index = append(index, i)
	}
	if len(supported) == 0 {
		return "", false
	}

	_, i, confidence := language.NewMatcher(supported).Match(tags...)
	if confidence == language.No {
		return "", false
	}
	return offers[index[i]], true
}

// AcceptsCharsets returns the offer that best matches an Accept-Charset
// header.
func AcceptsCharsets(header string, offers ...string) (string, bool) {
	return acceptToken(header, offers)
}

// AcceptsEncodings returns the offer that best matches an Accept-Encoding
// header. "identity" is acceptable unless explicitly refused.
func AcceptsEncodings(header string, offers ...string) (string, bool) {
	if strings.TrimSpace(header) != "" {
		if _, refused := refusedTokens(header)["identity"]; !refused {
			header += ", identity;q=0.001"
		}
	}
	return acceptToken(header, offers)
}

type weighted struct {
	token string
	q     float64
}

func parseQualityList(header string) []weighted {
	var out []weighted
	for _, item := range strings.Split(header, ",") {
		token, params, _ := strings.Cut(strings.TrimSpace(item), ";")
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		q := 1.0
		for _, p := range strings.Split(params, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if ok && strings.EqualFold(strings.TrimSpace(k), "q") {
				if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
					q = f
				}
			}
		}
		out = append(out, weighted{token: token, q: q})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].q > out[j].q })
	return out
}

func refusedTokens(header string) map[string]struct{} {
	refused := make(map[string]struct{})
	for _, w := range parseQualityList(header) {
		if w.q <= 0 {
			refused[w.token] = struct{}{}
		}
	}
	return refused
}

func acceptToken(header string, offers []string) (string, bool) {
	if len(offers) == 0 {
		return "", false
	}
	if strings.TrimSpace(header) == "" {
		return offers[0], true
	}

	list := parseQualityList(header)
	refused := refusedTokens(header)
	for _, w := range list {
		if w.q <= 0 {
			continue
		}
		for _, offer := range offers {
			lower := strings.ToLower(offer)
			if _, no := refused[lower]; no {
				continue
			}
			if w.token == "*" || w.token == lower {
				return offer, true
			}
		}
	}
	return "", false
}

// Is returns the first of types matching the media type of contentType.
func Is(contentType string, types ...string) (string, bool) {
	actual := MediaType(contentType)
	if actual == "" {
		return "", false
	}
	for _, t := range types {
		if mimeMatch(normalizeType(t), actual) {
			return t, true
		}
	}
	return "", false
}

func mimeMatch(expected, actual string) bool {
	e := strings.SplitN(expected, "/", 2)
	a := strings.SplitN(actual, "/", 2)
	if len(e) != 2 || len(a) != 2 {
		return false
	}
	if e[0] != "*" && e[0] != a[0] {
		return false
	}
	if strings.HasPrefix(e[1], "*+") {
		return strings.HasSuffix(a[1], e[1][1:])
	}
	return e[1] == "*" || e[1] == a[1]
}
