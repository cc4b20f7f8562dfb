package exchange

import (
	"errors"
	"strings"

	"github.com/beevik/etree"
)

// decodeXML turns a document into nested maps keyed by the root tag. An
// element without attributes or children becomes its trimmed text;
// otherwise attributes go under "$", text under "_" and repeated child tags
// collect into slices.
func decodeXML(raw []byte) (any, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, &SyntaxError{Format: "xml", Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &SyntaxError{Format: "xml", Err: errors.New("document has no root element")}
	}
	return map[string]any{root.FullTag(): elementValue(root)}, nil
}

func elementValue(el *etree.Element) any {
	children := el.ChildElements()
	text := strings.TrimSpace(el.Text())
	if len(children) == 0 && len(el.Attr) == 0 {
		return text
	}

	m := make(map[string]any, len(children)+2)
	if len(el.Attr) > 0 {
		attrs := make(map[string]any, len(el.Attr))
		for _, a := range el.Attr {
			attrs[a.FullKey()] = a.Value
		}
		m["$"] = attrs
	}
	if text != "" {
		m["_"] = text
	}
	for _, child := range children {
		tag := child.FullTag()
		v := elementValue(child)
		switch cur := m[tag].(type) {
		case nil:
			m[tag] = v
		case []any:
			m[tag] = append(cur, v)
		default:
			m[tag] = []any{cur, v}
		}
	}
	return m
}
