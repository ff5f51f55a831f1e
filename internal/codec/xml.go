package codec

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

const (
	xmlAttrPrefix = "@"
	xmlTextKey    = "#"
	xmlRootTag    = "response"
)

// XMLCodec maps XML documents to generic values. The root element is
// unwrapped; child elements become keys, repeated children become lists,
// attributes are prefixed with "@" and text next to attributes or child
// elements lands in "#". Only the text before the first child is kept.
type XMLCodec struct{}

// NewXMLCodec is the Factory for LocatorXML
func NewXMLCodec(string) (Codec, error) {
	return XMLCodec{}, nil
}

func (XMLCodec) Name() string { return "xml" }

func (XMLCodec) Decode(data []byte, _ string) (any, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return elementValue(root), nil
}

func elementValue(el *etree.Element) any {
	children := el.ChildElements()
	text := strings.TrimSpace(el.Text())

	if len(children) == 0 && len(el.Attr) == 0 {
		return text
	}

	out := make(map[string]any, len(children)+len(el.Attr))
	for _, attr := range el.Attr {
		out[xmlAttrPrefix+attr.Key] = attr.Value
	}
	if text != "" {
		out[xmlTextKey] = text
	}

	for _, child := range children {
		value := elementValue(child)
		existing, seen := out[child.Tag]
		if !seen {
			out[child.Tag] = value
			continue
		}
		if list, ok := existing.([]any); ok {
			out[child.Tag] = append(list, value)
		} else {
			out[child.Tag] = []any{existing, value}
		}
	}
	return out
}

// Encode writes v below a <response> root element
func (XMLCodec) Encode(v any, _ string) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(xmlRootTag)
	if err := buildElement(root, v); err != nil {
		return nil, err
	}
	return doc.WriteToBytes()
}

func buildElement(el *etree.Element, v any) error {
	switch value := v.(type) {
	case nil:
		return nil
	case map[string]any:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch {
			case strings.HasPrefix(k, xmlAttrPrefix):
				el.CreateAttr(strings.TrimPrefix(k, xmlAttrPrefix), fmt.Sprint(value[k]))
			case k == xmlTextKey:
				el.SetText(fmt.Sprint(value[k]))
			default:
				if err := buildChildren(el, k, value[k]); err != nil {
					return err
				}
			}
		}
		return nil
	case []any:
		for _, item := range value {
			if err := buildChildren(el, "item", item); err != nil {
				return err
			}
		}
		return nil
	default:
		el.SetText(fmt.Sprint(value))
		return nil
	}
}

func buildChildren(parent *etree.Element, tag string, v any) error {
	if !validTag(tag) {
		return fmt.Errorf("invalid element name %q", tag)
	}
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if err := buildElement(parent.CreateElement(tag), item); err != nil {
				return err
			}
		}
		return nil
	}
	return buildElement(parent.CreateElement(tag), v)
}

func validTag(tag string) bool {
	if tag == "" {
		return false
	}
	for i, r := range tag {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case i > 0 && (r == '-' || r == '.' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}
