package markitdown

import (
	"encoding/xml"
	"strings"
)

// xmlNode is a generic XML tree node used where streaming decode is more
// awkward than walking a parsed tree (slide shapes, notes).
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
	Content  string     `xml:",chardata"`
}

func parseXMLTree(data []byte) (*xmlNode, error) {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

func (n *xmlNode) getAttr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *xmlNode) findChild(local string) *xmlNode {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return &n.Children[i]
		}
	}
	return nil
}

func (n *xmlNode) findAll(local string) []*xmlNode {
	var result []*xmlNode
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			result = append(result, &n.Children[i])
		}
	}
	return result
}

// findDeep finds the first descendant with the given local name.
func (n *xmlNode) findDeep(local string) *xmlNode {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return &n.Children[i]
		}
		if found := n.Children[i].findDeep(local); found != nil {
			return found
		}
	}
	return nil
}

// findAllDeep finds all descendants with the given local name.
func (n *xmlNode) findAllDeep(local string) []*xmlNode {
	var result []*xmlNode
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			result = append(result, &n.Children[i])
		}
		result = append(result, n.Children[i].findAllDeep(local)...)
	}
	return result
}

// allText extracts all text content recursively.
func (n *xmlNode) allText() string {
	if n.Content != "" {
		return n.Content
	}
	var parts []string
	for i := range n.Children {
		if t := n.Children[i].allText(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "")
}
