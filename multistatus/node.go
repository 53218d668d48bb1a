package multistatus

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Node is a generic element of a parsed xml document.
// Name holds the local name only, the namespace lives in Space.
type Node struct {
	Name     string
	Space    string
	Content  string
	Children []*Node
}

// FindChildByLocalName returns the first direct child with the given local name.
func (n *Node) FindChildByLocalName(name string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ChildrenByLocalName returns all direct children with the given local name, in document order.
func (n *Node) ChildrenByLocalName(name string) []*Node {
	if n == nil {
		return nil
	}
	rs := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Name == name {
			rs = append(rs, c)
		}
	}
	return rs
}

// ChildContent returns the text content of the first child named name, or "" if absent.
func (n *Node) ChildContent(name string) string {
	c, ok := n.FindChildByLocalName(name)
	if !ok {
		return ""
	}
	return c.Content
}

// ParseTree reads a whole xml document and returns its root element.
func ParseTree(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var (
		root  *Node
		stack []*Node
		text  []*strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local, Space: t.Name.Space}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root element found, name:%s", t.Name.Local)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			text = append(text, &strings.Builder{})
		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected end element, name:%s", t.Name.Local)
			}
			cur := stack[len(stack)-1]
			cur.Content = strings.TrimSpace(text[len(text)-1].String())
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		}
	}
	if root == nil {
		return nil, fmt.Errorf("no root element found")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("unclosed element found, name:%s", stack[len(stack)-1].Name)
	}
	return root, nil
}
