package multistatus

import (
	"fmt"
	"io"
)

const (
	tagResponse         = "response"
	tagHref             = "href"
	tagPropstat         = "propstat"
	tagProp             = "prop"
	tagDisplayName      = "displayname"
	tagCreationDate     = "creationdate"
	tagGetLastModified  = "getlastmodified"
	tagGetContentLength = "getcontentlength"
	tagGetContentType   = "getcontenttype"
	tagGetETag          = "getetag"
)

// DirectoryEntry is one resource from a PROPFIND listing.
// Values are copied as the server sent them, missing properties are "".
type DirectoryEntry struct {
	Href          string `json:"href"`
	Name          string `json:"name"`
	CreationDate  string `json:"creation_date"`
	LastModified  string `json:"last_modified"`
	ContentLength string `json:"content_length"`
	ContentType   string `json:"content_type"`
	ETag          string `json:"etag"`
}

// ParseError reports a multistatus body that breaks the protocol contract.
type ParseError struct {
	Index  int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse multistatus failed, reason:%s, err:%v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse multistatus failed, response index:%d, reason:%s", e.Index, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decodes a raw multistatus body.
func Parse(r io.Reader) ([]*DirectoryEntry, error) {
	root, err := ParseTree(r)
	if err != nil {
		return nil, &ParseError{Index: -1, Reason: "invalid xml", Err: err}
	}
	return ParseMultiStatus(root)
}

// ParseMultiStatus maps every response child of root to a DirectoryEntry, keeping document order.
func ParseMultiStatus(root *Node) ([]*DirectoryEntry, error) {
	if root == nil {
		return nil, &ParseError{Index: -1, Reason: "nil root"}
	}
	responses := root.ChildrenByLocalName(tagResponse)
	rs := make([]*DirectoryEntry, 0, len(responses))
	for idx, res := range responses {
		ent, err := parseResponse(res)
		if err != nil {
			return nil, &ParseError{Index: idx, Reason: err.Error()}
		}
		rs = append(rs, ent)
	}
	return rs, nil
}

func parseResponse(res *Node) (*DirectoryEntry, error) {
	href, ok := res.FindChildByLocalName(tagHref)
	if !ok {
		return nil, fmt.Errorf("no href found")
	}
	props := collectProps(res)
	return &DirectoryEntry{
		Href:          href.Content,
		Name:          propValue(props, tagDisplayName),
		CreationDate:  propValue(props, tagCreationDate),
		LastModified:  propValue(props, tagGetLastModified),
		ContentLength: propValue(props, tagGetContentLength),
		ContentType:   propValue(props, tagGetContentType),
		ETag:          propValue(props, tagGetETag),
	}, nil
}

// collectProps returns the prop node of every propstat, in document order.
func collectProps(res *Node) []*Node {
	stats := res.ChildrenByLocalName(tagPropstat)
	rs := make([]*Node, 0, len(stats))
	for _, st := range stats {
		if prop, ok := st.FindChildByLocalName(tagProp); ok {
			rs = append(rs, prop)
		}
	}
	return rs
}

// propValue picks the first non empty value of name among props.
func propValue(props []*Node, name string) string {
	for _, p := range props {
		if v := p.ChildContent(name); len(v) > 0 {
			return v
		}
	}
	return ""
}
