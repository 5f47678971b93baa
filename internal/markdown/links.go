package markdown

type LinkKind string

const (
	LinkKindInline LinkKind = "inline"
	LinkKindImage  LinkKind = "image"
	LinkKindAuto   LinkKind = "auto"
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// Page summarises a converted markdown page.
type Page struct {
	Title string
	Links []Link
}

// Images returns the destinations of image links in document order.
func (p Page) Images() []string {
	var out []string
	for _, l := range p.Links {
		if l.Kind == LinkKindImage {
			out = append(out, l.Destination)
		}
	}
	return out
}
