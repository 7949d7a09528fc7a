package mdast

// Constructors keep hand-built trees in tests and stages readable.

func NewRoot(children ...Node) *Root {
	return &Root{Container{Children: children}}
}

func NewParagraph(children ...Node) *Paragraph {
	return &Paragraph{Container{Children: children}}
}

func NewHeading(depth int, children ...Node) *Heading {
	return &Heading{Container: Container{Children: children}, Depth: depth}
}

func NewText(value string) *Text {
	return &Text{Value: value}
}

func NewLink(url, title string, children ...Node) *Link {
	return &Link{Container: Container{Children: children}, URL: url, Title: title}
}

func NewImage(url, title, alt string) *Image {
	return &Image{URL: url, Title: title, Alt: alt}
}

func NewLinkReference(label string, refType ReferenceType, children ...Node) *LinkReference {
	return &LinkReference{
		Container:     Container{Children: children},
		Identifier:    NormalizeIdentifier(label),
		Label:         label,
		ReferenceType: refType,
	}
}

func NewImageReference(label string, refType ReferenceType, alt string) *ImageReference {
	return &ImageReference{
		Identifier:    NormalizeIdentifier(label),
		Label:         label,
		Alt:           alt,
		ReferenceType: refType,
	}
}

func NewDefinition(label, url, title string) *Definition {
	return &Definition{
		Identifier: NormalizeIdentifier(label),
		Label:      label,
		URL:        url,
		Title:      title,
	}
}
