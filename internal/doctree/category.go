package doctree

// ContentCategory classifies an element for content-aware chunking.
type ContentCategory string

const (
	CategoryNarrative  ContentCategory = "narrative"
	CategoryMetadata   ContentCategory = "metadata"
	CategoryAttachment ContentCategory = "attachment"
	CategoryMarkup     ContentCategory = "markup"
	CategoryStructure  ContentCategory = "structure"
)

// Valid reports whether c is one of the known categories.
func (c ContentCategory) Valid() bool {
	switch c {
	case CategoryNarrative, CategoryMetadata, CategoryAttachment, CategoryMarkup, CategoryStructure:
		return true
	}
	return false
}
