package config

const (
	// MaxLabelLength is the maximum length for a node label.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (labels should be short clinical phrases).
	MaxLabelLength = 255

	// MaxTargetChildren is the hard cap on a draft's target-children
	// payload. Parents have five slots; anything larger is a malformed
	// request, not a big draft.
	MaxTargetChildren = 5
)
