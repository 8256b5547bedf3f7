package vibepapers

import "errors"

// Sentinel errors for rendering operations.
var (
	ErrNoPapers       = errors.New("no papers to render")
	ErrPageRender     = errors.New("paper page rendering failed")
	ErrIndexRender    = errors.New("index page rendering failed")
	ErrSummaryRender  = errors.New("summary page rendering failed")
	ErrSummarySkipped = errors.New("summary page skipped")
)
