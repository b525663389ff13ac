package page

import (
	_ "embed"
	"strings"
)

// DevOverlayPath is where the dev server serves the overlay script.
const DevOverlayPath = "/__dev-overlay.js"

const devOverlayTag = `<script src="` + DevOverlayPath + `"></script>`

// DevOverlayScript lists the slot diagnostic markers of a dev render.
//
//go:embed assets/dev-overlay.js
var DevOverlayScript []byte

// injectDevOverlay loads the overlay script just before the last </body>.
// A document without one gets the script appended.
func injectDevOverlay(doc string) string {
	i := strings.LastIndex(doc, "</body>")
	if i < 0 {
		return doc + devOverlayTag
	}

	return doc[:i] + devOverlayTag + doc[i:]
}
