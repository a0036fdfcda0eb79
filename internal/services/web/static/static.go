// Package static embeds the stylesheet and the loading page script.
package static

import "embed"

// FS holds the assets served under /static/.
//
//go:embed app.css gate.js
var FS embed.FS
