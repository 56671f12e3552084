// Package web holds the embedded dashboard UI.
package web

import "embed"

//go:embed index.html app.js
var FS embed.FS
