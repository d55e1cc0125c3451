// Package web embeds the browser UI.
package web

import "embed"

//go:embed index.html app.js style.css
var AssetsFS embed.FS
