package web

import "embed"

// Content holds the dashboard page and its assets (index.html, app.js, styles.css).
//
//go:embed index.html app.js styles.css
var Content embed.FS
