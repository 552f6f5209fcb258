// Package web embeds the label designer page and its static assets.
package web

import "embed"

// Templates holds the HTML templates.
//
//go:embed templates/*.html
var Templates embed.FS

// Static holds files served below /static.
//
//go:embed static
var Static embed.FS
