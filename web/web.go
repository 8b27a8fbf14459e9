// Package web holds the HTML pages served at / and /messenger.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
