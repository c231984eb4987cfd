// Package web embeds the server-rendered templates so the binary stays
// self-contained.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
