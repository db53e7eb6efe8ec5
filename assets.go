// Package storefront provides the embedded page templates.
package storefront

import "embed"

// In dev mode templates are loaded from disk so edits show up without a rebuild.

//go:embed all:frontend/templates
var TemplateFS embed.FS
