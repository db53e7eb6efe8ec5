package httpx

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// templateFuncs are the helpers available to every page template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"timeTag": timeTag,
		"join":    strings.Join,
	}
}

// timeTag renders ts as a <time> element with a friendly label. Nil and zero
// times render as nothing.
func timeTag(ts any) template.HTML {
	var t0 time.Time
	switch v := ts.(type) {
	case time.Time:
		t0 = v
	case *time.Time:
		if v != nil {
			t0 = *v
		}
	default:
		return ""
	}
	if t0.IsZero() {
		return ""
	}
	friendly := t0.UTC().Format("Jan 2, 2006 3:04 PM")
	// #nosec G203 - built from fixed layouts and escaped values only
	return template.HTML(fmt.Sprintf(
		"<time datetime=\"%s\">%s UTC</time>",
		t0.UTC().Format(time.RFC3339),
		template.HTMLEscapeString(friendly),
	))
}
