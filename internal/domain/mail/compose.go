package mail

import (
	"fmt"
	"html"
)

// ComposeHTML assembles the greeting card body: the generated text plus an
// optional embedded card image. The body is generated by an external model,
// so it is escaped before being embedded in markup.
func ComposeHTML(body, imageURL string) string {
	out := fmt.Sprintf(`<html><body style="font-family: sans-serif;"><p>%s</p>`, html.EscapeString(body))
	if imageURL != "" {
		out += fmt.Sprintf(`<p><img src=%q alt="greeting card" style="max-width: 480px;"/></p>`, imageURL)
	}
	out += `<p style="color: #888; font-size: 12px;">Sent with love by Office Cheer.</p></body></html>`
	return out
}
