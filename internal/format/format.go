// Package format converts raw Zoho webhook payloads into the sanitized,
// length-bounded text posted to Discord.
package format

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	maxBodyChars     = 1000
	minPlausibleBody = 10
	placeholderBody  = "No content available"
	ellipsis         = "..."
)

// MessageID tolerates both string and numeric JSON message ids; Zoho sends
// either depending on the webhook version.
type MessageID string

func (m *MessageID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = MessageID(s)
		return nil
	}
	s := string(b)
	if s == "null" {
		*m = ""
		return nil
	}
	*m = MessageID(s)
	return nil
}

// Inbound is the email-notification payload received on the webhook.
type Inbound struct {
	Sender      string    `json:"sender"`
	FromAddress string    `json:"fromAddress"`
	Subject     string    `json:"subject"`
	HTML        string    `json:"html"`
	Summary     string    `json:"summary"`
	MessageID   MessageID `json:"messageId"`
}

// Notification is the display representation of an inbound email.
type Notification struct {
	Title       string
	SenderLine  string
	SubjectLine string
	BodyPreview string
}

// Content renders the Discord message body.
func (n Notification) Content() string {
	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", n.Title, n.SenderLine, n.SubjectLine, n.BodyPreview)
}

// Format builds the notification for an inbound payload. It never fails:
// missing or garbled fields degrade to placeholders.
func Format(in Inbound) Notification {
	sender := strings.TrimSpace(in.Sender)
	if sender == "" {
		sender = strings.TrimSpace(in.FromAddress)
	}
	if sender == "" {
		sender = "Unknown sender"
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = "(no subject)"
	}
	return Notification{
		Title:       "📧 **New Email Received**",
		SenderLine:  fmt.Sprintf("**From:** %s <%s>", sender, strings.TrimSpace(in.FromAddress)),
		SubjectLine: fmt.Sprintf("**Subject:** %s", subject),
		BodyPreview: BodyPreview(in.HTML, in.Summary),
	}
}

var (
	styleBlockPattern  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	tagPattern         = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// entityReplacer decodes the fixed entity set the pipeline supports.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
)

// cssTelltales are property tokens that betray leftover stylesheet text
// after stripping.
var cssTelltales = []string{
	"font-family:", "font-size:", "margin:", "padding:",
	"color:", "width:", "height:", "background:", "!important",
}

// BodyPreview runs the sanitation pipeline over the HTML body and falls back
// to the plain-text summary (then a placeholder) when the result is
// implausible. The final text is truncated to 1000 characters.
func BodyPreview(html, summary string) string {
	body := ""
	if strings.TrimSpace(html) != "" {
		body = sanitizeHTML(html)
	}
	if len(body) < minPlausibleBody || looksLikeCSS(body) {
		body = strings.TrimSpace(summary)
	}
	if body == "" {
		body = placeholderBody
	}
	return truncate(body, maxBodyChars)
}

// sanitizeHTML strips markup in a fixed order: style blocks and script
// blocks must go before generic tag stripping or their contents would leak
// into the visible text.
func sanitizeHTML(html string) string {
	text := styleBlockPattern.ReplaceAllString(html, "")
	text = scriptBlockPattern.ReplaceAllString(text, "")
	text = tagPattern.ReplaceAllString(text, "")
	text = entityReplacer.Replace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func looksLikeCSS(text string) bool {
	lowered := strings.ToLower(text)
	for _, telltale := range cssTelltales {
		if strings.Contains(lowered, telltale) {
			return true
		}
	}
	return false
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + ellipsis
}
