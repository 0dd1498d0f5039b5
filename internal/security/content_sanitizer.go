// Incident and observation bodies arrive as rich text from the tracking
// forms and are stored verbatim, so they are sanitized before persistence.
// The policy is allowlist-based via bluemonday: basic formatting only.
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService sanitizes HTML content before storage.
type ContentSanitizerService interface {
	// Sanitize returns safe HTML. Allowed tags: p, br, ul, ol, li,
	// blockquote, strong, em; everything else (script, iframe, style,
	// on* event attributes, links, images) is stripped. Empty input
	// yields empty output; the function is idempotent.
	Sanitize(rawHTML string) string
}

type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer builds the sanitizer with the tracking-entry policy.
// Tracking entries are prose: structural and emphasis tags only, no links
// or embedded media.
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote",
		"strong", "em",
	)

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize returns the sanitized HTML.
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
