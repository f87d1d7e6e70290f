// Package sanitize guarantees that text handed to speech synthesis never
// contains internal artifacts: placeholder syntax, action or field names,
// protocol jargon, or raw structured values that sound wrong when spoken.
//
// The denylist and fallback phrases are policy, supplied by the caller at
// construction. Sanitize is idempotent: already-clean text is a fixed point.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

// Policy carries the externally supplied sanitization rules.
type Policy struct {
	// Denylist holds regular expressions for tokens that must never reach
	// synthesized speech. Matches are removed, not replaced with markers.
	Denylist []string

	Fallbacks Fallbacks
}

// Fallbacks are the phrases spoken instead of text that failed sanitization.
type Fallbacks struct {
	// Generic is spoken when a reply cannot be produced at all.
	Generic string
	// MissingVariable is spoken when a template had unbound variables.
	MissingVariable string
}

type Sanitizer struct {
	denylist  []*regexp.Regexp
	fallbacks Fallbacks
}

var (
	placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)
	bracketedPattern   = regexp.MustCompile(`\{[^}]*\}|\[[^\]]*\]|<[^>]*>`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// Characters that sound wrong when spoken verbatim. Replaced after phone and
// email expansion so spelled-out forms are not mangled.
var spokenReplacements = strings.NewReplacer(
	"#", " number ",
	"@", " at ",
	"$", " dollars ",
	"%", " percent ",
	"&", " and ",
	"*", " ",
	"_", " ",
	"|", " ",
	"~", " ",
	"^", " ",
	"`", " ",
	"=", " equals ",
	"+", " plus ",
	"/", " ",
	"\\", " ",
)

func New(policy Policy) (*Sanitizer, error) {
	denylist := make([]*regexp.Regexp, 0, len(policy.Denylist))
	for _, pattern := range policy.Denylist {
		compiled, err := regexp.Compile(`(?i)` + pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid denylist pattern %q: %w", pattern, err)
		}
		denylist = append(denylist, compiled)
	}

	fallbacks := policy.Fallbacks
	if fallbacks.Generic == "" {
		fallbacks.Generic = "I'm here to help. What would you like to do next?"
	}
	if fallbacks.MissingVariable == "" {
		fallbacks.MissingVariable = "I'm sorry, I didn't get all of that. Could you repeat it?"
	}

	return &Sanitizer{denylist: denylist, fallbacks: fallbacks}, nil
}

// Fallback returns the generic fallback phrase, already speech-safe.
func (s *Sanitizer) Fallback() string { return s.fallbacks.Generic }

// Sanitize strips denylisted tokens and placeholder syntax, expands phone
// numbers and email addresses to spoken form, and normalizes characters that
// synthesis engines mispronounce.
func (s *Sanitizer) Sanitize(text string) string {
	if text == "" {
		return ""
	}

	for _, pattern := range s.denylist {
		if pattern.MatchString(text) {
			logger.Warn("removed denylisted token from speech text", "pattern", pattern.String())
			text = pattern.ReplaceAllString(text, "")
		}
	}

	if bracketedPattern.MatchString(text) {
		logger.Warn("removed placeholder syntax from speech text")
		text = bracketedPattern.ReplaceAllString(text, "")
	}

	text = expandPhoneNumbers(text)
	text = expandEmails(text)
	text = spokenReplacements.Replace(text)

	// Stray brackets that survived pairing removal.
	text = strings.NewReplacer("{", "", "}", "", "[", "", "]", "", "<", "", ">", "").Replace(text)

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// Render substitutes bound variables into template and sanitizes the result.
// It fails closed: if any placeholder is unbound the candidate text is
// discarded entirely and the configured fallback phrase is returned, so
// broken template syntax can never be spoken.
func (s *Sanitizer) Render(template string, vars map[string]string) string {
	var missing []string
	rendered := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})

	if len(missing) > 0 {
		logger.Error("template discarded: unbound variables", "variables", strings.Join(missing, ","))
		return s.fallbacks.MissingVariable
	}

	if strings.ContainsAny(rendered, "{}") {
		logger.Error("template discarded: unpaired braces after substitution")
		return s.fallbacks.MissingVariable
	}

	return s.Sanitize(rendered)
}
