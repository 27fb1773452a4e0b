// Package i18n provides localized user-facing messages for auth flow outcomes.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys used by the auth flow
const (
	KeyValidationFailed   = "auth.validation_failed"
	KeyUserExists         = "auth.user_exists"
	KeySignupFailed       = "auth.signup_failed"
	KeyConfirmationFailed = "auth.confirmation_failed"
	KeyLoginFailed        = "auth.login_failed"
	KeySetupMFAFailed     = "auth.setup_mfa_failed"
	KeyInvalidCode        = "auth.invalid_code"
	KeySessionExpired     = "auth.session_expired"
	KeyResendFailed       = "auth.resend_failed"
	KeyResetFailed        = "auth.reset_failed"
)

// ResetKey returns the key of the reset-password message for a provider error name.
func ResetKey(errorName string) string {
	return "reset." + errorName
}

// BaseLocale is used when nothing better matches.
var BaseLocale = language.English

// Supported lists the locales with a message table, BaseLocale first.
var Supported = []language.Tag{language.English, language.Spanish}

var matcher = language.NewMatcher(Supported)

// Catalog maps message keys to localized strings.
type Catalog struct {
	builder *catalog.Builder
	keys    map[string]struct{}
}

// NewCatalog returns a catalog loaded with the built-in message tables.
func NewCatalog() *Catalog {
	c := &Catalog{
		builder: catalog.NewBuilder(catalog.Fallback(BaseLocale)),
		keys:    make(map[string]struct{}),
	}
	c.load(language.English, enUS)
	c.load(language.Spanish, es)
	return c
}

func (c *Catalog) load(tag language.Tag, messages map[string]string) {
	for key, msg := range messages {
		// SetString only fails on malformed keys; the tables are static.
		_ = c.builder.SetString(tag, key, msg)
		c.keys[key] = struct{}{}
	}
}

// Has reports whether key has a message in at least the base locale.
func (c *Catalog) Has(key string) bool {
	_, ok := c.keys[key]
	return ok
}

// Message renders key for the locale carried by ctx.
// Falls back to the key itself if no message is registered.
func (c *Catalog) Message(ctx context.Context, key string) string {
	if !c.Has(key) {
		return key
	}
	p := message.NewPrinter(Match(LocaleFrom(ctx)), message.Catalog(c.builder))
	return p.Sprintf(key)
}

// Match returns the supported locale closest to tags.
func Match(tags ...language.Tag) language.Tag {
	if len(tags) == 0 {
		return BaseLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return BaseLocale
	}
	return Supported[index]
}

// ParseAcceptLanguage resolves an Accept-Language header to a supported locale.
func ParseAcceptLanguage(header string) language.Tag {
	header = strings.TrimSpace(header)
	if header == "" {
		return BaseLocale
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return BaseLocale
	}
	return Match(tags...)
}

type localeKey struct{}

// WithLocale attaches a locale to ctx.
func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, tag)
}

// LocaleFrom returns the locale attached to ctx, or BaseLocale.
func LocaleFrom(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(localeKey{}).(language.Tag); ok {
		return tag
	}
	return BaseLocale
}
