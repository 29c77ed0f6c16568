// Package localization resolves per-language component texts. Messages are
// stored per language under keys of the form `${componentKey}_${type}_${prop}`
// and may interpolate named variables (`Hello ${name}`). Lookup falls back
// from the requested language to the form's default language and finally to
// a visible [NOT LOCALIZED] marker: an unlocalized form must still render.
// Formatting problems never fail the call; undefined variables format as the
// empty string and are recorded for diagnostics.
package localization

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/formweave/internal/ctxlog"
	"github.com/vk/formweave/internal/formstore"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/text/language"
)

// NotLocalized is the marker returned when no bundle carries the message.
const NotLocalized = "[NOT LOCALIZED]"

// Entry types used in message keys.
const (
	EntryComponent = "component"
	EntryTooltip   = "tooltip"
	EntryModal     = "modal"
)

// RuleEntry builds the rule-prefixed entry type used for validator messages.
func RuleEntry(ruleKey string) string {
	return "rule_" + ruleKey
}

// MessageKey builds the catalog key for one localized property.
func MessageKey(componentKey, entryType, prop string) string {
	return componentKey + "_" + entryType + "_" + prop
}

// Catalog holds the per-language message bundles of one form.
type Catalog struct {
	defaultLang string
	bundles     map[string]map[string]string
	configured  []string
	tags        []language.Tag
	matcher     language.Matcher

	mu      sync.Mutex
	missing []string
	errs    []error
}

// NewCatalog builds a catalog from the envelope's localization table.
func NewCatalog(ctx context.Context, table formstore.LocalizationTable, languages []formstore.Language, defaultLang string) *Catalog {
	c := &Catalog{
		defaultLang: defaultLang,
		bundles:     map[string]map[string]string{},
	}
	for _, lang := range languages {
		c.configured = append(c.configured, lang.Code)
		tag, err := language.Parse(lang.Tag())
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Unparseable form language; skipping from matcher.",
				"language", lang.Tag(), "error", err)
			tag = language.Und
		}
		c.tags = append(c.tags, tag)
	}
	if len(c.tags) > 0 {
		c.matcher = language.NewMatcher(c.tags)
	}

	for lang, byComponent := range table {
		bundle := c.bundles[lang]
		if bundle == nil {
			bundle = map[string]string{}
			c.bundles[lang] = bundle
		}
		for componentKey, byType := range byComponent {
			for entryType, byProp := range byType {
				for prop, message := range byProp {
					bundle[MessageKey(componentKey, entryType, prop)] = message
				}
			}
		}
	}
	return c
}

// DefaultLanguage returns the form's default language code.
func (c *Catalog) DefaultLanguage() string { return c.defaultLang }

// MatchLanguage maps a requested language to the closest configured one,
// falling back to the default language.
func (c *Catalog) MatchLanguage(requested string) string {
	if requested == "" {
		return c.defaultLang
	}
	if _, ok := c.bundles[requested]; ok {
		return requested
	}
	if c.matcher != nil {
		if tag, err := language.Parse(requested); err == nil {
			_, index, confidence := c.matcher.Match(tag)
			if confidence > language.No && index < len(c.configured) {
				return c.configured[index]
			}
		}
	}
	return c.defaultLang
}

// Resolve returns the localized property text for the given language,
// applying the fallback chain and interpolating variables.
func (c *Catalog) Resolve(ctx context.Context, lang, componentKey, entryType, prop string, vars map[string]cty.Value) string {
	return c.Message(ctx, lang, MessageKey(componentKey, entryType, prop), vars)
}

// Message resolves and formats one message key with the fallback chain:
// requested language, default language, [NOT LOCALIZED].
func (c *Catalog) Message(ctx context.Context, lang, msgKey string, vars map[string]cty.Value) string {
	matched := c.MatchLanguage(lang)
	if msg, ok := c.lookup(matched, msgKey); ok {
		return c.format(ctx, msgKey, msg, vars)
	}
	if matched != c.defaultLang {
		if msg, ok := c.lookup(c.defaultLang, msgKey); ok {
			return c.format(ctx, msgKey, msg, vars)
		}
	}
	return NotLocalized
}

// Has reports whether any bundle carries the message key.
func (c *Catalog) Has(msgKey string) bool {
	for _, bundle := range c.bundles {
		if _, ok := bundle[msgKey]; ok {
			return true
		}
	}
	return false
}

func (c *Catalog) lookup(lang, msgKey string) (string, bool) {
	bundle, ok := c.bundles[lang]
	if !ok {
		return "", false
	}
	msg, ok := bundle[msgKey]
	return msg, ok
}

// format interpolates `${var}` references in the message. Referenced
// variables the caller did not supply substitute as the empty string and
// are recorded under `msgKey.varName` for diagnostics.
func (c *Catalog) format(ctx context.Context, msgKey, msg string, vars map[string]cty.Value) string {
	expr, diags := hclsyntax.ParseTemplate([]byte(msg), msgKey, hcl.InitialPos)
	if diags.HasErrors() {
		c.recordError(fmt.Errorf("message %q does not parse: %w", msgKey, diags))
		ctxlog.FromContext(ctx).Warn("Localized message failed to parse; returning raw text.",
			"key", msgKey, "error", diags.Error())
		return msg
	}

	variables := map[string]cty.Value{}
	for k, v := range vars {
		if v == cty.NilVal || v.IsNull() {
			v = cty.StringVal("")
		}
		variables[k] = v
	}
	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if _, ok := variables[name]; !ok {
			variables[name] = cty.StringVal("")
			c.recordMissing(msgKey + "." + name)
		}
	}

	val, diags := expr.Value(&hcl.EvalContext{Variables: variables})
	if diags.HasErrors() || val.IsNull() || val.Type() != cty.String {
		c.recordError(fmt.Errorf("message %q failed to format: %s", msgKey, diags.Error()))
		ctxlog.FromContext(ctx).Warn("Localized message failed to format; returning raw text.",
			"key", msgKey, "error", diags.Error())
		return msg
	}
	return val.AsString()
}

func (c *Catalog) recordMissing(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missing = append(c.missing, name)
}

func (c *Catalog) recordError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

// MissingVariables returns the recorded `msgKey.varName` diagnostics.
func (c *Catalog) MissingVariables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.missing...)
}

// Errors returns the collected formatting errors.
func (c *Catalog) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs...)
}
