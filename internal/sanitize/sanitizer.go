// Package sanitize provides the model-free second pass over extracted
// patterns. It treats the extraction step as untrusted: even when the model
// honors its prompt contract, every string field is inspected here for
// residual literal content (URLs, contact info, digit runs resembling phones
// or prices, known brand names) before anything reaches storage. This guard
// is static and auditable; it never re-invokes a model.
package sanitize

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/adforge/patternbank/internal/pattern"
)

// Neutral placeholders substituted for offending substrings.
const (
	PlaceholderLink    = "[link]"
	PlaceholderContact = "[contact]"
	PlaceholderNumber  = "[number]"
	PlaceholderFigure  = "[figure]"
	PlaceholderHandle  = "[handle]"
	PlaceholderBrand   = "[brand]"
)

// rule pairs a compiled regex with the placeholder it substitutes and a kind
// label for logging.
type rule struct {
	re          *regexp.Regexp
	kind        string
	placeholder string
}

// ruleSpecs define the static detection table. Ordering matters: more
// specific patterns run first so a URL is redacted as a link before its
// digits could match the number rule.
var ruleSpecs = []struct {
	expr        string
	kind        string
	placeholder string
}{
	// Explicit URLs and bare commercial domains.
	{`(?i)\b(?:https?://|www\.)\S+`, "url", PlaceholderLink},
	{`(?i)\b[a-z0-9][a-z0-9\-]*\.(?:com|net|org|io|co|shop|store|app)\b`, "domain", PlaceholderLink},
	// Email addresses.
	{`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`, "email", PlaceholderContact},
	// Social handles.
	{`@[A-Za-z0-9_]{2,}`, "handle", PlaceholderHandle},
	// Prices and percentage claims copied from the creative.
	{`[$€£¥]\s?\d+(?:[.,]\d+)?`, "price", PlaceholderFigure},
	{`\b\d+(?:[.,]\d+)?\s?(?:%|percent)\b`, "percent", PlaceholderFigure},
	// Phone-like digit runs: seven or more digits allowing separators.
	{`\+?\(?\d{2,4}\)?(?:[\s.\-]?\d{2,4}){2,}`, "phone", PlaceholderNumber},
	// Residual long digit runs (order numbers, years-off claims, SKUs).
	{`\b\d{4,}\b`, "digits", PlaceholderNumber},
}

// defaultBrandLexicon seeds the forbidden-term list with brand names the
// extractor is most likely to leak. Callers extend it per deployment.
var defaultBrandLexicon = []string{
	"nike", "adidas", "apple", "google", "amazon", "microsoft",
	"coca-cola", "pepsi", "mcdonald's", "mcdonalds", "samsung",
	"facebook", "instagram", "tiktok", "netflix", "starbucks",
}

// Sanitizer strips residual literal content from extracted patterns.
type Sanitizer struct {
	rules   []rule
	lexicon []rule
	logger  *slog.Logger
}

// Config holds configuration for the sanitizer.
type Config struct {
	// ExtraForbiddenTerms extends the default brand lexicon. Matching is
	// case-insensitive on word boundaries.
	ExtraForbiddenTerms []string
	// Logger for redaction diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// New creates a sanitizer with the static rule table plus the configured
// lexicon. Pattern compilation is infallible for the built-in table; extra
// terms are quoted before compilation.
func New(cfg Config) *Sanitizer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Sanitizer{logger: cfg.Logger}
	for _, spec := range ruleSpecs {
		s.rules = append(s.rules, rule{
			re:          regexp.MustCompile(spec.expr),
			kind:        spec.kind,
			placeholder: spec.placeholder,
		})
	}

	terms := append(append([]string(nil), defaultBrandLexicon...), cfg.ExtraForbiddenTerms...)
	for _, term := range terms {
		if term == "" {
			continue
		}
		s.lexicon = append(s.lexicon, rule{
			re:          regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
			kind:        "brand",
			placeholder: PlaceholderBrand,
		})
	}
	return s
}

// Sanitize returns a copy of rp with all offending substrings replaced by
// neutral placeholders. Enum-constrained fields that required redaction are
// coerced to the nearest allowed value instead of carrying a placeholder.
// The input is never mutated.
func (s *Sanitizer) Sanitize(rp *pattern.RawPattern) *pattern.RawPattern {
	out := cloneRaw(rp)

	redactions := 0
	for field, value := range out.StringFields() {
		cleaned, kinds := s.scrub(*value)
		if cleaned == *value {
			continue
		}
		redactions += len(kinds)

		if _, isEnum := pattern.EnumForField[field]; isEnum {
			cleaned = pattern.NearestAllowed(field, *value)
		}
		s.logger.Warn("redacted literal content from extracted pattern",
			"field", field,
			"kinds", kinds,
		)
		*value = cleaned
	}

	if redactions > 0 && out.ConfidenceScore > 0 {
		// Leakage means the extractor strayed from its contract; keep the
		// pattern but trust it less.
		out.ConfidenceScore *= 0.8
	}
	return out
}

// scrub applies the lexicon and the rule table to one string, returning the
// cleaned value and the kinds of redactions applied.
func (s *Sanitizer) scrub(value string) (string, []string) {
	var kinds []string
	result := value

	for _, r := range s.lexicon {
		if r.re.MatchString(result) {
			result = r.re.ReplaceAllString(result, r.placeholder)
			kinds = append(kinds, r.kind)
		}
	}
	for _, r := range s.rules {
		matched := false
		result = r.re.ReplaceAllStringFunc(result, func(m string) string {
			if isPlaceholder(m) {
				return m
			}
			matched = true
			return r.placeholder
		})
		if matched {
			kinds = append(kinds, r.kind)
		}
	}

	if len(kinds) == 0 {
		return value, nil
	}
	return strings.Join(strings.Fields(result), " "), kinds
}

// isPlaceholder guards against re-redacting an already substituted token.
func isPlaceholder(s string) bool {
	return strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")
}

func cloneRaw(rp *pattern.RawPattern) *pattern.RawPattern {
	out := *rp
	out.Layout.VisualHierarchy = append([]string(nil), rp.Layout.VisualHierarchy...)
	out.OffVocabulary = append([]string(nil), rp.OffVocabulary...)
	return &out
}
