// Package prompt renders ranked patterns into a deterministic text block for
// the downstream ad-generation prompt builder. Output is built only from the
// enumerated/abstract pattern fields, never identifiers, hashes or any
// field that could carry literal source content.
package prompt

import (
	"fmt"
	"strings"

	"github.com/adforge/patternbank/internal/pattern"
)

// Format renders each pattern as one numbered block with a layout line, a
// color-mood line, a hook line and a visuals line. Pure and deterministic:
// identical input always yields identical output. Empty input returns an
// empty string so callers can cheaply test whether any patterns were
// available.
func Format(patterns []*pattern.Pattern) string {
	if len(patterns) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Proven design patterns from high-performing ads:\n")
	for i, p := range patterns {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeBlock(&b, i+1, p)
	}
	return b.String()
}

func writeBlock(b *strings.Builder, n int, p *pattern.Pattern) {
	fmt.Fprintf(b, "\nPATTERN %d: %s\n", n, p.Name)

	fmt.Fprintf(b, "- Layout: %s structure, focal point %s, %s whitespace",
		p.Layout.Structure,
		p.Layout.FocalPointPosition,
		p.Layout.WhitespaceUsage,
	)
	if len(p.Layout.VisualHierarchy) > 0 {
		fmt.Fprintf(b, ", hierarchy: %s", strings.Join(p.Layout.VisualHierarchy, " > "))
	}
	b.WriteByte('\n')

	fmt.Fprintf(b, "- Color mood: %s (%s scheme, %s contrast, %s tone)\n",
		p.ColorPsychology.DominantMood,
		p.ColorPsychology.ColorScheme,
		p.ColorPsychology.ContrastLevel,
		p.ColorPsychology.EmotionalTone,
	)

	fmt.Fprintf(b, "- Hook: %s hook, %s formula, %s CTA, %s technique\n",
		p.HookPattern.HookType,
		p.HookPattern.HeadlineFormula,
		p.HookPattern.CTAStyle,
		p.HookPattern.PersuasionTechnique,
	)

	fmt.Fprintf(b, "- Visuals: %s, %s product, %s background%s%s\n",
		p.VisualElements.ImageStyle,
		p.VisualElements.ProductVisibility,
		p.VisualElements.BackgroundType,
		flag(p.VisualElements.HumanPresence, ", human presence"),
		flag(p.VisualElements.Iconography, ", iconography"),
	)
}

func flag(set bool, label string) string {
	if set {
		return label
	}
	return ""
}
