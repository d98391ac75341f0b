package pattern

import "testing"

func TestInVocabulary(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  bool
	}{
		{"known structure", "layout.structure", StructureSplit, true},
		{"unknown structure", "layout.structure", "diagonal-cascade", false},
		{"known contrast", "color_psychology.contrast_level", ContrastHigh, true},
		{"unknown contrast", "color_psychology.contrast_level", "extreme", false},
		{"free text field always passes", "color_psychology.dominant_mood", "anything at all", true},
		{"unmapped field always passes", "hook_pattern.hook_type", "curiosity-gap", true},
		{"empty value on enum field", "layout.whitespace_usage", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InVocabulary(tt.field, tt.value); got != tt.want {
				t.Errorf("InVocabulary(%q, %q) = %v, want %v", tt.field, tt.value, got, tt.want)
			}
		})
	}
}

func TestNearestAllowed(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"exact match returns itself", "layout.structure", StructureGrid, StructureGrid},
		{"prefix coerces", "layout.structure", "single", StructureSingleFocus},
		{"prefix coerces whitespace", "layout.whitespace_usage", "min", WhitespaceMinimal},
		{"no overlap falls back to first", "color_psychology.contrast_level", "zzz", ContrastLow},
		{"free text field unchanged", "hook_pattern.headline_formula", "listicle", "listicle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NearestAllowed(tt.field, tt.value); got != tt.want {
				t.Errorf("NearestAllowed(%q, %q) = %q, want %q", tt.field, tt.value, got, tt.want)
			}
		})
	}
}

func TestStringFieldsCoversHierarchy(t *testing.T) {
	rp := &RawPattern{}
	rp.Layout.VisualHierarchy = []string{"a", "b", "c"}

	fields := rp.StringFields()
	for _, key := range []string{
		"layout.visual_hierarchy[0]",
		"layout.visual_hierarchy[1]",
		"layout.visual_hierarchy[2]",
	} {
		ptr, ok := fields[key]
		if !ok {
			t.Fatalf("missing field %s", key)
		}
		*ptr = "scrubbed"
	}
	for i, v := range rp.Layout.VisualHierarchy {
		if v != "scrubbed" {
			t.Errorf("hierarchy entry %d not reachable through StringFields: %q", i, v)
		}
	}
}
