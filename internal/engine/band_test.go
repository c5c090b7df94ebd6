package engine

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func ageBandsFixture() BandList {
	return BandList{
		{Name: "0-15", Min: 0, Max: 15},
		{Name: "16-30", Min: 16, Max: 30},
		{Name: "31-180", Min: 31, Max: 180},
		{Name: "181+", Min: 181, Open: true},
	}
}

func ratingBandsFixture() BandList {
	return BandList{
		{Name: "0-39", Min: 0, Max: 39},
		{Name: "40-59", Min: 40, Max: 59},
		{Name: "60-77", Min: 60, Max: 77},
		{Name: "78+", Min: 78, Open: true},
	}
}

func TestResolveAgeBand(t *testing.T) {
	bands := ageBandsFixture()

	tests := []struct {
		age  float64
		want string
	}{
		{0, "0-15"},
		{15, "0-15"},
		{16, "16-30"},
		{180, "31-180"},
		{181, "181+"},
		{5000, "181+"},
	}
	for _, tt := range tests {
		if got := ResolveAgeBand(tt.age, bands); got != tt.want {
			t.Errorf("ResolveAgeBand(%v) = %q, want %q", tt.age, got, tt.want)
		}
	}
}

func TestResolveAgeBand_GapFallsToLastBand(t *testing.T) {
	// A malformed config with a hole between bands: anything unmatched lands
	// in the last configured band rather than erroring.
	bands := BandList{
		{Name: "0-10", Min: 0, Max: 10},
		{Name: "20-30", Min: 20, Max: 30},
	}
	if got := ResolveAgeBand(15, bands); got != "20-30" {
		t.Errorf("expected gap value to fall back to last band, got %q", got)
	}
}

func TestResolveRatingBand_ExactNameMatch(t *testing.T) {
	bands := ratingBandsFixture()
	if got := ResolveRatingBand("  60-77 ", bands); got != "60-77" {
		t.Errorf("expected pass-through of band label, got %q", got)
	}
}

func TestResolveRatingBand_NumericScores(t *testing.T) {
	bands := ratingBandsFixture()

	tests := []struct {
		raw  string
		want string
	}{
		{"85", "78+"},
		{"85%", "78+"},
		{"85.5", "78+"}, // integer prefix parse, like the legacy configs
		{"39", "0-39"},
		{"40", "40-59"},
		{"0", "0-39"},
		{"999", "78+"}, // open band caps at the sentinel max
	}
	for _, tt := range tests {
		if got := ResolveRatingBand(tt.raw, bands); got != tt.want {
			t.Errorf("ResolveRatingBand(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestResolveRatingBand_UnparseableFallsBack(t *testing.T) {
	bands := ratingBandsFixture()
	for _, raw := range []string{"", "None", "n/a", "excellent"} {
		if got := ResolveRatingBand(raw, bands); got != "78+" {
			t.Errorf("ResolveRatingBand(%q) = %q, want fallback %q", raw, got, "78+")
		}
	}
}

func TestFallbackRatingBand_DerivedFromConfig(t *testing.T) {
	bands := BandList{
		{Name: "low", Min: 0, Max: 49},
		{Name: "high", Min: 50, Open: true},
	}
	if got := FallbackRatingBand(bands); got != "high" {
		t.Errorf("fallback should be the last configured band, got %q", got)
	}
	if got := FallbackRatingBand(nil); got != "" {
		t.Errorf("fallback with no bands should be empty, got %q", got)
	}
}

func TestBandList_UnmarshalJSON_LegacyStrings(t *testing.T) {
	data := `["0-15", "16-30", "180+"]`

	var bands BandList
	if err := json.Unmarshal([]byte(data), &bands); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(bands) != 3 {
		t.Fatalf("expected 3 bands, got %d", len(bands))
	}
	if bands[0] != (Band{Name: "0-15", Min: 0, Max: 15}) {
		t.Errorf("unexpected first band: %+v", bands[0])
	}
	if bands[2] != (Band{Name: "180+", Min: 180, Open: true}) {
		t.Errorf("unexpected open band: %+v", bands[2])
	}
}

func TestBandList_UnmarshalJSON_ObjectForm(t *testing.T) {
	data := `[{"name":"fresh","min":0,"max":30},{"name":"aged","min":31}]`

	var bands BandList
	if err := json.Unmarshal([]byte(data), &bands); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(bands) != 2 {
		t.Fatalf("expected 2 bands, got %d", len(bands))
	}
	if !bands[1].Open {
		t.Errorf("band without max should be open-ended: %+v", bands[1])
	}
}

func TestBandList_UnmarshalJSON_SkipsMalformed(t *testing.T) {
	// Tolerant legacy parsing: junk strings and nameless objects are dropped,
	// not rejected.
	data := `["0-15", "garbage", "x+", {"min":5,"max":9}, "16+"]`

	var bands BandList
	if err := json.Unmarshal([]byte(data), &bands); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(bands) != 2 {
		t.Fatalf("expected malformed entries to be skipped, got %d bands", len(bands))
	}
	if bands[0].Name != "0-15" || bands[1].Name != "16+" {
		t.Errorf("unexpected bands after skip: %+v", bands)
	}
}

func TestBand_JSONRoundTrip(t *testing.T) {
	in := BandList{
		{Name: "0-15", Min: 0, Max: 15},
		{Name: "16+", Min: 16, Open: true},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out BandList
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Errorf("round trip mismatch: %+v vs %+v", in, out)
	}
}

func TestBandList_UnmarshalYAML_BothForms(t *testing.T) {
	data := `
- "0-15"
- {name: "16-30", min: 16, max: 30}
- "31+"
`
	var bands BandList
	if err := yaml.Unmarshal([]byte(data), &bands); err != nil {
		t.Fatalf("yaml unmarshal failed: %v", err)
	}
	if len(bands) != 3 {
		t.Fatalf("expected 3 bands, got %d", len(bands))
	}
	if bands[1] != (Band{Name: "16-30", Min: 16, Max: 30}) {
		t.Errorf("unexpected object-form band: %+v", bands[1])
	}
	if !bands[2].Open {
		t.Errorf("expected open band, got %+v", bands[2])
	}
}
