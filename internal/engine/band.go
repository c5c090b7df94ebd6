package engine

import (
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxRatingScore is the implicit upper bound for rating bands that do not
// declare a max (e.g. "78+").
const maxRatingScore = 999

// Band is a named, inclusive numeric range. Open means the range has no upper
// bound. Bands arrive in two historical encodings: the canonical object form
// {name, min, max} and a compact string form where "A-B" means [A, B] and "A+"
// means [A, inf). Both decode to the same Band value.
type Band struct {
	Name string
	Min  float64
	Max  float64
	Open bool
}

// Contains reports whether v falls inside the band's range.
func (b Band) Contains(v float64) bool {
	return v >= b.Min && (b.Open || v <= b.Max)
}

type bandObject struct {
	Name string   `json:"name" yaml:"name"`
	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// parseBandString decodes the compact legacy encoding ("0-15", "180+").
func parseBandString(s string) (Band, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Band{}, false
	}
	if strings.HasSuffix(s, "+") {
		min, err := strconv.Atoi(strings.TrimSuffix(s, "+"))
		if err != nil {
			return Band{}, false
		}
		return Band{Name: s, Min: float64(min), Open: true}, true
	}
	if idx := strings.Index(s, "-"); idx > 0 {
		min, err1 := strconv.Atoi(s[:idx])
		max, err2 := strconv.Atoi(s[idx+1:])
		if err1 != nil || err2 != nil {
			return Band{}, false
		}
		return Band{Name: s, Min: float64(min), Max: float64(max)}, true
	}
	return Band{}, false
}

func bandFromObject(obj bandObject) (Band, bool) {
	if obj.Name == "" {
		return Band{}, false
	}
	b := Band{Name: obj.Name}
	if obj.Min != nil {
		b.Min = *obj.Min
	}
	if obj.Max != nil {
		b.Max = *obj.Max
	} else {
		b.Open = true
	}
	return b, true
}

// MarshalJSON emits the canonical object form; open bands omit max.
func (b Band) MarshalJSON() ([]byte, error) {
	obj := bandObject{Name: b.Name, Min: &b.Min}
	if !b.Open {
		max := b.Max
		obj.Max = &max
	}
	return json.Marshal(obj)
}

// BandList is an ordered band sequence. Decoding is tolerant of the legacy
// string encoding: a malformed string entry (or a nameless object) is skipped
// rather than rejected, matching the behaviour of the configurations this
// replaces. Strict shape validation happens later in NewStrategyConfig.
type BandList []Band

func (l *BandList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(BandList, 0, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(string(item))
		if strings.HasPrefix(trimmed, "\"") {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				continue
			}
			if b, ok := parseBandString(s); ok {
				out = append(out, b)
			}
			continue
		}
		var obj bandObject
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		if b, ok := bandFromObject(obj); ok {
			out = append(out, b)
		}
	}
	*l = out
	return nil
}

func (l *BandList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return &yaml.TypeError{Errors: []string{"band list must be a sequence"}}
	}
	out := make(BandList, 0, len(value.Content))
	for _, node := range value.Content {
		if node.Kind == yaml.ScalarNode {
			if b, ok := parseBandString(node.Value); ok {
				out = append(out, b)
			}
			continue
		}
		var obj bandObject
		if err := node.Decode(&obj); err != nil {
			continue
		}
		if b, ok := bandFromObject(obj); ok {
			out = append(out, b)
		}
	}
	*l = out
	return nil
}

// ResolveAgeBand returns the name of the first band containing ageDays. When
// no band matches, the last configured band's name is returned: anything older
// than every explicit range belongs in the oldest band.
func ResolveAgeBand(ageDays float64, bands []Band) string {
	for _, b := range bands {
		if b.Contains(ageDays) {
			return b.Name
		}
	}
	if len(bands) == 0 {
		return ""
	}
	return bands[len(bands)-1].Name
}

// ResolveRatingBand maps a raw rating value onto a band name. Already
// classified labels pass through on exact name match; otherwise the value is
// parsed as a score (a trailing "%" is tolerated) and scanned against the
// bands, open bands capped at maxRatingScore. Anything unresolvable falls back
// to FallbackRatingBand.
func ResolveRatingBand(raw string, bands []Band) string {
	trimmed := strings.TrimSpace(raw)
	for _, b := range bands {
		if trimmed == b.Name {
			return b.Name
		}
	}
	if score, ok := parseLeadingInt(strings.TrimSpace(strings.TrimSuffix(trimmed, "%"))); ok {
		for _, b := range bands {
			max := b.Max
			if b.Open {
				max = maxRatingScore
			}
			if float64(score) >= b.Min && float64(score) <= max {
				return b.Name
			}
		}
	}
	return FallbackRatingBand(bands)
}

// FallbackRatingBand is the quiet default for unparseable or out-of-range
// ratings: the last configured band (the top band in every shipped config).
// Kept separate so the policy can be tested and changed in one place.
func FallbackRatingBand(bands []Band) string {
	if len(bands) == 0 {
		return ""
	}
	return bands[len(bands)-1].Name
}

// parseLeadingInt parses the longest integer prefix of s, so "85.5" scores as
// 85 the way the legacy configurations expected.
func parseLeadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}
