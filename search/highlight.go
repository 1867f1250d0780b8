package search

import "strings"

// Segment is one span of a highlighted field. Concatenating the Text of all
// segments in order reproduces the original field exactly.
type Segment struct {
	Text    string `json:"text"`
	IsMatch bool   `json:"isMatch"`
}

// Highlight splits text into match/non-match spans for the given keyword.
// The scan is case-insensitive, left to right, and greedy: after consuming a
// match it resumes immediately after it, so occurrences never overlap
// ("aaa" with keyword "aa" matches at offset 0 only). Only non-empty spans
// are emitted; a keyword that never occurs yields a single unmatched span.
func Highlight(text, keyword string) []Segment {
	if text == "" {
		return nil
	}
	if keyword == "" {
		return []Segment{{Text: text}}
	}

	lowerText := strings.ToLower(text)
	lowerKeyword := strings.ToLower(keyword)
	if len(lowerText) != len(text) {
		// Lowercasing shifted byte offsets (rare non-1:1 case mappings);
		// fall back to an exact scan so spans still round-trip.
		lowerText, lowerKeyword = text, keyword
	}

	var segments []Segment
	last := 0
	for {
		i := strings.Index(lowerText[last:], lowerKeyword)
		if i < 0 {
			break
		}
		i += last
		if i > last {
			segments = append(segments, Segment{Text: text[last:i]})
		}
		end := i + len(lowerKeyword)
		segments = append(segments, Segment{Text: text[i:end], IsMatch: true})
		last = end
	}
	if last < len(text) {
		segments = append(segments, Segment{Text: text[last:]})
	}
	return segments
}
