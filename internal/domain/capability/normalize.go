package capability

// Field size caps applied to every descriptor before it enters the catalog.
// Scoring normalizes hit counts against these bounded fields, so no
// capability can buy ranking weight with verbose metadata.
const (
	MaxDescriptionRunes = 600
	MaxKeywordRunes     = 40
	MaxKeywords         = 16
	MaxExampleRunes     = 160
	MaxExamples         = 8
	MaxIdentityRunes    = 120
	MaxExcludes         = 12
)

// Normalize returns a copy of d with every text field clamped to its cap.
// Oversized strings are truncated at a rune boundary; oversized sets keep
// their leading entries in input order.
func Normalize(d Descriptor) Descriptor {
	d.Description = truncateRunes(d.Description, MaxDescriptionRunes)

	d.Keywords = clampSet(d.Keywords, MaxKeywords, MaxKeywordRunes)
	d.ExampleQueries = clampSet(d.ExampleQueries, MaxExamples, MaxExampleRunes)

	d.Identity.MainIdentifier = truncateRunes(d.Identity.MainIdentifier, MaxIdentityRunes)
	d.Identity.CoreActivity = truncateRunes(d.Identity.CoreActivity, MaxIdentityRunes)
	d.Identity.UniqueScope = truncateRunes(d.Identity.UniqueScope, MaxIdentityRunes)
	d.Identity.GeographicScope = truncateRunes(d.Identity.GeographicScope, MaxIdentityRunes)

	d.Excludes = clampSet(d.Excludes, MaxExcludes, MaxKeywordRunes)

	return d
}

// clampSet caps the set length, drops empty entries, and truncates each
// remaining entry to maxRunes.
func clampSet(in []string, maxLen, maxRunes int) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, min(len(in), maxLen))
	for _, s := range in {
		if s == "" {
			continue
		}
		out = append(out, truncateRunes(s, maxRunes))
		if len(out) == maxLen {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// truncateRunes cuts s to at most n runes without splitting a rune.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
