package analytics

import "regexp"

// moodRule maps a genre keyword pattern to a mood category.
type moodRule struct {
	mood    Mood
	pattern *regexp.Regexp
}

// moodRules is evaluated in order; the first match wins. The order is part
// of the classification contract: reordering rules changes historical
// output, so it must stay exactly as listed.
var moodRules = []moodRule{
	{MoodChill, regexp.MustCompile(`(?i)ambient|chill|lo-?fi|downtempo|trip.?hop|new.?age|drone`)},
	{MoodEnergetic, regexp.MustCompile(`(?i)dance|edm|electro|house|techno|trance|drum.?(and|&|n).?bass|dubstep|club|eurodance`)},
	{MoodMelancholic, regexp.MustCompile(`(?i)blues|emo|goth(ic)?|doom|sad|slowcore|shoegaze`)},
	{MoodHappy, regexp.MustCompile(`(?i)pop|funk|reggae|disco|ska|afrobeat|sunshine`)},
	{MoodFocused, regexp.MustCompile(`(?i)classical|jazz|instrumental|study|piano|baroque|minimalism`)},
	{MoodRomantic, regexp.MustCompile(`(?i)r&b|rnb|rhythm.?(and|&|n).?blues|soul|ballad|love|bossa`)},
	{MoodAggressive, regexp.MustCompile(`(?i)metal|punk|hardcore|thrash|screamo|industrial|grindcore`)},
}

// InferMood classifies a free-text genre into one of the eight mood
// categories. Genres matching no rule, including the empty string, are
// neutral.
func InferMood(genre string) Mood {
	if genre == "" {
		return MoodNeutral
	}
	for _, rule := range moodRules {
		if rule.pattern.MatchString(genre) {
			return rule.mood
		}
	}
	return MoodNeutral
}
