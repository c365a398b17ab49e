package fieldfilter

// DefaultKeywords is the built-in keyword table.
var DefaultKeywords = Keywords{
	Exclude: []string{
		"entertainment", "celebrity", "actor", "actress", "film", "movie", "television", "tv",
		"comedy", "comedian", "sports", "athlete", "music", "musician", "singer", "songwriter",
		"rapper", "hip hop", "rap", "lyrics", "pop", "rock", "band", "activism", "activist",
		"motivational", "self help", "business", "marketing", "art", "fashion",
	},
	// Include and Qualifiers are word-start stems.
	Include: []string{
		"philosoph", "ethic", "logic", "metaphysic", "epistemolog", "scien", "physic",
		"mathemat", "biolog", "chemi", "astronom", "psycholog", "sociolog", "econom",
		"histor", "linguist", "theolog", "political theory", "stoic", "existentialis",
		"buddhis", "confucian", "taois", "literat", "rhetoric",
	},
	Qualifiers: []string{
		"scien", "philosoph", "histor", "theor", "studies", "psycholog", "aesthetic",
		"critic", "sociolog", "ethic", "academ",
	},
	Indicators: []string{"theory", "studies", "research", "scholar", "academic"},
}

// Default returns a filter with the built-in keywords.
func Default() *Filter {
	return New(DefaultKeywords)
}
