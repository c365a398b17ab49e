package taxonomy

// TablesVersion identifies the built-in tables. Bump it whenever a list
// below changes, since classification is not re-derived for records that
// are already in a corpus.
const TablesVersion = "2024.3"

// DefaultBuckets is the built-in author table in priority order.
var DefaultBuckets = []Bucket{
	{
		Name: "ancient-western", Era: EraAncient, Tradition: TraditionWestern,
		Authors: []string{
			"socrates", "plato", "aristotle", "heraclitus", "parmenides", "pythagoras",
			"democritus", "epicurus", "zeno", "diogenes", "thales", "protagoras",
			"seneca", "epictetus", "marcus aurelius", "cicero", "lucretius", "plotinus",
			"sextus empiricus", "euclid", "archimedes", "hippocrates", "homer", "sophocles",
			"augustine", "boethius",
		},
	},
	{
		Name: "ancient-eastern", Era: EraAncient, Tradition: TraditionEastern,
		Authors: []string{
			"confucius", "lao tzu", "laozi", "lao tse", "zhuangzi", "chuang tzu", "mencius",
			"mozi", "xunzi", "han feizi", "sun tzu", "buddha", "siddhartha gautama",
			"nagarjuna", "patanjali", "chanakya", "kautilya", "valmiki", "vyasa",
			"bodhidharma", "dogen",
		},
	},
	{
		Name: "modern-western", Era: EraModern, Tradition: TraditionWestern,
		Authors: []string{
			"descartes", "spinoza", "leibniz", "locke", "hume", "berkeley", "kant", "hegel",
			"schopenhauer", "kierkegaard", "nietzsche", "mill", "hobbes", "rousseau",
			"voltaire", "montaigne", "pascal", "bacon", "newton", "galileo", "darwin",
			"marx", "william james", "emerson", "thoreau", "machiavelli", "erasmus",
		},
	},
	{
		Name: "contemporary-western", Era: EraContemporary, Tradition: TraditionWestern,
		Authors: []string{
			"wittgenstein", "russell", "heidegger", "sartre", "camus", "de beauvoir",
			"simone weil", "popper", "kuhn", "quine", "rawls", "nozick", "foucault",
			"derrida", "arendt", "einstein", "feynman", "bohr", "heisenberg", "turing",
			"chomsky", "dennett", "nagel", "searle", "sagan", "hawking",
		},
	},
	{
		Name: "contemporary-eastern", Era: EraContemporary, Tradition: TraditionEastern,
		Authors: []string{
			"krishnamurti", "vivekananda", "aurobindo", "tagore", "gandhi",
			"dalai lama", "thich nhat hanh", "suzuki", "nishida", "watsuji", "ramana maharshi",
		},
	},
	{
		Name: "other", Era: EraModern, Tradition: TraditionOther,
		Authors: []string{
			"rumi", "ibn khaldun", "averroes", "ibn rushd", "avicenna", "ibn sina",
			"al ghazali", "al farabi", "maimonides", "fanon", "achebe", "wiredu",
		},
	},
}

// DefaultConcepts is the built-in concept table. Order decides which topics
// survive the cap.
var DefaultConcepts = []Concept{
	{Label: "knowledge", Keywords: []string{"know", "knowledge", "learn", "understand", "wisdom"}},
	{Label: "ethics", Keywords: []string{"virtue", "good", "evil", "moral", "ethics", "justice", "duty"}},
	{Label: "existence", Keywords: []string{"exist", "existence", "being", "life", "live", "living"}},
	{Label: "mind", Keywords: []string{"mind", "thought", "think", "consciousness", "reason"}},
	{Label: "truth", Keywords: []string{"truth", "true", "false", "certainty", "doubt"}},
	{Label: "freedom", Keywords: []string{"free", "freedom", "liberty", "choice"}},
	{Label: "nature", Keywords: []string{"nature", "natural", "universe", "world", "cosmos"}},
	{Label: "science", Keywords: []string{"science", "experiment", "theory", "hypothesis", "evidence"}},
	{Label: "mathematics", Keywords: []string{"mathematics", "number", "geometry", "proof", "infinity"}},
	{Label: "language", Keywords: []string{"language", "word", "words", "meaning", "speak"}},
	{Label: "society", Keywords: []string{"society", "state", "law", "power", "politics", "people"}},
	{Label: "death", Keywords: []string{"death", "die", "mortal", "mortality"}},
	{Label: "happiness", Keywords: []string{"happiness", "happy", "joy", "pleasure", "suffering"}},
	{Label: "love", Keywords: []string{"love", "friendship", "friend", "compassion"}},
	{Label: "time", Keywords: []string{"time", "change", "past", "future", "eternity"}},
	{Label: "beauty", Keywords: []string{"beauty", "beautiful", "art", "aesthetic"}},
	{Label: "religion", Keywords: []string{"god", "gods", "divine", "faith", "soul"}},
	{Label: "self", Keywords: []string{"self", "thyself", "yourself", "identity"}},
}

// DefaultEasternFieldKeywords file unknown authors under the eastern
// tradition when their category field mentions one of these.
var DefaultEasternFieldKeywords = []string{
	"eastern", "buddhism", "buddhist", "confucian", "confucianism", "taoism", "taoist",
	"daoism", "zen", "vedanta", "hindu", "indian philosophy", "chinese philosophy",
	"japanese philosophy",
}

// Default returns a classifier loaded with the built-in tables.
func Default() *Classifier {
	c := NewClassifier()
	for _, b := range DefaultBuckets {
		c.AddBucket(b.Name, b.Era, b.Tradition, b.Authors)
	}
	for _, concept := range DefaultConcepts {
		c.AddConcept(concept.Label, concept.Keywords)
	}
	c.SetEasternFieldKeywords(DefaultEasternFieldKeywords)
	return c
}
