package similarity

// StopWords is an immutable set of normalized words ignored by keyword extraction.
type StopWords struct {
	words map[string]struct{}
}

// NewStopWords normalizes the given words and builds a set from them.
func NewStopWords(words ...string) StopWords {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if n := Normalize(w); n != "" {
			set[n] = struct{}{}
		}
	}
	return StopWords{words: set}
}

// Contains reports whether the normalized word is a stop word.
func (s StopWords) Contains(word string) bool {
	_, ok := s.words[word]
	return ok
}

// Len returns the number of distinct stop words.
func (s StopWords) Len() int { return len(s.words) }

// DefaultStopWords returns the shared Portuguese, English and Spanish stop word set.
func DefaultStopWords() StopWords { return defaultStopWords }

var defaultStopWords = NewStopWords(
	// Portuguese
	"o", "a", "os", "as", "de", "da", "do", "dos", "das", "que", "e", "em", "um",
	"uma", "uns", "umas", "para", "com", "sem", "como", "por", "no", "na", "nos",
	"nas", "se", "te", "lo", "le", "lhe", "mais", "mas", "muito", "muita", "muitos",
	"muitas", "pouco", "pouca", "poucos", "poucas", "bem", "mal", "já", "ainda",
	"também", "nem", "só", "não", "sim", "ou", "outra", "outro", "outras",
	"outros", "todo", "toda", "todos", "todas", "qual", "quais", "qualquer", "quaisquer",
	"algum", "alguma", "alguns", "algumas", "nenhum", "nenhuma", "nenhuns", "nenhumas",
	"cada",
	// English
	"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
	"from", "up", "about", "into", "through", "during", "before", "after", "above",
	"below", "between", "among", "under", "over", "can", "cannot", "will",
	"just", "should", "could", "would", "might", "must", "shall", "may", "this",
	"that", "these", "those", "i", "you", "he", "she", "it", "we", "they", "what",
	"which", "who", "when", "where", "why", "how", "all", "each", "every", "both",
	"few", "more", "most", "other", "some", "such", "only", "own", "same", "so",
	"than", "too", "very", "now",
	// Spanish
	"el", "la", "y", "en", "un", "es", "su", "son", "con", "al", "del", "los", "las",
	"si", "me", "ya", "muy", "pero", "ser", "hay", "este", "esta",
	"esto", "tiene", "hacer", "estar", "unos", "unas",
	"mi", "mis", "tu", "tus", "sus", "nuestro", "nuestra", "nuestros", "nuestras",
)
