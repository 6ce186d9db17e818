package reconcile

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// UnknownGenreName is the umbrella category and display name used when
	// nothing classifies.
	UnknownGenreName = "Unknown"

	// UnknownGenreKey is the normalized key of the synthetic Unknown genre.
	UnknownGenreKey = "unknown"
)

// GenreSet holds the three genre projections stored on a track.
type GenreSet struct {
	Raw        []string
	Normalized []string
	Umbrella   []string
}

// genreSynonyms maps normalized spellings onto one canonical key.
var genreSynonyms = map[string]string{
	"hiphop":              "hip hop",
	"hip hop rap":         "hip hop",
	"r and b":             "rnb",
	"r n b":               "rnb",
	"rhythm and blues":    "rnb",
	"rock n roll":         "rock and roll",
	"rock'n'roll":         "rock and roll",
	"rock 'n' roll":       "rock and roll",
	"rocknroll":           "rock and roll",
	"drum n bass":         "drum and bass",
	"drum'n'bass":         "drum and bass",
	"dnb":                 "drum and bass",
	"d and b":             "drum and bass",
	"electronica":         "electronic",
	"electro":             "electronic",
	"sound track":         "soundtrack",
	"soundtracks":         "soundtrack",
	"original soundtrack": "soundtrack",
	"ost":                 "soundtrack",
	"score":               "soundtrack",
	"film score":          "soundtrack",
	"alt rock":            "alternative rock",
	"alt":                 "alternative",
	"synth pop":           "synthpop",
	"electro pop":         "electropop",
	"kpop":                "k pop",
	"jpop":                "j pop",
	"lofi":                "lo fi",
	"classic":             "classical",
	"world music":         "world",
	"c and w":             "country",
}

// umbrellaExact maps whole normalized keys that keyword matching would get wrong.
var umbrellaExact = map[string]string{
	"trip hop":           "Electronic",
	"lo fi":              "Electronic",
	"edm":                "Electronic",
	"drum and bass":      "Electronic",
	"synthpop":           "Pop",
	"electropop":         "Pop",
	"easy listening":     "Pop",
	"singer songwriter":  "Folk",
	"americana":          "Country",
	"bluegrass":          "Country",
	"bossa nova":         "Latin",
	"reggaeton":          "Latin",
	"dubstep":            "Electronic",
	"rock and roll":      "Rock",
	"rnb":                "R&B",
	"soundtrack":         "Soundtrack",
	"alternative":        "Rock",
	"grunge":             "Rock",
	"opera":              "Classical",
	"world":              "World",
	"afrobeat":           "World",
	"new wave":           "Rock",
}

// umbrellaKeywords is matched on whole words, in order; the first hit wins.
var umbrellaKeywords = []struct {
	keyword  string
	umbrella string
}{
	{"hip hop", "Hip-Hop"},
	{"rap", "Hip-Hop"},
	{"trap", "Hip-Hop"},
	{"rnb", "R&B"},
	{"soul", "R&B"},
	{"funk", "R&B"},
	{"metal", "Metal"},
	{"punk", "Rock"},
	{"rock", "Rock"},
	{"jazz", "Jazz"},
	{"swing", "Jazz"},
	{"bebop", "Jazz"},
	{"blues", "Blues"},
	{"classical", "Classical"},
	{"baroque", "Classical"},
	{"orchestral", "Classical"},
	{"symphony", "Classical"},
	{"country", "Country"},
	{"folk", "Folk"},
	{"reggae", "Reggae"},
	{"ska", "Reggae"},
	{"dub", "Reggae"},
	{"dancehall", "Reggae"},
	{"latin", "Latin"},
	{"salsa", "Latin"},
	{"samba", "Latin"},
	{"tango", "Latin"},
	{"electronic", "Electronic"},
	{"house", "Electronic"},
	{"techno", "Electronic"},
	{"trance", "Electronic"},
	{"ambient", "Electronic"},
	{"dance", "Electronic"},
	{"disco", "Electronic"},
	{"pop", "Pop"},
	{"indie", "Rock"},
	{"soundtrack", "Soundtrack"},
	{"world", "World"},
}

// SplitGenres splits composite labels ("Rock/Pop", "Jazz; Blues") into
// independent labels. Fragments are trimmed and empty fragments are skipped;
// every non-empty fragment is returned exactly once per occurrence, in order.
func SplitGenres(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		for _, part := range strings.FieldsFunc(label, isGenreSeparator) {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func isGenreSeparator(r rune) bool {
	switch r {
	case ';', '/', '|', ',', '\\':
		return true
	}
	return false
}

// NormalizeGenre folds a label to the key used for lookup and deduplication.
// "Hip-Hop", "hip hop" and "HipHop" all yield "hip hop".
func NormalizeGenre(label string) string {
	// transformers and casers carry state, so they are built per call
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, label)
	if err != nil {
		folded = label
	}
	folded = cases.Fold().String(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r == '&' || r == '+':
			b.WriteString(" and ")
		case r == '-' || r == '_' || r == '.' || unicode.IsSpace(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	key := strings.Join(strings.Fields(b.String()), " ")
	if canonical, ok := genreSynonyms[key]; ok {
		return canonical
	}
	return key
}

// UmbrellaGenre maps a normalized key to its umbrella category.
func UmbrellaGenre(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if umbrella, ok := umbrellaExact[key]; ok {
		return umbrella, true
	}
	padded := " " + key + " "
	for _, kw := range umbrellaKeywords {
		if strings.Contains(padded, " "+kw.keyword+" ") {
			return kw.umbrella, true
		}
	}
	return "", false
}

// ClassifyGenres derives the raw, normalized and umbrella projections for a
// track's genre labels. Umbrella is exactly ["Unknown"] when nothing maps.
func ClassifyGenres(labels []string) GenreSet {
	set := GenreSet{
		Raw:        make([]string, 0, len(labels)),
		Normalized: make([]string, 0, len(labels)),
		Umbrella:   make([]string, 0, 2),
	}

	seenRaw := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, dup := seenRaw[label]; dup {
			continue
		}
		seenRaw[label] = struct{}{}
		set.Raw = append(set.Raw, label)
	}

	seenKey := make(map[string]struct{})
	seenUmbrella := make(map[string]struct{})
	for _, part := range SplitGenres(set.Raw) {
		key := NormalizeGenre(part)
		if key == "" {
			continue
		}
		if _, dup := seenKey[key]; dup {
			continue
		}
		seenKey[key] = struct{}{}
		set.Normalized = append(set.Normalized, key)

		if umbrella, ok := UmbrellaGenre(key); ok {
			if _, dup := seenUmbrella[umbrella]; !dup {
				seenUmbrella[umbrella] = struct{}{}
				set.Umbrella = append(set.Umbrella, umbrella)
			}
		}
	}

	if len(set.Umbrella) == 0 {
		set.Umbrella = append(set.Umbrella, UnknownGenreName)
	}
	return set
}
