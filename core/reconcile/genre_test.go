package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitGenres(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   []string
	}{
		{"Single", []string{"Rock"}, []string{"Rock"}},
		{"Slash", []string{"Rock/Pop"}, []string{"Rock", "Pop"}},
		{"Mixed separators", []string{"Jazz; Blues | Soul, Funk"}, []string{"Jazz", "Blues", "Soul", "Funk"}},
		{"Empty fragments dropped", []string{"Rock//", " ; "}, []string{"Rock"}},
		{"Ampersand kept", []string{"Drum & Bass"}, []string{"Drum & Bass"}},
		{"Repeats kept in order", []string{"Rock/Rock", "Pop"}, []string{"Rock", "Rock", "Pop"}},
		{"Nil", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitGenres(tt.labels))
		})
	}
}

func TestNormalizeGenre(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Hip Hop", "hip hop"},
		{"hip-hop", "hip hop"},
		{"HipHop", "hip hop"},
		{"  Hip   Hop ", "hip hop"},
		{"R&B", "rnb"},
		{"Rhythm & Blues", "rnb"},
		{"Électronica", "electronic"},
		{"Drum n Bass", "drum and bass"},
		{"Alt-Rock", "alternative rock"},
		{"Rock", "rock"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeGenre(tt.label))
		})
	}
}

func TestUmbrellaGenre(t *testing.T) {
	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"alternative rock", "Rock", true},
		{"heavy metal", "Metal", true},
		{"k pop", "Pop", true},
		{"hip hop", "Hip-Hop", true},
		{"trip hop", "Electronic", true},
		{"rnb", "R&B", true},
		{"deep house", "Electronic", true},
		{"soundtrack", "Soundtrack", true},
		{"polka", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := UmbrellaGenre(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyGenres(t *testing.T) {
	t.Run("Empty labels fall back to Unknown", func(t *testing.T) {
		set := ClassifyGenres(nil)
		assert.Empty(t, set.Raw)
		assert.Empty(t, set.Normalized)
		assert.Equal(t, []string{UnknownGenreName}, set.Umbrella)
	})

	t.Run("Unclassifiable labels fall back to Unknown", func(t *testing.T) {
		set := ClassifyGenres([]string{"Polka"})
		assert.Equal(t, []string{"Polka"}, set.Raw)
		assert.Equal(t, []string{"polka"}, set.Normalized)
		assert.Equal(t, []string{UnknownGenreName}, set.Umbrella)
	})

	t.Run("Composite label is split", func(t *testing.T) {
		set := ClassifyGenres([]string{"Rock/Pop"})
		assert.Equal(t, []string{"Rock/Pop"}, set.Raw)
		assert.Equal(t, []string{"rock", "pop"}, set.Normalized)
		assert.Equal(t, []string{"Rock", "Pop"}, set.Umbrella)
	})

	t.Run("Synonyms collapse to one key", func(t *testing.T) {
		set := ClassifyGenres([]string{"Hip-Hop", "hip hop", "Hip-Hop", "Rap"})
		assert.Equal(t, []string{"Hip-Hop", "hip hop", "Rap"}, set.Raw)
		assert.Equal(t, []string{"hip hop", "rap"}, set.Normalized)
		assert.Equal(t, []string{"Hip-Hop"}, set.Umbrella)
	})

	t.Run("Blank labels ignored", func(t *testing.T) {
		set := ClassifyGenres([]string{"", "  ", "Jazz"})
		assert.Equal(t, []string{"Jazz"}, set.Raw)
		assert.Equal(t, []string{"Jazz"}, set.Umbrella)
	})
}
