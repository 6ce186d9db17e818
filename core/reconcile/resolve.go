package reconcile

// Resolution is the set of entities an incoming record links to.
type Resolution struct {
	// Album is nil when the record has no album id or the id is unknown.
	Album *Album

	// Artist is nil when neither a name match nor the album's artist exists.
	Artist *Artist

	// ArtistFromAlbum reports that Artist came from the album fallback.
	ArtistFromAlbum bool

	// Genres is never empty: it falls back to the Unknown genre alone.
	Genres []*Genre

	// UnknownGenre reports that the Unknown fallback was used.
	UnknownGenre bool

	// AlbumUnresolved reports a non-empty album id with no known album.
	AlbumUnresolved bool
}

// UnknownGenre returns the synthetic genre used when nothing else matches.
func UnknownGenre() *Genre {
	return &Genre{Key: UnknownGenreKey, Name: UnknownGenreName}
}

// Resolve links one record to known albums, artists and genres.
// It never creates entities; unresolved references simply stay empty.
func Resolve(rec IncomingRecord, genres GenreSet, known *Known) Resolution {
	var res Resolution

	if rec.AlbumID != "" {
		if album, ok := known.Albums[rec.AlbumID]; ok {
			res.Album = album
		} else {
			res.AlbumUnresolved = true
		}
	}

	if len(rec.Artists) > 0 {
		res.Artist = findArtist(known.Artists, rec.Artists[0])
	}
	if res.Artist == nil && res.Album != nil && res.Album.Artist != nil {
		res.Artist = res.Album.Artist
		res.ArtistFromAlbum = true
	}

	res.Genres = resolveGenres(genres, known.Genres)
	if len(res.Genres) == 0 {
		unknown, ok := known.Genres[UnknownGenreKey]
		if !ok {
			unknown = UnknownGenre()
		}
		res.Genres = []*Genre{unknown}
		res.UnknownGenre = true
	}

	return res
}

// findArtist is a linear scan; artist counts are small next to track counts.
// Matching is exact and case-sensitive.
func findArtist(artists []*Artist, name string) *Artist {
	if name == "" {
		return nil
	}
	for _, artist := range artists {
		if artist != nil && artist.Name == name {
			return artist
		}
	}
	return nil
}

// resolveGenres returns the known genres matching a normalized label or an
// umbrella category, in classification order, without duplicates.
func resolveGenres(set GenreSet, known map[string]*Genre) []*Genre {
	var out []*Genre
	seen := make(map[string]struct{})

	add := func(key string) {
		if key == "" || key == UnknownGenreKey {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		if genre, ok := known[key]; ok {
			seen[key] = struct{}{}
			out = append(out, genre)
		}
	}

	for _, key := range set.Normalized {
		add(key)
	}
	for _, umbrella := range set.Umbrella {
		add(NormalizeGenre(umbrella))
	}
	return out
}

// knownOrEmpty guards against a nil Known so callers can pass nothing.
func knownOrEmpty(k *Known) *Known {
	if k == nil {
		k = &Known{}
	}
	if k.Albums == nil {
		k.Albums = map[string]*Album{}
	}
	if k.Genres == nil {
		k.Genres = map[string]*Genre{}
	}
	if _, ok := k.Genres[UnknownGenreKey]; !ok {
		k.Genres[UnknownGenreKey] = UnknownGenre()
	}
	return k
}
