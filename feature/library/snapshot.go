package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"catalog-sync/core/reconcile"
	"catalog-sync/core/storage"
	"catalog-sync/core/utils"

	"github.com/minio/minio-go/v7"
)

// LatestObjectKey selects the most recently modified snapshot object.
const LatestObjectKey = "latest"

// RemoteArtist is an artist as listed by the remote server.
type RemoteArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RemoteAlbum is an album as listed by the remote server.
// ArtistName is used when the remote server gives no artist id.
type RemoteAlbum struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ArtistID   string `json:"artist_id,omitempty"`
	ArtistName string `json:"artist_name,omitempty"`
}

// Snapshot is one bulk export of a remote catalog.
type Snapshot struct {
	Items   []reconcile.IncomingRecord
	Artists []RemoteArtist
	Albums  []RemoteAlbum
}

// DecodeSnapshot reads a snapshot from JSON. Both {"Items": [...]} and a bare
// array of items are accepted. Artists and albums missing from the document
// are derived from the items.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	var rawItems, rawArtists, rawAlbums []any
	switch v := doc.(type) {
	case []any:
		rawItems = v
	case map[string]any:
		var ok bool
		if rawItems, ok = asList(v["Items"]); !ok {
			return nil, fmt.Errorf("%w: Items must be an array", ErrInvalidSnapshot)
		}
		rawArtists, _ = asList(v["Artists"])
		rawAlbums, _ = asList(v["Albums"])
	default:
		return nil, fmt.Errorf("%w: expected an object or an array", ErrInvalidSnapshot)
	}

	snap := &Snapshot{Items: make([]reconcile.IncomingRecord, 0, len(rawItems))}
	artists := newArtistSet()
	albums := newAlbumSet()

	for _, raw := range rawArtists {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		artists.add(utils.ToString(m["Id"]), utils.ToString(m["Name"]))
	}
	for _, raw := range rawAlbums {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		albums.add(albumFromMap(m))
	}

	for i, raw := range rawItems {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: item %d is not an object", ErrInvalidSnapshot, i)
		}
		rec := recordFromMap(m)
		snap.Items = append(snap.Items, rec)

		for _, ref := range namedRefs(m["ArtistItems"]) {
			artists.add(ref.ID, ref.Name)
		}
		albumArtists := namedRefs(m["AlbumArtists"])
		for _, ref := range albumArtists {
			artists.add(ref.ID, ref.Name)
		}

		if len(rawAlbums) == 0 && rec.AlbumID != "" {
			album := RemoteAlbum{
				ID:         rec.AlbumID,
				Name:       utils.ToString(m["Album"]),
				ArtistName: utils.ToString(m["AlbumArtist"]),
			}
			if len(albumArtists) > 0 {
				album.ArtistID = albumArtists[0].ID
				if album.ArtistName == "" {
					album.ArtistName = albumArtists[0].Name
				}
			}
			albums.add(album)
		}
	}

	snap.Artists = artists.list
	snap.Albums = albums.list
	return snap, nil
}

// LoadSnapshotFile decodes a snapshot from a local file.
func LoadSnapshotFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	return DecodeSnapshot(f)
}

// LoadSnapshotObject decodes a snapshot stored in the bucket under key.
func LoadSnapshotObject(ctx context.Context, client storage.Client, bucket, key string) (*Snapshot, error) {
	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if storage.IsNotFound(err) {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot object %s: %w", key, err)
	}
	defer obj.Close()

	// minio reports a missing key on the first read.
	snap, err := DecodeSnapshot(obj)
	if storage.IsNotFound(err) {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot object %s: %w", key, err)
	}
	return snap, nil
}

// LatestSnapshotKey returns the key of the newest JSON object under prefix.
func LatestSnapshotKey(ctx context.Context, client storage.Client, bucket, prefix string) (string, error) {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var latest minio.ObjectInfo
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return "", fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		if latest.Key == "" || obj.LastModified.After(latest.LastModified) {
			latest = obj
		}
	}

	if latest.Key == "" {
		return "", fmt.Errorf("%s/%s: %w", bucket, prefix, ErrSnapshotNotFound)
	}
	return latest.Key, nil
}

func recordFromMap(m map[string]any) reconcile.IncomingRecord {
	rec := reconcile.IncomingRecord{
		ID:                utils.ToString(m["Id"]),
		Name:              utils.ToString(m["Name"]),
		AlbumID:           utils.ToString(m["AlbumId"]),
		Artists:           utils.ToStringSlice(m["Artists"]),
		Genres:            utils.ToStringSlice(m["Genres"]),
		RunTimeTicks:      utils.ToInt64(m["RunTimeTicks"]),
		IndexNumber:       utils.ToInt(m["IndexNumber"]),
		ParentIndexNumber: utils.ToInt(m["ParentIndexNumber"]),
		PlayCount:         utils.ToInt(m["PlayCount"]),
		IsFavorite:        utils.ToBool(m["IsFavorite"]),
		Container:         utils.ToString(m["Container"]),
		DateCreated:       utils.ToString(m["DateCreated"]),
	}

	if len(rec.Artists) == 0 {
		for _, ref := range namedRefs(m["ArtistItems"]) {
			rec.Artists = append(rec.Artists, ref.Name)
		}
	}
	if len(rec.Genres) == 0 {
		for _, ref := range namedRefs(m["GenreItems"]) {
			rec.Genres = append(rec.Genres, ref.Name)
		}
	}

	// Per-user state usually lives under UserData.
	if userData, ok := m["UserData"].(map[string]any); ok {
		if _, set := m["PlayCount"]; !set {
			rec.PlayCount = utils.ToInt(userData["PlayCount"])
		}
		if _, set := m["IsFavorite"]; !set {
			rec.IsFavorite = utils.ToBool(userData["IsFavorite"])
		}
	}

	return rec
}

func albumFromMap(m map[string]any) RemoteAlbum {
	album := RemoteAlbum{
		ID:         utils.ToString(m["Id"]),
		Name:       utils.ToString(m["Name"]),
		ArtistID:   utils.ToString(m["ArtistId"]),
		ArtistName: utils.ToString(m["AlbumArtist"]),
	}
	if refs := namedRefs(m["AlbumArtists"]); len(refs) > 0 {
		if album.ArtistID == "" {
			album.ArtistID = refs[0].ID
		}
		if album.ArtistName == "" {
			album.ArtistName = refs[0].Name
		}
	}
	return album
}

func asList(v any) ([]any, bool) {
	if v == nil {
		return nil, true
	}
	list, ok := v.([]any)
	return list, ok
}

// namedRefs reads [{"Id": ..., "Name": ...}] lists.
func namedRefs(v any) []RemoteArtist {
	list, _ := v.([]any)
	out := make([]RemoteArtist, 0, len(list))
	for _, raw := range list {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name := utils.ToString(m["Name"])
		if name == "" {
			continue
		}
		out = append(out, RemoteArtist{ID: utils.ToString(m["Id"]), Name: name})
	}
	return out
}

type artistSet struct {
	seen map[string]struct{}
	list []RemoteArtist
}

func newArtistSet() *artistSet {
	return &artistSet{seen: make(map[string]struct{})}
}

func (s *artistSet) add(id, name string) {
	if id == "" || name == "" {
		return
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.list = append(s.list, RemoteArtist{ID: id, Name: name})
}

type albumSet struct {
	seen map[string]struct{}
	list []RemoteAlbum
}

func newAlbumSet() *albumSet {
	return &albumSet{seen: make(map[string]struct{})}
}

func (s *albumSet) add(a RemoteAlbum) {
	if a.ID == "" {
		return
	}
	if _, ok := s.seen[a.ID]; ok {
		return
	}
	s.seen[a.ID] = struct{}{}
	s.list = append(s.list, a)
}
