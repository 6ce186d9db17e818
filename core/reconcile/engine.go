package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strconv"
)

// DefaultReportInterval is the maximum number of records between progress reports.
const DefaultReportInterval = 500

// Reconciler merges a remote catalog batch into a Store.
// A Reconciler is not safe for concurrent calls against the same store;
// callers serialize syncs per media source.
type Reconciler struct {
	store    Store
	observer Observer
	band     ProgressBand
	interval int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithObserver sets the event sink for input anomalies.
func WithObserver(o Observer) Option {
	return func(r *Reconciler) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithProgressBand sets the fractions reported at start, end of updates and completion.
func WithProgressBand(b ProgressBand) Option {
	return func(r *Reconciler) {
		r.band = b.normalized()
	}
}

// WithReportInterval sets how many records may pass between progress reports.
func WithReportInterval(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.interval = n
		}
	}
}

// New creates a Reconciler writing through store.
func New(store Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    store,
		observer: NopObserver{},
		band:     DefaultProgressBand(),
		interval: DefaultReportInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile merges batch into the store.
//
// existing maps external ids to the owner's stored tracks and is mutated:
// placeholders created for new ids are inserted into it. known holds the
// albums, artists and genres resolved by the ingestion phase; a synthetic
// Unknown genre is added when missing.
//
// The only failures are ErrMissingExternalID (before anything is written)
// and errors returned by the store, which abort the call.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	batch []IncomingRecord,
	known *Known,
	existing map[string]*Track,
	owner *Owner,
	progress Reporter,
) (*Summary, error) {
	if progress == nil {
		progress = NopReporter{}
	}
	if existing == nil {
		existing = make(map[string]*Track)
	}
	known = knownOrEmpty(known)
	summary := &Summary{Received: len(batch)}

	// 1. Deduplicate
	records, err := r.dedupe(batch, summary)
	if err != nil {
		return summary, err
	}
	progress.Report(r.band.Start, "Reconciling tracks")

	// 2. Partition
	newIDs := make([]string, 0)
	for _, rec := range records {
		if _, ok := existing[rec.ID]; !ok {
			newIDs = append(newIDs, rec.ID)
		}
	}
	summary.Created = len(newIDs)
	summary.Updated = len(records) - len(newIDs)

	// 3. Bulk-create placeholders
	if err := r.createPlaceholders(ctx, newIDs, existing); err != nil {
		return summary, err
	}

	// 4. Remote favorites
	favorites := make(map[string]bool, len(records))
	for _, rec := range records {
		favorites[rec.ID] = rec.IsFavorite
	}

	// 5. Changed favorites, applied after the field updates
	changed := changedFavorites(existing, favorites)
	summary.FavoriteChanges = len(changed)

	// 6. Per-record update, in input order
	total := len(records)
	for i, rec := range records {
		r.apply(existing[rec.ID], rec, known, owner, summary)

		done := i + 1
		if done%r.interval == 0 || done == total {
			fraction := r.band.Start + (r.band.End-r.band.Start)*float64(done)/float64(total)
			progress.Report(fraction, fmt.Sprintf("Updating tracks (%d/%d)", done, total))
		}
	}

	// 7. Favorite pass
	if err := r.applyFavorites(ctx, changed, existing); err != nil {
		return summary, err
	}

	if err := r.store.Commit(ctx); err != nil {
		return summary, fmt.Errorf("failed to commit reconcile batch: %w", err)
	}

	// 8. Done
	progress.Report(r.band.Final, "Library sync complete")
	return summary, nil
}

// dedupe keeps the first occurrence of every external id.
func (r *Reconciler) dedupe(batch []IncomingRecord, summary *Summary) ([]IncomingRecord, error) {
	seen := make(map[string]int, len(batch))
	records := make([]IncomingRecord, 0, len(batch))

	for i, rec := range batch {
		if rec.ID == "" {
			return nil, fmt.Errorf("record %d (%q): %w", i, rec.Name, ErrMissingExternalID)
		}
		if first, dup := seen[rec.ID]; dup {
			summary.Duplicates++
			r.observer.Observe(Event{
				Kind:    EventDuplicateDropped,
				TrackID: rec.ID,
				Value:   "first seen at " + strconv.Itoa(first),
			})
			continue
		}
		seen[rec.ID] = i
		records = append(records, rec)
	}

	return records, nil
}

func (r *Reconciler) createPlaceholders(ctx context.Context, ids []string, existing map[string]*Track) error {
	if len(ids) == 0 {
		return nil
	}

	if creator, ok := r.store.(BatchCreator); ok {
		tracks, err := creator.CreateTracks(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to batch create tracks: %w", err)
		}
		for _, t := range tracks {
			if t != nil {
				existing[t.ID] = t
			}
		}
	} else {
		for _, id := range ids {
			t, err := r.store.CreateTrack(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to create track %s: %w", id, err)
			}
			existing[id] = t
		}
	}

	for _, id := range ids {
		if existing[id] == nil {
			return fmt.Errorf("store did not return a placeholder for track %s", id)
		}
	}
	return nil
}

// changedFavorites compares every tracked record with the remote flag.
// Tracks absent from the batch have no remote value and are left alone.
func changedFavorites(existing map[string]*Track, favorites map[string]bool) map[string]bool {
	changed := make(map[string]bool)
	for id, track := range existing {
		remote, ok := favorites[id]
		if ok && track.Favorite != remote {
			changed[id] = remote
		}
	}
	return changed
}

func (r *Reconciler) applyFavorites(ctx context.Context, changed map[string]bool, existing map[string]*Track) error {
	if len(changed) == 0 {
		return nil
	}

	ids := make([]string, 0, len(changed))
	for id := range changed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		existing[id].Favorite = changed[id]
		r.observer.Observe(Event{
			Kind:    EventFavoriteChanged,
			TrackID: id,
			Value:   strconv.FormatBool(changed[id]),
		})
	}

	if writer, ok := r.store.(FavoriteWriter); ok {
		if err := writer.SetFavorites(ctx, changed); err != nil {
			return fmt.Errorf("failed to write favorite changes: %w", err)
		}
	}
	return nil
}

// apply copies every remote field onto the stored track and relinks it.
func (r *Reconciler) apply(t *Track, rec IncomingRecord, known *Known, owner *Owner, summary *Summary) {
	genres := ClassifyGenres(rec.Genres)
	res := Resolve(rec, genres, known)

	t.Title = rec.Name
	t.TrackNumber = rec.IndexNumber
	t.DiscNumber = rec.ParentIndexNumber
	t.PlayCount = rec.PlayCount
	t.Container = rec.Container
	t.Favorite = rec.IsFavorite

	duration, clamped := durationFromTicks(rec.RunTimeTicks)
	t.Duration = duration
	if clamped {
		summary.ClampedDurations++
		r.observer.Observe(Event{
			Kind:    EventDurationClamped,
			TrackID: rec.ID,
			Value:   strconv.FormatInt(rec.RunTimeTicks, 10),
		})
	}

	if rec.DateCreated != "" {
		if ts, ok := ParseDateAdded(rec.DateCreated); ok {
			t.DateAdded = &ts
		} else {
			summary.UnparsableDates++
			r.observer.Observe(Event{Kind: EventDateUnparsable, TrackID: rec.ID, Value: rec.DateCreated})
		}
	}

	t.RawGenres = genres.Raw
	t.NormalizedGenres = genres.Normalized
	t.UmbrellaGenres = genres.Umbrella

	t.Album = res.Album
	t.Artist = res.Artist
	t.Genres = res.Genres
	t.Owner = owner

	if res.AlbumUnresolved {
		summary.UnresolvedAlbums++
		r.observer.Observe(Event{Kind: EventAlbumUnresolved, TrackID: rec.ID, Value: rec.AlbumID})
	}
	if res.ArtistFromAlbum {
		r.observer.Observe(Event{Kind: EventArtistFallback, TrackID: rec.ID, Value: res.Artist.Name})
	}
	if res.UnknownGenre {
		summary.UnknownGenre++
		r.observer.Observe(Event{Kind: EventUnknownGenre, TrackID: rec.ID})
	}
}
