package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"catalog-sync/core/config"
	"catalog-sync/core/reconcile"
	"catalog-sync/core/storage"
	"catalog-sync/feature/library"
)

// Prints how genre labels are classified. With arguments, each argument is
// one label list ("Rock; Indie"). Without arguments, every genre label in the
// latest stored snapshot is classified and unmatched labels are listed.
func main() {
	if len(os.Args) > 1 {
		for _, arg := range os.Args[1:] {
			printSet(arg, reconcile.ClassifyGenres([]string{arg}))
		}
		return
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	key, err := library.LatestSnapshotKey(ctx, client, cfg.Storage.Bucket, cfg.Storage.SnapshotPrefix)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Loading %s...\n", key)
	snap, err := library.LoadSnapshotObject(ctx, client, cfg.Storage.Bucket, key)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Loaded %d items\n", len(snap.Items))

	umbrellas := map[string]int{}
	for _, item := range snap.Items {
		for _, u := range reconcile.ClassifyGenres(item.Genres).Umbrella {
			umbrellas[u]++
		}
	}
	unmatched := unmatchedLabels(snap.Items)

	fmt.Println("\n=== Umbrella genres ===")
	keys := make([]string, 0, len(umbrellas))
	for k := range umbrellas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-16s %d\n", k, umbrellas[k])
	}

	fmt.Printf("\n=== %d label lists without an umbrella ===\n", len(unmatched))
	for _, label := range unmatched {
		fmt.Printf("  %s\n", label)
	}
}

func printSet(label string, set reconcile.GenreSet) {
	fmt.Printf("%q\n", label)
	fmt.Printf("  normalized: %v\n", set.Normalized)
	if !hasUmbrella(set) {
		fmt.Println("  ⚠️  no umbrella genre")
		return
	}
	fmt.Printf("  umbrella:   %v\n", set.Umbrella)
}

// hasUmbrella reports whether set maps to a real umbrella category rather
// than the Unknown fallback.
func hasUmbrella(set reconcile.GenreSet) bool {
	return !(len(set.Umbrella) == 1 && set.Umbrella[0] == reconcile.UnknownGenreName)
}

// unmatchedLabels returns the distinct, sorted label lists that carry genres
// but fall back to Unknown.
func unmatchedLabels(items []reconcile.IncomingRecord) []string {
	seen := map[string]bool{}
	var unmatched []string
	for _, item := range items {
		set := reconcile.ClassifyGenres(item.Genres)
		if len(set.Normalized) == 0 || hasUmbrella(set) {
			continue
		}
		label := strings.Join(item.Genres, "; ")
		if !seen[label] {
			seen[label] = true
			unmatched = append(unmatched, label)
		}
	}
	sort.Strings(unmatched)
	return unmatched
}
