package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"criteria-diff/core/config"
	"criteria-diff/core/reconcile"
	"criteria-diff/core/storage"
	"criteria-diff/feature/compare/source"
)

// Usage: debug_index <source> [identifier...]
func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: debug_index <file | s3://bucket/key | storage:key> [identifier...]")
		os.Exit(2)
	}

	// Load config
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	ref, err := source.ParseRef(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	// Storage is only needed for bucket references
	var client storage.Client
	if ref.Kind == source.KindStorage {
		client, err = storage.NewClient(cfg.Storage)
		if err != nil {
			log.Fatal(err)
		}
	}

	loader := source.NewLoader(client, cfg.Storage.Bucket)
	doc, err := loader.Load(context.Background(), ref)
	if err != nil {
		log.Fatal(err)
	}

	// Test 1: Record list
	fmt.Println("=== TEST 1: Record List ===")
	list, ok := reconcile.LocateRecords(doc)
	if !ok {
		fmt.Println("NO record list found, the source counts as empty")
		return
	}
	fmt.Printf("Elements in record list: %d\n", len(list))

	// Test 2: Index
	fmt.Println("\n=== TEST 2: Index ===")
	index, stats := reconcile.NewIndexer(nil, nil).Build(doc)
	fmt.Printf("Indexed records: %d\n", len(index))
	fmt.Printf("Not records: %d, without identifier: %d, overwritten: %d\n",
		stats.NotRecords, stats.WithoutID, stats.Overwritten)

	ids := index.IDs()
	sort.Strings(ids)
	if len(ids) > 0 {
		fmt.Printf("First identifier: %s, last identifier: %s\n", ids[0], ids[len(ids)-1])
	}

	// Test 3: Lookups
	if len(os.Args) > 2 {
		fmt.Println("\n=== TEST 3: Lookups ===")
		for _, id := range os.Args[2:] {
			rec, found := index[id]
			if !found {
				fmt.Printf("NOT FOUND: %s\n", id)
				continue
			}
			fmt.Printf("FOUND %s with %d fields\n", id, len(rec))
			keys := make([]string, 0, len(rec))
			for k := range rec {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %s = %s\n", k, reconcile.Normalize(rec[k]))
			}
		}
	}
}
