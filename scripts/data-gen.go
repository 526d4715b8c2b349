/*
	Basic Script that churns writes and removes against a store directory to
	produce many segments for recovery testing.

	go run ./scripts/data-gen.go -dir /tmp/kvs-churn
*/

package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/0xRadioAc7iv/go-kvs/core"
	"github.com/0xRadioAc7iv/go-kvs/internal/utils"
)

const (
	concurrency = 6

	// Fixed universe
	totalKeys   = 100
	totalValues = 100

	// Per-cycle behavior
	keysPerCycleWrite  = 20
	keysPerCycleDelete = 10
	cyclesPerWorker    = 500

	// Worker 0 rotates the active segment this often
	rotateEvery = 100

	progressEvery = 100
)

func main() {
	dir := flag.String("dir", "churn-data", "Store directory")
	verbose := flag.Bool("v", false, "Log every rotation")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if utils.PathExists(*dir) {
		fmt.Printf("Reusing existing directory %s\n", *dir)
	}

	start := time.Now()
	store, err := core.Open(*dir, core.WithLogger(logger))
	if err != nil {
		fmt.Printf("open error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Opened %s with %d live keys in %v\n", *dir, store.Len(), time.Since(start))

	keys := makeKeys(totalKeys)
	values := makeValues(totalValues)

	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(id, store, keys, values)
		}(i)
	}

	wg.Wait()

	fmt.Printf("Load finished in %v: %d live keys across %d segments\n",
		time.Since(start), store.Len(), len(store.Generations()))

	if err := store.Close(); err != nil {
		fmt.Printf("close error: %v\n", err)
		os.Exit(1)
	}
}

func runWorker(id int, store *core.Store, keys []string, values []string) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	for cycle := 1; cycle <= cyclesPerWorker; cycle++ {

		// ---- WRITE / OVERWRITE PHASE ----
		for i := 0; i < keysPerCycleWrite; i++ {
			key := keys[rng.Intn(len(keys))]
			val := values[rng.Intn(len(values))]

			if err := store.Set(key, val); err != nil {
				fmt.Printf("[worker %d] SET error: %v\n", id, err)
				return
			}
		}

		// ---- DELETE PHASE ----
		for i := 0; i < keysPerCycleDelete; i++ {
			key := keys[rng.Intn(len(keys))]

			// Another worker may already have removed it
			if err := store.Remove(key); err != nil && !errors.Is(err, core.ErrKeyNotFound) {
				fmt.Printf("[worker %d] RM error: %v\n", id, err)
				return
			}
		}

		// ---- REWRITE PHASE (forces overwrite garbage) ----
		for i := 0; i < keysPerCycleWrite/2; i++ {
			key := keys[rng.Intn(len(keys))]
			val := values[rng.Intn(len(values))]

			if err := store.Set(key, val); err != nil {
				fmt.Printf("[worker %d] REWRITE error: %v\n", id, err)
				return
			}
		}

		if id == 0 && cycle%rotateEvery == 0 {
			if _, err := store.RotateSegment(); err != nil {
				fmt.Printf("[worker %d] ROTATE error: %v\n", id, err)
				return
			}
		}

		if cycle%progressEvery == 0 {
			fmt.Printf("[worker %d] completed %d cycles\n", id, cycle)
		}
	}
}

func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("key-%03d", i)
	}
	return keys
}

func makeValues(n int) []string {
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = fmt.Sprintf("value-%03d-xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", i)
	}
	return values
}
