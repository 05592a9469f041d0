// This file contains the load execution logic. It keeps the CLI layer thin:
// it depends only on storage-agnostic interfaces and never imports database
// drivers or backend-specific packages directly.
//
// A run goes through the staging-table lifecycle:
//
//	Prepare   create N staging tables named <target>_stg_<token>_<NN>
//	Load      stream source rows → batched bulk copies, one loader per
//	          staging table
//	Commit    fold staging into the target per mode (insert/merge/replace)
//	Cleanup   drop the staging tables, even after a failed load
//
// Back-pressure is enforced via a bounded channel so that peak memory stays
// around O(batchSize * loaders + bufferSize). A fatal loader error cancels
// the reader through the errgroup context.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bulkload/internal/config"
	"bulkload/internal/connector"
	"bulkload/internal/metrics"
	csvsource "bulkload/internal/source/csv"
	"bulkload/internal/storage"
)

const errSamples = 3

// runtimeConfig contains the resolved concurrency and buffering configuration
// for a run. Values are derived from the job spec with optional environment
// variable overrides (12-factor style).
type runtimeConfig struct {
	stagingTables int
	batchSize     int
	bufferSize    int
}

// newRuntimeConfig resolves the runtime configuration for a run using the job
// spec and environment-variable fallbacks. The staging-table count doubles as
// the loader worker count: each staging table gets exactly one writer.
func newRuntimeConfig(job config.Job) runtimeConfig {
	workers := pickInt(job.Runtime.LoaderWorkers, getenvInt("BULKLOAD_LOADER_WORKERS", 1))
	return runtimeConfig{
		stagingTables: pickInt(job.Target.StagingTables, workers),
		batchSize:     pickInt(job.Runtime.BatchSize, getenvInt("BULKLOAD_BATCH_SIZE", 10000)),
		bufferSize:    pickInt(job.Runtime.ChannelBuffer, getenvInt("BULKLOAD_CH_BUFFER", 4096)),
	}
}

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	openRepositoryFn = storage.Open
	streamRowsFn     = csvsource.StreamRows
)

// run executes one configured load end-to-end.
func run(ctx context.Context, job config.Job) error {
	rt := newRuntimeConfig(job)

	mode, err := connector.ParseLoadMode(job.Target.Mode)
	if err != nil {
		return err
	}

	log.Printf("runtime: staging_tables=%d batch=%d buffer=%d mode=%s",
		rt.stagingTables, rt.batchSize, rt.bufferSize, mode)

	repo, err := openRepositoryFn(ctx, storage.Config{Kind: job.Target.Kind, DSN: job.Target.DSN})
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer repo.Close()

	target := job.Target.TableRef()
	schema := job.Target.Schema()
	columns := schema.Names()

	cn := connector.New(repo, repo.Dialect())
	sess := connector.NewSession(cn, target, schema, job.Target.MergeSpec(), rt.stagingTables)
	sess.SetTargetCreateClauses(job.Target.CreateConstraint, job.Target.CreateOption)

	// Replace mode always creates the target; insert and merge need either an
	// existing table or auto_create_table.
	if mode != connector.ModeReplace && !job.Target.AutoCreateTable {
		exists, err := repo.TableExists(ctx, target)
		if err != nil {
			return fmt.Errorf("probe target: %w", err)
		}
		if !exists {
			return fmt.Errorf("target table %s does not exist; create it or set auto_create_table", target)
		}
	}

	if err := sess.Prepare(ctx); err != nil {
		return err
	}
	defer func() {
		if err := sess.Cleanup(context.WithoutCancel(ctx)); err != nil {
			log.Printf("cleanup: %v", err)
		}
	}()

	if err := load(ctx, job, rt, repo, sess, columns); err != nil {
		return err
	}

	commitStart := time.Now()
	err = sess.Commit(ctx, mode)
	metrics.RecordStep(job.Name, "commit", err, time.Since(commitStart))
	if err != nil {
		return fmt.Errorf("commit %s: %w", mode, err)
	}
	log.Printf("commit: mode=%s target=%s took=%s", mode, target, time.Since(commitStart).Truncate(time.Millisecond))
	return nil
}

// load streams source rows into the session's staging tables: one reader
// goroutine, one loader per staging table, all draining a shared channel.
func load(
	ctx context.Context,
	job config.Job,
	rt runtimeConfig,
	repo storage.Repository,
	sess *connector.Session,
	columns []string,
) error {
	g, gctx := errgroup.WithContext(ctx)

	rows := make(chan []any, rt.bufferSize)

	// Reader: source file → rows channel.
	g.Go(func() error {
		defer close(rows)

		f, err := os.Open(job.Source.File.Path)
		if err != nil {
			return fmt.Errorf("source open: %w", err)
		}

		var (
			mu         sync.Mutex
			parseCount int
		)
		onErr := func(line int, err error) {
			metrics.RecordRow(job.Name, "parse_errors", 1)
			mu.Lock()
			parseCount++
			n := parseCount
			mu.Unlock()
			if n <= errSamples {
				log.Printf("row %d: %v", line, err)
			} else if n == errSamples+1 {
				log.Printf("... additional parse errors suppressed ...")
			}
		}

		switch job.Source.Kind {
		case "csv":
			return streamRowsFn(gctx, f, columns, job.Source.Options, rows, onErr)
		default:
			f.Close()
			return fmt.Errorf("unsupported source.kind=%s", job.Source.Kind)
		}
	})

	// Loaders: one writer per staging table, all draining the shared channel.
	for _, st := range sess.Staging() {
		st := st
		g.Go(func() error {
			copyFn := func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
				return repo.CopyInto(ctx, st, cols, batch)
			}
			n, err := storage.LoadBatches(gctx, job.Name, columns, rows, rt.batchSize, copyFn)
			if err != nil {
				return fmt.Errorf("load %s: %w", st, err)
			}
			log.Printf("staging %s: loaded=%d", st, n)
			return nil
		})
	}

	return g.Wait()
}

// ----------------------------------------------------------------------------
// Small helpers
// ----------------------------------------------------------------------------

// getenvInt reads an int from environment, returning def when unset/invalid.
func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// pickInt chooses the first positive value 'a', otherwise returns 'b'.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
