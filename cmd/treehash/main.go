// Command treehash builds the merkle tree for a directory, prints its
// digests, and optionally syncs the blobs into a local disk CAS.
//
// Usage:
//
//	treehash [-algo sha256] [-store /path/to/cas] [-v] DIR
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/merkle"
	"github.com/meigma/merkle/cas"
	"github.com/meigma/merkle/cas/disk"
)

type config struct {
	dir         string
	algo        string
	storeDir    string
	concurrency int
	verbose     bool
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.algo, "algo", "sha256", "digest algorithm (sha256, sha384, sha512)")
	flag.StringVar(&cfg.storeDir, "store", "", "sync blobs into a disk CAS at this path")
	flag.IntVar(&cfg.concurrency, "concurrency", 0, "parallel content reads (0 = GOMAXPROCS)")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: treehash [flags] DIR")
		flag.PrintDefaults()
		os.Exit(2)
	}
	cfg.dir = flag.Arg(0)
	return cfg
}

func run(cfg config) error {
	ctx := context.Background()

	logger := slog.New(slog.DiscardHandler)
	if cfg.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	algo := digest.Algorithm(cfg.algo)
	if !algo.Available() {
		return fmt.Errorf("algorithm %q not available", cfg.algo)
	}

	src := merkle.NewFSSource(os.DirFS(cfg.dir))
	set, err := src.Scan()
	if err != nil {
		return err
	}

	opts := []merkle.Option{merkle.WithAlgorithm(algo), merkle.WithLogger(logger)}
	if cfg.concurrency > 0 {
		opts = append(opts, merkle.WithHashConcurrency(cfg.concurrency))
	}
	repo := merkle.New(src, opts...)

	root := repo.BuildFromInputs(set)
	if err := repo.ComputeMerkleDigests(ctx, root); err != nil {
		return err
	}

	rootDigest, err := repo.MerkleDigest(root)
	if err != nil {
		return err
	}
	digests, err := repo.AllDigests(root)
	if err != nil {
		return err
	}

	fmt.Printf("root:    %s\n", rootDigest)
	fmt.Printf("inputs:  %d\n", set.Len())
	fmt.Printf("digests: %d\n", len(digests))

	if cfg.storeDir == "" {
		return nil
	}

	store, err := disk.New(cfg.storeDir, disk.WithLogger(logger))
	if err != nil {
		return err
	}
	uploader := cas.NewUploader(repo, store, cas.WithLogger(logger))
	stats, err := uploader.Sync(ctx, root)
	if err != nil {
		return err
	}
	fmt.Printf("synced:  %d missing of %d checked (%d descriptors, %d contents, %d bytes)\n",
		stats.Missing, stats.Checked, stats.Descriptors, stats.Contents, stats.Bytes)
	return nil
}
