//go:build mage

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	rawDir      = "data/raw"
	parsedDir   = "data/parsed"
	enrichedDir = "data/enriched"
)

// Parse converts every data/raw/*.txt dump into data/parsed/<name>.json.
func Parse() error {
	mg.Deps(Build, Init)

	dumps, err := filepath.Glob(filepath.Join(rawDir, "*.txt"))
	if err != nil {
		return err
	}
	if len(dumps) == 0 {
		fmt.Printf("[parse] no .txt files in %s\n", rawDir)
		return nil
	}
	for _, in := range dumps {
		out := filepath.Join(parsedDir, stem(in)+".json")
		if err := sh.RunV(binPath, "parse", in, out); err != nil {
			return fmt.Errorf("parsing %s: %w", in, err)
		}
	}
	return nil
}

// Enrich annotates every data/parsed/*.json set into data/enriched/.
func Enrich() error {
	mg.Deps(Parse)

	sets, err := filepath.Glob(filepath.Join(parsedDir, "*.json"))
	if err != nil {
		return err
	}
	for _, in := range sets {
		out := filepath.Join(enrichedDir, filepath.Base(in))
		if err := sh.RunV(binPath, "enrich", in, out); err != nil {
			return fmt.Errorf("enriching %s: %w", in, err)
		}
	}
	return nil
}

// Index ingests every enriched set into the question bank.
func Index() error {
	mg.Deps(Enrich)

	sets, err := filepath.Glob(filepath.Join(enrichedDir, "*.json"))
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		fmt.Printf("[index] nothing to ingest in %s\n", enrichedDir)
		return nil
	}
	return sh.RunV(binPath, append([]string{"store", "ingest"}, sets...)...)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
