//go:build ignore

// Package main generates a synthetic directory tree for exercising the
// indexer at scale.
// Usage: go run scripts/generate-test-corpus.go -files 50000 -output /tmp/osai-corpus
//
// Then: OSAI_SEARCH_PATHS=/tmp/osai-corpus osai index --local --plain
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numFiles  = flag.Int("files", 10000, "Number of files to generate")
	fanout    = flag.Int("fanout", 8, "Subfolders per folder")
	perFolder = flag.Int("per-folder", 25, "Files per folder")
	outputDir = flag.String("output", "testdata/corpus", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
	ignored   = flag.Float64("ignored", 0.05, "Fraction of folders named like ignored directories")
)

var (
	folderWords = []string{
		"Documents", "Projects", "Reports", "Invoices", "Photos", "Music",
		"Archive", "Drafts", "Clients", "Taxes", "Recipes", "Travel",
	}
	fileWords = []string{
		"report", "invoice", "notes", "budget", "résumé", "meeting",
		"plan", "summary", "Überblick", "draft", "letter", "photo",
	}
	extensions   = []string{".txt", ".pdf", ".docx", ".xlsx", ".md", ".jpg", ".png", ".mp3"}
	ignoredNames = []string{"node_modules", "build", "dist", ".git", "vendor", "__pycache__"}
)

type generator struct {
	rng     *rand.Rand
	written int
	folders int
}

func main() {
	flag.Parse()

	g := &generator{rng: rand.New(rand.NewSource(*seed))}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	queue := []string{*outputDir}
	for len(queue) > 0 && g.written < *numFiles {
		dir := queue[0]
		queue = queue[1:]

		if err := g.fillFolder(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for i := 0; i < *fanout; i++ {
			sub := filepath.Join(dir, g.folderName(i))
			if err := os.MkdirAll(sub, 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			g.folders++
			queue = append(queue, sub)
		}
	}

	fmt.Printf("Generated %d files in %d folders under %s\n", g.written, g.folders, *outputDir)
}

func (g *generator) folderName(i int) string {
	if g.rng.Float64() < *ignored {
		return ignoredNames[g.rng.Intn(len(ignoredNames))]
	}
	return fmt.Sprintf("%s %d", folderWords[g.rng.Intn(len(folderWords))], i)
}

func (g *generator) fillFolder(dir string) error {
	for i := 0; i < *perFolder && g.written < *numFiles; i++ {
		name := fmt.Sprintf("%s %s %04d%s",
			fileWords[g.rng.Intn(len(fileWords))],
			strings.ToLower(folderWords[g.rng.Intn(len(folderWords))]),
			g.written,
			extensions[g.rng.Intn(len(extensions))])
		data := make([]byte, g.rng.Intn(4096))
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return err
		}
		g.written++
	}
	return nil
}
