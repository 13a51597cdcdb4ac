// internal/taxmap/taxmap.go
//
// The file2taxid artifact: an ordered list of (reference file, taxon id)
// records, exchanged between every pipeline stage as a tab-separated file.
// Taxon id 0 means "unknown/no taxonomy".
package taxmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Entry is one reference file of the corpus.
type Entry struct {
	Path  string
	TaxID uint64
}

// Load reads a file2taxid (or accession2taxid) TSV. Lines that do not parse
// are skipped, never fatal; the count of skipped lines is returned so stages
// can summarize them. warn may be nil.
func Load(path string, warn func(line int, msg string)) ([]Entry, int, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("could not read file2taxid at %s: %w", path, err)
	}
	defer fh.Close()
	return parse(fh, warn)
}

func parse(r io.Reader, warn func(line int, msg string)) ([]Entry, int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var (
		entries []Entry
		skipped int
	)
	for line := 0; sc.Scan(); line++ {
		text := strings.TrimRight(sc.Text(), "\r\n")
		if text == "" {
			continue
		}
		entry, err := parseLine(text)
		if err != nil {
			skipped++
			if warn != nil {
				warn(line, err.Error())
			}
			continue
		}
		entries = append(entries, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, fmt.Errorf("file2taxid scan: %w", err)
	}
	return entries, skipped, nil
}

func parseLine(line string) (Entry, error) {
	name, taxidStr, found := strings.Cut(line, "\t")
	if !found {
		return Entry{}, fmt.Errorf("line did not have a tab character")
	}
	taxid, err := strconv.ParseUint(strings.TrimSpace(taxidStr), 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("taxid column: %w", err)
	}
	return Entry{Path: name, TaxID: taxid}, nil
}

// Save writes entries as TSV in order. The record order is how the ordering
// permutation is carried between stages.
func Save(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "%s\t%d\n", e.Path, e.TaxID); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadAccessionMap reads an accession2taxid TSV into a lookup map.
func LoadAccessionMap(path string, warn func(line int, msg string)) (map[string]uint64, int, error) {
	entries, skipped, err := Load(path, warn)
	if err != nil {
		return nil, skipped, err
	}
	m := make(map[string]uint64, len(entries))
	for _, e := range entries {
		m[e.Path] = e.TaxID
	}
	return m, skipped, nil
}
