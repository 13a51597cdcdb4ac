// internal/fastq/fastq.go
package fastq

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/trevor-schnegg/SKiM/internal/fasta"
)

// Read is one sequencing read. Quality strings are carried but nothing in the
// pipeline consumes them.
type Read struct {
	ID   string
	Seq  []byte
	Qual []byte
}

// IsFastqPath reports whether path looks like a FASTQ file by extension.
func IsFastqPath(path string) bool {
	p := strings.TrimSuffix(path, ".gz")
	return strings.HasSuffix(p, ".fq") || strings.HasSuffix(p, ".fastq")
}

// StreamPathCtx streams the reads of a FASTQ file through emit. Malformed
// records are skipped (input errors are never fatal for the run); the number
// skipped is returned for the stage's completion report.
func StreamPathCtx(ctx context.Context, path string, emit func(Read) error) (skipped int, err error) {
	rc, err := fasta.OpenReader(path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	const maxLine = 16 * 1024 * 1024
	sc.Buffer(make([]byte, 64*1024), maxLine)

	next := func() ([]byte, bool) {
		if !sc.Scan() {
			return nil, false
		}
		return sc.Bytes(), true
	}

	for {
		select {
		case <-ctx.Done():
			return skipped, ctx.Err()
		default:
		}
		hdr, ok := next()
		if !ok {
			break
		}
		if len(bytes.TrimSpace(hdr)) == 0 {
			continue
		}
		seq, okSeq := next()
		plus, okPlus := next()
		qual, okQual := next()
		if !okSeq || !okPlus || !okQual {
			skipped++
			break
		}
		if hdr[0] != '@' || len(plus) == 0 || plus[0] != '+' || len(seq) != len(qual) {
			skipped++
			continue
		}
		id := parseReadID(hdr[1:])
		if err := emit(Read{
			ID:   id,
			Seq:  append([]byte(nil), bytes.TrimSpace(seq)...),
			Qual: append([]byte(nil), bytes.TrimSpace(qual)...),
		}); err != nil {
			return skipped, err
		}
	}
	if err := sc.Err(); err != nil {
		return skipped, fmt.Errorf("fastq scan: %w", err)
	}
	return skipped, nil
}

// StreamReadsPathCtx streams FASTQ or FASTA reads, chosen by file extension
// (FASTQ when ambiguous, matching the classifier's common input).
func StreamReadsPathCtx(ctx context.Context, path string, emit func(Read) error) (skipped int, err error) {
	if fasta.IsFastaPath(path) {
		err = fasta.StreamPathCtx(ctx, path, func(r fasta.Record) error {
			return emit(Read{ID: r.ID, Seq: r.Seq})
		})
		return 0, err
	}
	return StreamPathCtx(ctx, path, emit)
}

func parseReadID(hdr []byte) string {
	hdr = bytes.TrimSpace(hdr)
	if i := bytes.IndexAny(hdr, " \t"); i >= 0 {
		return string(hdr[:i])
	}
	return string(hdr)
}
