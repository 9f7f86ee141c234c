// Package pipeline runs one sequential pass over a session file: map the
// file, strip the header, decompress, decode and summarize.
package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Zuo-Peng/tabtally/internal/mozlz4"
	"github.com/Zuo-Peng/tabtally/internal/rawfile"
	"github.com/Zuo-Peng/tabtally/internal/session"
	"github.com/Zuo-Peng/tabtally/internal/tally"
)

type Result struct {
	Path           string
	FileSize       int
	DocumentSize   int
	DecodeDuration time.Duration
	Summary        *tally.Summary
}

// Run maps the file at path and processes it. The mapping is released
// before Run returns; nothing in Result refers to it.
func Run(path string, topN int, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := rawfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	log.Debug("mapped session file", zap.String("path", path), zap.Int("bytes", f.Len()), zap.Bool("mmap", f.Mapped()))

	res, err := Process(f.Bytes(), topN, log)
	if err != nil {
		return nil, err
	}
	res.Path = path
	return res, nil
}

// Process decodes and summarizes an in-memory container.
func Process(raw []byte, topN int, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()

	doc, err := mozlz4.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	log.Debug("decompressed", zap.Int("bytes", len(doc)), zap.Duration("elapsed", time.Since(start)))

	store, err := session.Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	elapsed := time.Since(start)
	log.Debug("decoded", zap.Int("windows", len(store.Windows)), zap.Duration("elapsed", elapsed))

	sum, err := tally.Summarize(store, topN, log)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	return &Result{
		FileSize:       len(raw),
		DocumentSize:   len(doc),
		DecodeDuration: elapsed,
		Summary:        sum,
	}, nil
}
