package store

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sendto/internal/model"
)

type exportFile struct {
	Outputs []exportEntry `yaml:"outputs"`
}

type exportEntry struct {
	Plugin string             `yaml:"plugin"`
	Values model.OutputValues `yaml:"values"`
}

// Export writes every stored output to w as YAML, decrypted.
func (s *OutputStore) Export(ctx context.Context, w io.Writer) (int, error) {
	records, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	file := exportFile{Outputs: make([]exportEntry, 0, len(records))}
	for _, rec := range records {
		file.Outputs = append(file.Outputs, exportEntry{Plugin: rec.Plugin, Values: rec.Values})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return 0, fmt.Errorf("encode yaml: %w", err)
	}
	return len(records), enc.Close()
}

// Import reads outputs written by Export and saves them all or none. check,
// when non-nil, validates every entry before anything is stored.
func (s *OutputStore) Import(ctx context.Context, r io.Reader, check func(plugin string, values model.OutputValues) error) (int, error) {
	var file exportFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return 0, fmt.Errorf("decode yaml: %w", err)
	}

	if check != nil {
		for i, entry := range file.Outputs {
			if err := check(entry.Plugin, entry.Values); err != nil {
				return 0, fmt.Errorf("output %d: %w", i+1, err)
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for i, entry := range file.Outputs {
		if err := s.replaceTx(ctx, tx, "", entry.Plugin, entry.Values); err != nil {
			return 0, fmt.Errorf("output %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(file.Outputs), nil
}
