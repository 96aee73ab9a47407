package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sendto/internal/crypto"
	"github.com/sendto/internal/model"
)

// ErrNotFound is returned when no output has the requested name.
var ErrNotFound = errors.New("store: output not found")

// OutputRecord is one persisted output in its serialized form.
type OutputRecord struct {
	Name      string
	Plugin    string
	Values    model.OutputValues
	UpdatedAt time.Time
}

// OutputStore persists serialized outputs keyed by name. Payloads are
// encrypted when a crypter is configured.
type OutputStore struct {
	db      *sql.DB
	crypter *crypto.Crypter
}

// NewOutputStore returns a store over db. crypter may be nil.
func NewOutputStore(db *sql.DB, crypter *crypto.Crypter) *OutputStore {
	return &OutputStore{db: db, crypter: crypter}
}

// Ping checks database connectivity.
func (s *OutputStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save inserts or replaces the output named by values[model.KeyName].
func (s *OutputStore) Save(ctx context.Context, plugin string, values model.OutputValues) error {
	return s.Replace(ctx, "", plugin, values)
}

// Replace saves values and, when oldName differs from the new name, removes
// oldName in the same transaction.
func (s *OutputStore) Replace(ctx context.Context, oldName, plugin string, values model.OutputValues) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.replaceTx(ctx, tx, oldName, plugin, values); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *OutputStore) replaceTx(ctx context.Context, tx *sql.Tx, oldName, plugin string, values model.OutputValues) error {
	name := values[model.KeyName]
	if name == "" {
		return fmt.Errorf("store: output has no %s", model.KeyName)
	}

	payload, encrypted, err := s.encode(values)
	if err != nil {
		return fmt.Errorf("encode output %q: %w", name, err)
	}

	if oldName != "" && oldName != name {
		if _, err := tx.ExecContext(ctx, `DELETE FROM outputs WHERE name = ?`, oldName); err != nil {
			return fmt.Errorf("delete output %q: %w", oldName, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outputs (name, plugin, payload, encrypted, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			plugin = excluded.plugin,
			payload = excluded.payload,
			encrypted = excluded.encrypted,
			updated_at = excluded.updated_at
	`, name, plugin, payload, encrypted, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save output %q: %w", name, err)
	}
	return nil
}

// Load returns the output stored under name.
func (s *OutputStore) Load(ctx context.Context, name string) (*OutputRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, plugin, payload, encrypted, updated_at
		FROM outputs
		WHERE name = ?
	`, name)

	rec, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns every stored output ordered by name.
func (s *OutputStore) List(ctx context.Context) ([]OutputRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, plugin, payload, encrypted, updated_at
		FROM outputs
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []OutputRecord
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Delete removes the output stored under name.
func (s *OutputStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM outputs WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *OutputStore) scan(row scanner) (*OutputRecord, error) {
	var (
		rec       OutputRecord
		payload   []byte
		encrypted bool
		updated   int64
	)
	if err := row.Scan(&rec.Name, &rec.Plugin, &payload, &encrypted, &updated); err != nil {
		return nil, err
	}

	values, err := s.decode(payload, encrypted)
	if err != nil {
		return nil, fmt.Errorf("decode output %q: %w", rec.Name, err)
	}
	rec.Values = values
	rec.UpdatedAt = time.Unix(updated, 0).UTC()
	return &rec, nil
}

func (s *OutputStore) encode(values model.OutputValues) ([]byte, bool, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, false, err
	}
	if s.crypter == nil {
		return raw, false, nil
	}
	ciphertext, err := s.crypter.Encrypt(raw)
	if err != nil {
		return nil, false, err
	}
	return ciphertext, true, nil
}

func (s *OutputStore) decode(payload []byte, encrypted bool) (model.OutputValues, error) {
	if encrypted {
		if s.crypter == nil {
			return nil, errors.New("payload is encrypted but no encryption secret is configured")
		}
		plaintext, err := s.crypter.Decrypt(payload)
		if err != nil {
			return nil, err
		}
		payload = plaintext
	}

	var values model.OutputValues
	if err := json.Unmarshal(payload, &values); err != nil {
		return nil, err
	}
	return values, nil
}
