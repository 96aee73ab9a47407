package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendto/internal/crypto"
	dbpkg "github.com/sendto/internal/db"
	"github.com/sendto/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := dbpkg.Open(context.Background(), filepath.Join(t.TempDir(), "outputs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testCrypter(t *testing.T) *crypto.Crypter {
	t.Helper()
	c, err := crypto.NewFromSecret("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	return c
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name    string
		crypter bool
	}{{"plain", false}, {"encrypted", true}} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			var c *crypto.Crypter
			if tc.crypter {
				c = testCrypter(t)
			}
			s := NewOutputStore(openTestDB(t), c)

			out := model.Output{Name: "Work", URL: "https://acme.manuscript.com/", LastCaseID: 42}
			require.NoError(t, s.Save(ctx, "Manuscript", out.Values()))

			rec, err := s.Load(ctx, "Work")
			require.NoError(t, err)
			assert.Equal(t, "Manuscript", rec.Plugin)
			assert.Equal(t, out.Values(), rec.Values)
			assert.False(t, rec.UpdatedAt.IsZero())

			got, err := model.OutputFromValues(rec.Values, "Manuscript")
			require.NoError(t, err)
			assert.Equal(t, out, *got)
		})
	}
}

func TestEncryptedPayloadIsOpaque(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s := NewOutputStore(db, testCrypter(t))

	require.NoError(t, s.Save(ctx, "Manuscript", model.Output{Name: "Work", URL: "https://secret.example.com/"}.Values()))

	var payload []byte
	require.NoError(t, db.QueryRowContext(ctx, `SELECT payload FROM outputs WHERE name = 'Work'`).Scan(&payload))
	assert.NotContains(t, string(payload), "secret.example.com")

	_, err := NewOutputStore(db, nil).Load(ctx, "Work")
	assert.ErrorContains(t, err, "encryption secret")
}

func TestSaveUpserts(t *testing.T) {
	ctx := context.Background()
	s := NewOutputStore(openTestDB(t), nil)

	require.NoError(t, s.Save(ctx, "Manuscript", model.Output{Name: "Work", LastCaseID: 1}.Values()))
	require.NoError(t, s.Save(ctx, "Manuscript", model.Output{Name: "Work", LastCaseID: 9}.Values()))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "9", records[0].Values[model.KeyLastCaseID])
}

func TestReplaceRenames(t *testing.T) {
	ctx := context.Background()
	s := NewOutputStore(openTestDB(t), nil)

	require.NoError(t, s.Save(ctx, "Manuscript", model.Output{Name: "Old"}.Values()))
	require.NoError(t, s.Replace(ctx, "Old", "Manuscript", model.Output{Name: "New"}.Values()))

	_, err := s.Load(ctx, "Old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Load(ctx, "New")
	assert.NoError(t, err)
}

func TestSaveRequiresName(t *testing.T) {
	s := NewOutputStore(openTestDB(t), nil)
	assert.Error(t, s.Save(context.Background(), "Manuscript", model.OutputValues{model.KeyURL: "x"}))
}

func TestListOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewOutputStore(openTestDB(t), nil)

	for _, name := range []string{"b", "c", "a"} {
		require.NoError(t, s.Save(ctx, "Manuscript", model.Output{Name: name}.Values()))
	}

	records, err := s.List(ctx)
	require.NoError(t, err)
	names := []string{}
	for _, r := range records {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := NewOutputStore(openTestDB(t), nil)

	require.NoError(t, s.Save(ctx, "Manuscript", model.Output{Name: "Work"}.Values()))
	require.NoError(t, s.Delete(ctx, "Work"))
	assert.ErrorIs(t, s.Delete(ctx, "Work"), ErrNotFound)
	_, err := s.Load(ctx, "Work")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := NewOutputStore(openTestDB(t), testCrypter(t))
	require.NoError(t, src.Save(ctx, "Manuscript", model.Output{Name: "Work", URL: "https://acme.manuscript.com/", LastCaseID: 3}.Values()))
	require.NoError(t, src.Save(ctx, "Manuscript", model.Output{Name: "Home", LastCaseID: 1}.Values()))

	var buf bytes.Buffer
	n, err := src.Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, buf.String(), "https://acme.manuscript.com/")

	dst := NewOutputStore(openTestDB(t), nil)
	n, err = dst.Import(ctx, &buf, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec, err := dst.Load(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, "3", rec.Values[model.KeyLastCaseID])
}

func TestImportCheckRejects(t *testing.T) {
	ctx := context.Background()
	s := NewOutputStore(openTestDB(t), nil)

	input := strings.NewReader("outputs:\n  - plugin: Jira\n    values:\n      Name: Work\n")
	_, err := s.Import(ctx, input, func(plugin string, _ model.OutputValues) error {
		return errors.New("unknown plugin " + plugin)
	})
	assert.ErrorContains(t, err, "unknown plugin Jira")

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestImportIsAllOrNothing(t *testing.T) {
	input := "outputs:\n" +
		"  - plugin: Manuscript\n    values:\n      Name: Good\n      Url: https://acme.manuscript.com/\n" +
		"  - plugin: Jira\n    values:\n      Name: Bad\n"

	t.Run("check fails on a later entry", func(t *testing.T) {
		ctx := context.Background()
		s := NewOutputStore(openTestDB(t), nil)

		n, err := s.Import(ctx, strings.NewReader(input), func(plugin string, _ model.OutputValues) error {
			if plugin != "Manuscript" {
				return errors.New("unknown plugin " + plugin)
			}
			return nil
		})
		assert.ErrorContains(t, err, "output 2: unknown plugin Jira")
		assert.Zero(t, n)

		records, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("save fails on a later entry", func(t *testing.T) {
		ctx := context.Background()
		s := NewOutputStore(openTestDB(t), nil)
		nameless := "outputs:\n" +
			"  - plugin: Manuscript\n    values:\n      Name: Good\n" +
			"  - plugin: Manuscript\n    values:\n      Url: https://acme.manuscript.com/\n"

		_, err := s.Import(ctx, strings.NewReader(nameless), nil)
		assert.Error(t, err)

		_, err = s.Load(ctx, "Good")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
