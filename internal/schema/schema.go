// Package schema holds the versioned SQL migrations of the WESMUN database.
//
// Each file under migrations/ is named NNNN_slug.sql and must be safe to run
// against a database that already contains the objects it creates.
package schema

import (
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var fileNamePattern = regexp.MustCompile(`^(\d{4})_([a-z0-9_]+)\.sql$`)

// Load returns the embedded migrations ordered by ID.
func Load() ([]models.Migration, error) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// LoadFS reads migrations from the root of fsys.
func LoadFS(fsys fs.FS) ([]models.Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	seen := make(map[string]string, len(entries))
	migrations := make([]models.Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		match := fileNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("migration %q: name must match NNNN_slug.sql", entry.Name())
		}
		id, name := match[1], match[2]
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("migration id %s used by both %q and %q", id, prev, entry.Name())
		}
		seen[id] = entry.Name()

		body, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", entry.Name(), err)
		}
		sql := strings.TrimSpace(string(body))
		if sql == "" {
			return nil, fmt.Errorf("migration %q is empty", entry.Name())
		}

		migrations = append(migrations, models.Migration{
			ID:       id,
			Name:     name,
			SQL:      sql,
			Checksum: Checksum(sql),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].ID < migrations[j].ID })
	return migrations, nil
}

// Checksum returns the hex BLAKE2b-256 digest of a migration body.
func Checksum(sql string) string {
	sum := blake2b.Sum256([]byte(sql))
	return hex.EncodeToString(sum[:])
}
