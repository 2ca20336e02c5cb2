package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
)

// ClickhouseExecutor is the slice of the native driver API migrations need.
type ClickhouseExecutor interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// ApplyClickhouse applies the embedded ClickHouse schema files in lexical
// order. Each file holds exactly one statement; the native driver's Exec
// rejects multi-statement scripts.
func ApplyClickhouse(ctx context.Context, db ClickhouseExecutor) error {
	files, err := sqlFiles(clickhouseFS, "clickhouse")
	if err != nil {
		return fmt.Errorf("list clickhouse migrations: %w", err)
	}

	for _, file := range files {
		sql, err := fs.ReadFile(clickhouseFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		stmt := strings.TrimSpace(string(sql))
		if stmt == "" {
			continue
		}
		if err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}
