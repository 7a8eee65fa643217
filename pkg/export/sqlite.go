package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/critdiff/pkg/diagram"
	"github.com/vanderheijden86/critdiff/pkg/version"
)

// SchemaVersion is bumped whenever the exported tables change.
const SchemaVersion = 1

var schema = []string{
	`CREATE TABLE methods (
		idx INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		score REAL NOT NULL,
		side TEXT NOT NULL,
		label_y REAL NOT NULL
	)`,
	`CREATE TABLE pairs (
		lo INTEGER NOT NULL REFERENCES methods(idx),
		hi INTEGER NOT NULL REFERENCES methods(idx),
		merged INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (lo, hi)
	)`,
	`CREATE TABLE connectors (
		lo INTEGER NOT NULL REFERENCES methods(idx),
		hi INTEGER NOT NULL REFERENCES methods(idx),
		layer INTEGER NOT NULL,
		height REAL NOT NULL,
		PRIMARY KEY (lo, hi)
	)`,
	`CREATE INDEX idx_connectors_layer ON connectors(layer)`,
	`CREATE TABLE meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// ExportSQLite writes the plan's methods, pairs and connector placements to a
// fresh SQLite database at path, replacing any existing file.
func ExportSQLite(path string, plan diagram.Plan) error {
	if path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if err := insertMethods(tx, plan); err != nil {
		return fmt.Errorf("insert methods: %w", err)
	}
	if err := insertPairs(tx, plan); err != nil {
		return fmt.Errorf("insert pairs: %w", err)
	}
	if err := insertConnectors(tx, plan); err != nil {
		return fmt.Errorf("insert connectors: %w", err)
	}
	if err := insertMeta(tx, plan); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return db.Close()
}

func insertMethods(tx *sql.Tx, plan diagram.Plan) error {
	stmt, err := tx.Prepare(`INSERT INTO methods (idx, name, score, side, label_y) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, pt := range plan.Points {
		l := plan.Labels[i]
		if _, err := stmt.Exec(i, l.Text, pt.X, l.Side.String(), l.At.Y); err != nil {
			return err
		}
	}
	return nil
}

func insertPairs(tx *sql.Tx, plan diagram.Plan) error {
	stmt, err := tx.Prepare(`INSERT INTO pairs (lo, hi, merged) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range plan.Pairs {
		merged := 0
		if slices.Contains(plan.Merged, p) {
			merged = 1
		}
		if _, err := stmt.Exec(p.Lo, p.Hi, merged); err != nil {
			return err
		}
	}
	return nil
}

func insertConnectors(tx *sql.Tx, plan diagram.Plan) error {
	stmt, err := tx.Prepare(`INSERT INTO connectors (lo, hi, layer, height) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, pl := range plan.Placements {
		if _, err := stmt.Exec(pl.Lo, pl.Hi, pl.Layer, pl.Height); err != nil {
			return err
		}
	}
	return nil
}

func insertMeta(tx *sql.Tx, plan diagram.Plan) error {
	meta := map[string]string{
		"schema_version": strconv.Itoa(SchemaVersion),
		"generator":      "critdiff " + version.Version,
		"x_min":          strconv.FormatFloat(plan.XMin, 'g', -1, 64),
		"x_max":          strconv.FormatFloat(plan.XMax, 'g', -1, 64),
		"layers":         strconv.Itoa(diagram.Layers(plan.Placements)),
		"arrow_vgap":     strconv.FormatFloat(plan.Params.ArrowVGap, 'g', -1, 64),
		"link_voffset":   strconv.FormatFloat(plan.Params.LinkVOffset, 'g', -1, 64),
		"link_vgap":      strconv.FormatFloat(plan.Params.LinkVGap, 'g', -1, 64),
	}
	if plan.XLabel != nil {
		meta["x_label"] = plan.XLabel.Text
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return err
		}
	}
	return nil
}
