package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"pronafmonitor/internal/config"
	"pronafmonitor/internal/dataprocessing"
	"pronafmonitor/pkg/contracts"
	"pronafmonitor/pkg/contracts/domain"
)

// SnapshotTable is the table the cleaned dataset is written to.
const SnapshotTable = "municipios"

var integerSnapshotColumns = func() map[string]bool {
	m := map[string]bool{config.ColIBGECode: true, config.ColOperations: true}
	for _, c := range config.IntegerColumns {
		m[c] = true
	}
	return m
}()

// WriteSQLite replaces path with a database holding the cleaned dataset in
// source column order. Counts are INTEGER, credit is REAL and every other
// column is TEXT. A missing identifier is stored as NULL. The schema
// version is stamped in PRAGMA user_version.
func WriteSQLite(ctx context.Context, path string, ds *domain.Dataset) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove previous snapshot: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer db.Close()

	defs := make([]string, 0, len(ds.Columns))
	quoted := make([]string, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		defs = append(defs, fmt.Sprintf("%q %s", c, snapshotType(c)))
		quoted = append(quoted, fmt.Sprintf("%q", c))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, SnapshotTable)); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, SnapshotTable, strings.Join(defs, ","))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(ds.Columns)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
		SnapshotTable, strings.Join(quoted, ","), placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range ds.Records {
		args := make([]any, 0, len(ds.Columns))
		for _, c := range ds.Columns {
			args = append(args, snapshotValue(rec, c))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	for _, col := range []string{config.ColIBGECode, config.ColImmediateRegion, config.ColMunicipality} {
		idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q(%q)`,
			"idx_"+SnapshotTable+"_"+indexSuffix(col), SnapshotTable, col)
		if _, err := tx.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, contracts.SnapshotSchema)); err != nil {
		return fmt.Errorf("failed to stamp schema version: %w", err)
	}

	return tx.Commit()
}

func snapshotType(col string) string {
	switch {
	case integerSnapshotColumns[col]:
		return "INTEGER"
	case col == config.ColCredit:
		return "REAL"
	default:
		return "TEXT"
	}
}

func snapshotValue(rec domain.Record, col string) any {
	switch col {
	case config.ColIBGECode:
		if rec.IBGECode == nil {
			return nil
		}
		return *rec.IBGECode
	case config.ColCAFIndividual:
		return rec.CAFIndividualActive
	case config.ColCAFLegalEntity:
		return rec.CAFLegalEntityActive
	case config.ColWomenActive:
		return rec.WomenActive
	case config.ColMenActive:
		return rec.MenActive
	case config.ColFamilyFarmers:
		return rec.FamilyFarmers
	case config.ColOperations:
		return rec.Operations
	case config.ColCredit:
		return rec.Credit
	default:
		return dataprocessing.CellText(rec, col)
	}
}

func indexSuffix(col string) string {
	switch col {
	case config.ColIBGECode:
		return "ibge"
	case config.ColImmediateRegion:
		return "regiao"
	default:
		return "municipio"
	}
}
