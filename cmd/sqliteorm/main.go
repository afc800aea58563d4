// Command sqliteorm is the maintenance CLI for the schema engine.
// It inspects live SQLite databases, applies declarative schema files,
// manages backups, and fills tables with generated test rows.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gosuri/uiprogress"

	"github.com/FireDaemon/sqlite-orm/core/schema"
	"github.com/FireDaemon/sqlite-orm/core/sqlite"
	"github.com/FireDaemon/sqlite-orm/core/storage"
	schemasync "github.com/FireDaemon/sqlite-orm/core/sync"
	"github.com/FireDaemon/sqlite-orm/internal/logging"
	"github.com/FireDaemon/sqlite-orm/internal/schemafile"
	"github.com/FireDaemon/sqlite-orm/internal/seed"
)

const version = "0.1.0"

// CLI defines the command-line interface for sqliteorm.
var CLI struct {
	// Global flags
	DB      string `name:"db" short:"d" help:"SQLite database file" type:"path"`
	Verbose bool   `help:"Enable debug logging"`

	Tables  TablesCmd  `cmd:"" help:"List user tables in the database"`
	Columns ColumnsCmd `cmd:"" help:"Show the columns of a table"`
	Digest  DigestCmd  `cmd:"" help:"Print the live schema digest"`
	Apply   ApplyCmd   `cmd:"" help:"Synchronize the database against a schema file"`
	Check   CheckCmd   `cmd:"" help:"Run integrity and schema drift checks"`
	Backup  BackupCmd  `cmd:"" help:"Back up the database with VACUUM INTO"`
	Restore RestoreCmd `cmd:"" help:"Replace the database with a backup"`
	Seed    SeedCmd    `cmd:"" help:"Fill a table with generated rows"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// TablesCmd lists the user tables of the database.
type TablesCmd struct{}

func (c *TablesCmd) Run() error {
	db, err := openExisting()
	if err != nil {
		return err
	}
	defer db.Close()

	insp := schemasync.NewInspector(db)
	names, err := insp.Tables(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	if len(names) == 0 {
		fmt.Println("No tables.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// ColumnsCmd shows the live column layout of one table.
type ColumnsCmd struct {
	Table string `arg:"" help:"Table name"`
}

func (c *ColumnsCmd) Run() error {
	db, err := openExisting()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	insp := schemasync.NewInspector(db)
	exists, err := insp.TableExists(ctx, c.Table)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", c.Table, err)
	}
	if !exists {
		return fmt.Errorf("table %s does not exist", c.Table)
	}
	infos, err := insp.Columns(ctx, c.Table)
	if err != nil {
		return fmt.Errorf("failed to read columns of %s: %w", c.Table, err)
	}

	fmt.Printf("Table: %s\n", c.Table)
	for _, ci := range infos {
		fmt.Printf("  [%02d] %-20s %-12s%s\n", ci.CID, ci.Name, ci.Type, columnFlags(ci))
	}
	return nil
}

func columnFlags(ci schema.ColumnInfo) string {
	var flags []string
	if ci.PK > 0 {
		flags = append(flags, "pk")
	}
	if ci.NotNull {
		flags = append(flags, "notnull")
	}
	if ci.HasDefault() {
		flags = append(flags, "default "+ci.DefaultValue)
	}
	switch ci.Hidden {
	case schema.HiddenVirtual:
		flags = append(flags, "generated virtual")
	case schema.HiddenStored:
		flags = append(flags, "generated stored")
	}
	if len(flags) == 0 {
		return ""
	}
	return " " + strings.Join(flags, ", ")
}

// DigestCmd prints the fingerprint of the live schema.
type DigestCmd struct{}

func (c *DigestCmd) Run() error {
	if err := requireExisting(); err != nil {
		return err
	}
	s, err := storage.Open(CLI.DB, storage.Options{})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	digest, err := s.SchemaDigest(context.Background())
	if err != nil {
		return fmt.Errorf("failed to compute digest: %w", err)
	}
	fmt.Println(digest)
	return nil
}

// ApplyCmd synchronizes the database against a declarative schema file.
type ApplyCmd struct {
	Schema   string `arg:"" help:"Schema file (.sdl)" type:"existingfile"`
	DryRun   bool   `help:"Print the statements without executing them"`
	Preserve bool   `help:"Keep live columns the schema does not declare"`
}

func (c *ApplyCmd) Run() error {
	if err := requireDB(); err != nil {
		return err
	}
	tables, err := schemafile.ParseFile(c.Schema)
	if err != nil {
		return err
	}

	s, err := storage.Open(CLI.DB, storage.Options{})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	for _, tbl := range tables {
		if err := s.Register(tbl); err != nil {
			return fmt.Errorf("failed to register %s: %w", tbl.Name, err)
		}
	}

	ctx := context.Background()
	if c.DryRun {
		return printPlans(ctx, s, tables, c.Preserve)
	}

	outcomes, err := s.SyncSchema(ctx, c.Preserve)
	// Report the tables that completed even when a later one failed.
	for _, tbl := range tables {
		if outcome, ok := outcomes[tbl.Name]; ok {
			fmt.Printf("%s: %s\n", tbl.Name, outcome)
		}
	}
	return err
}

func printPlans(ctx context.Context, s *storage.Storage, tables []*schema.Table, preserve bool) error {
	insp := schemasync.NewInspector(s.DB())
	caps := s.Capabilities()
	for _, tbl := range tables {
		if err := tbl.Validate(); err != nil {
			return fmt.Errorf("invalid mapping %s: %w", tbl.Name, err)
		}
		if tbl.HasGeneratedColumns() && !caps.GeneratedColumns() {
			return fmt.Errorf("table %s: generated columns require SQLite 3.31.0, have %s",
				tbl.Name, caps.Version)
		}

		exists, err := insp.TableExists(ctx, tbl.Name)
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", tbl.Name, err)
		}
		var actual []schema.ColumnInfo
		if exists {
			if actual, err = insp.Columns(ctx, tbl.Name); err != nil {
				return fmt.Errorf("failed to inspect %s: %w", tbl.Name, err)
			}
		}

		plan := schemasync.PlanTable(exists, schemasync.CalcDiff(tbl.Descriptors(), actual), caps, preserve)
		fmt.Printf("%s: %s\n", tbl.Name, plan.Outcome)
		for _, stmt := range schemasync.Script(tbl, actual, plan) {
			fmt.Printf("  %s\n", stmt)
		}
	}
	return nil
}

// CheckCmd verifies database health: PRAGMA integrity_check plus,
// when a schema file is given, digest drift against it.
type CheckCmd struct {
	Schema string `help:"Schema file (.sdl) to compare the live schema against" type:"existingfile"`
}

func (c *CheckCmd) Run() error {
	if err := requireExisting(); err != nil {
		return err
	}
	s, err := storage.Open(CLI.DB, storage.Options{})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	problems, err := s.Pragmas().IntegrityCheck(ctx)
	if err != nil {
		return fmt.Errorf("failed to run integrity check: %w", err)
	}
	healthy := len(problems) == 1 && problems[0] == "ok"
	if healthy {
		fmt.Println("Integrity: ok")
	} else {
		fmt.Printf("Integrity: %d problem(s)\n", len(problems))
		for _, p := range problems {
			fmt.Printf("  %s\n", p)
		}
	}

	drift := false
	if c.Schema != "" {
		tables, err := schemafile.ParseFile(c.Schema)
		if err != nil {
			return err
		}
		for _, tbl := range tables {
			if err := s.Register(tbl); err != nil {
				return fmt.Errorf("failed to register %s: %w", tbl.Name, err)
			}
		}
		live, err := s.SchemaDigest(ctx)
		if err != nil {
			return fmt.Errorf("failed to compute digest: %w", err)
		}
		if live == s.DeclaredDigest() {
			fmt.Println("Schema: in sync")
		} else {
			drift = true
			fmt.Println("Schema: drift detected (run apply to synchronize)")
		}
	}

	if !healthy || drift {
		return fmt.Errorf("check failed")
	}
	return nil
}

// BackupCmd writes a consistent snapshot of the database.
type BackupCmd struct {
	Out string `arg:"" help:"Backup destination (a .xz suffix compresses)" type:"path"`
}

func (c *BackupCmd) Run() error {
	if err := requireExisting(); err != nil {
		return err
	}
	s, err := storage.Open(CLI.DB, storage.Options{})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	if err := s.BackupTo(context.Background(), c.Out); err != nil {
		return fmt.Errorf("failed to back up: %w", err)
	}
	fmt.Printf("Backed up %s to %s\n", CLI.DB, c.Out)
	return nil
}

// RestoreCmd replaces the database file with a backup.
type RestoreCmd struct {
	Backup string `arg:"" help:"Backup file to restore" type:"existingfile"`
}

func (c *RestoreCmd) Run() error {
	if err := requireDB(); err != nil {
		return err
	}
	if err := storage.Restore(c.Backup, CLI.DB); err != nil {
		return fmt.Errorf("failed to restore: %w", err)
	}
	fmt.Printf("Restored %s from %s\n", CLI.DB, c.Backup)
	return nil
}

// SeedCmd fills a live table with generated rows.
type SeedCmd struct {
	Table string `arg:"" help:"Table to fill"`
	Count int    `default:"100" help:"Number of rows to insert"`
	Seed  int64  `help:"Random seed (0 uses the current time)"`
}

func (c *SeedCmd) Run() error {
	if c.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", c.Count)
	}
	db, err := openExisting()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	insp := schemasync.NewInspector(db)
	exists, err := insp.TableExists(ctx, c.Table)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", c.Table, err)
	}
	if !exists {
		return fmt.Errorf("table %s does not exist", c.Table)
	}
	infos, err := insp.Columns(ctx, c.Table)
	if err != nil {
		return fmt.Errorf("failed to read columns of %s: %w", c.Table, err)
	}

	seedVal := c.Seed
	if seedVal == 0 {
		seedVal = time.Now().UnixNano()
	}
	gen := seed.New(seedVal)
	tbl := schema.FromColumnInfos(c.Table, infos)

	// A fresh Progress per run: the package-level renderer cannot be
	// restarted once stopped.
	progress := uiprogress.New()
	progress.Start()
	bar := progress.AddBar(c.Count).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return c.Table + ": "
	})
	err = gen.InsertRows(ctx, db, tbl, c.Count, func() {
		bar.Incr()
	})
	progress.Stop()
	if err != nil {
		return fmt.Errorf("failed to seed %s: %w", c.Table, err)
	}

	fmt.Printf("Inserted %d rows into %s\n", c.Count, c.Table)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Printf("sqliteorm version %s\n", version)
	fmt.Printf("  Driver:  %s (%s)\n", info.DriverName, info.DriverType)
	fmt.Printf("  Package: %s\n", info.Package)

	db, err := sqlite.Open(":memory:")
	if err == nil {
		if v, err := sqlite.QueryVersion(context.Background(), db); err == nil {
			fmt.Printf("  SQLite:  %s\n", v)
		}
		db.Close()
	}
	return nil
}

// Helper functions

func requireDB() error {
	if CLI.DB == "" {
		return fmt.Errorf("no database given (use --db)")
	}
	return nil
}

// requireExisting rejects a missing database file so read-only
// commands do not silently create an empty one.
func requireExisting() error {
	if err := requireDB(); err != nil {
		return err
	}
	if _, err := os.Stat(CLI.DB); err != nil {
		return fmt.Errorf("database %s not found", CLI.DB)
	}
	return nil
}

func openExisting() (*sql.DB, error) {
	if err := requireExisting(); err != nil {
		return nil, err
	}
	db, err := sqlite.Open(CLI.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("sqliteorm"),
		kong.Description("SQLite schema synchronization and maintenance tool"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if CLI.Verbose {
		logging.InitLogger(logging.LevelDebug, logging.FormatText)
	}
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
