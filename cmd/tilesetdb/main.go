// tilesetdb manages the tileset registry.
//
// Usage:
//
//	go run ./cmd/tilesetdb -config data/wangtile.yaml import assets/dungeon.tsx
//	go run ./cmd/tilesetdb list
//	go run ./cmd/tilesetdb show 3
//	go run ./cmd/tilesetdb export 3 dungeon.yaml
//	go run ./cmd/tilesetdb warnings 3
//	go run ./cmd/tilesetdb delete 3
//	go run ./cmd/tilesetdb -pg-host localhost -pg-user wangtile -pg-database wangtile copy
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/lawnchairsociety/wangtile/internal/config"
	"github.com/lawnchairsociety/wangtile/internal/logger"
	"github.com/lawnchairsociety/wangtile/internal/store"
	"github.com/lawnchairsociety/wangtile/internal/tileset"
	"github.com/lawnchairsociety/wangtile/internal/wang"
)

func main() {
	configFile := flag.String("config", "data/wangtile.yaml", "Path to config YAML file")
	sqlitePath := flag.String("sqlite", "", "SQLite database path; overrides the config")
	name := flag.String("name", "", "Tileset name for import (default: name in the file)")
	limit := flag.Int("limit", 20, "Number of warnings to show")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host (copy target)")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port (copy target)")
	pgUser := flag.String("pg-user", "wangtile", "PostgreSQL user (copy target)")
	pgPassword := flag.String("pg-password", "", "PostgreSQL password (copy target)")
	pgDatabase := flag.String("pg-database", "wangtile", "PostgreSQL database name (copy target)")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode (copy target)")
	flag.Parse()

	logger.Disable()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *sqlitePath != "" {
		cfg.Database = store.DefaultConfig(*sqlitePath)
	}

	// Arguments are checked before the database is opened, so no exit
	// path below skips Close.
	args := flag.Args()
	id, err := checkArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	db, err := store.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	switch args[0] {
	case "import":
		err = importTileset(db, args[1], *name)
	case "list":
		err = listTilesets(db)
	case "show":
		err = showTileset(db, id)
	case "export":
		err = exportTileset(db, id, args[2])
	case "warnings":
		err = showWarnings(db, id, *limit)
	case "delete":
		if err = db.DeleteTileset(id); err == nil {
			fmt.Printf("Tileset %d deleted\n", id)
		}
	case "copy":
		pg := store.DefaultPostgresConfig()
		pg.Host, pg.Port, pg.User = *pgHost, *pgPort, *pgUser
		pg.Password, pg.Database, pg.SSLMode = *pgPassword, *pgDatabase, *pgSSLMode
		err = copyTilesets(db, store.Config{Driver: string(store.DialectPostgres), Postgres: pg})
	}

	if err != nil {
		db.Close()
		log.Fatalf("%s: %v", args[0], err)
	}
}

func importTileset(db *store.Store, path, name string) error {
	ts, err := tileset.Load(path)
	if err != nil {
		return err
	}
	cat, rejected, err := ts.Build()
	if err != nil {
		return err
	}
	for _, r := range rejected {
		fmt.Printf("  skipped: %v\n", r)
	}

	if name == "" {
		name = ts.Name
	}
	id, created, err := db.SaveTileset(name, cat)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Imported %q as tileset %d (%d patterns)\n", name, id, cat.Len())
	} else {
		fmt.Printf("Identical content already stored as tileset %d\n", id)
	}
	return nil
}

func listTilesets(db *store.Store) error {
	list, err := db.ListTilesets()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No tilesets stored")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCLASSES\tPATTERNS\tFINGERPRINT\tCREATED")
	for _, t := range list {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.12s\t%s\n",
			t.ID, t.Name, t.Classes, t.Patterns, t.Fingerprint, t.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func showTileset(db *store.Store, id int64) error {
	ts, err := db.LoadTileset(id)
	if err != nil {
		return err
	}
	cat, _, err := ts.Build()
	if err != nil {
		return err
	}
	warnings, err := db.WarningCount(id)
	if err != nil {
		return err
	}

	fmt.Printf("Tileset %d: %s\n", id, ts.Name)
	fmt.Printf("Fingerprint: %s\n", cat.FingerprintHex())
	fmt.Printf("Classes:     %v (default %s)\n", ts.Classes.Names(), ts.Classes.Name(ts.Classes.Default()))
	fmt.Printf("Patterns:    %d over %d signatures\n", cat.Len(), cat.SignatureCount())
	fmt.Printf("Warnings:    %d recorded\n\n", warnings)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SIGNATURE\tTILES\tTOTAL WEIGHT")
	for _, g := range groups(cat) {
		fmt.Fprintf(w, "%s\t%v\t%g\n", g.sig, g.tiles, g.weight)
	}
	return w.Flush()
}

type groupRow struct {
	sig    string
	tiles  []wang.TileID
	weight float64
}

func groups(cat *wang.Catalog) []groupRow {
	var rows []groupRow
	cat.Groups(func(g wang.Group) {
		row := groupRow{sig: g.Signature.Format(cat.Classes()), weight: g.TotalWeight}
		for _, e := range g.Entries {
			row.tiles = append(row.tiles, e.TileID)
		}
		rows = append(rows, row)
	})
	return rows
}

func exportTileset(db *store.Store, id int64, path string) error {
	ts, err := db.LoadTileset(id)
	if err != nil {
		return err
	}
	if err := ts.WriteYAML(path); err != nil {
		return err
	}
	fmt.Printf("Tileset %d written to %s\n", id, path)
	return nil
}

func showWarnings(db *store.Store, id int64, limit int) error {
	count, err := db.WarningCount(id)
	if err != nil {
		return err
	}
	recent, err := db.RecentWarnings(id, limit)
	if err != nil {
		return err
	}

	fmt.Printf("%d warnings recorded for tileset %d\n", count, id)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CELL\tSIGNATURE\tMATCHED\tDISTANCE\tTILE\tRECORDED")
	for _, r := range recent {
		matched := r.Matched
		if matched == "" {
			matched = "-"
		}
		fmt.Fprintf(w, "(%d,%d)\t%s\t%s\t%d\t%d\t%s\n",
			r.Cell.X, r.Cell.Y, r.Signature, matched, r.Distance, r.Tile, r.RecordedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// copyTilesets copies every stored tileset into another database. Content
// already present there is skipped by fingerprint.
func copyTilesets(src *store.Store, target store.Config) error {
	dst, err := store.Open(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	list, err := src.ListTilesets()
	if err != nil {
		return err
	}

	copied := 0
	for _, info := range list {
		ts, err := src.LoadTileset(info.ID)
		if err != nil {
			return err
		}
		cat, _, err := ts.Build()
		if err != nil {
			return fmt.Errorf("tileset %d: %w", info.ID, err)
		}
		id, created, err := dst.SaveTileset(info.Name, cat)
		if err != nil {
			return fmt.Errorf("tileset %d: %w", info.ID, err)
		}
		if created {
			copied++
			log.Printf("Copied tileset %d (%s) as %d", info.ID, info.Name, id)
		}
	}

	log.Printf("Copy complete: %d of %d tilesets copied", copied, len(list))
	return nil
}

// commandArgs is the argument count each command needs, itself included.
var commandArgs = map[string]int{
	"import":   2,
	"list":     1,
	"show":     2,
	"export":   3,
	"warnings": 2,
	"delete":   2,
	"copy":     1,
}

var takesID = map[string]bool{"show": true, "export": true, "warnings": true, "delete": true}

// checkArgs validates the command line after the options and returns the
// tileset id for commands that take one.
func checkArgs(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, errors.New("no command given")
	}
	want, known := commandArgs[args[0]]
	if !known {
		return 0, fmt.Errorf("unknown command %q", args[0])
	}
	if len(args) < want {
		return 0, fmt.Errorf("%s needs %d argument(s)", args[0], want-1)
	}
	if !takesID[args[0]] {
		return 0, nil
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid tileset id %q", args[1])
	}
	return id, nil
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command> [args]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  import <file>        store a .yaml/.yml/.tsx tileset\n")
		fmt.Fprintf(os.Stderr, "  list                 list stored tilesets\n")
		fmt.Fprintf(os.Stderr, "  show <id>            print a tileset's signatures\n")
		fmt.Fprintf(os.Stderr, "  export <id> <file>   write a tileset as YAML\n")
		fmt.Fprintf(os.Stderr, "  warnings <id>        print recorded resolution warnings\n")
		fmt.Fprintf(os.Stderr, "  delete <id>          remove a tileset and its warnings\n")
		fmt.Fprintf(os.Stderr, "  copy                 copy all tilesets into PostgreSQL\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
