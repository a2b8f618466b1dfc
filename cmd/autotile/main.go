package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lawnchairsociety/wangtile/internal/autotile"
	"github.com/lawnchairsociety/wangtile/internal/config"
	"github.com/lawnchairsociety/wangtile/internal/logger"
	"github.com/lawnchairsociety/wangtile/internal/store"
	"github.com/lawnchairsociety/wangtile/internal/terrain"
	"github.com/lawnchairsociety/wangtile/internal/tileset"
	"github.com/lawnchairsociety/wangtile/internal/wang"
	"github.com/lawnchairsociety/wangtile/internal/worldgen"
)

func main() {
	configFile := flag.String("config", "data/wangtile.yaml", "Path to config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	tilesetFile := flag.String("tileset", "", "Tileset file (.yaml, .yml or .tsx); overrides the config")
	width := flag.Int("width", 0, "Grid width in cells (0 = from config)")
	height := flag.Int("height", 0, "Grid height in cells (0 = from config)")
	seed := flag.Int64("seed", 0, "Resolver seed (0 = from config)")
	terrainSeed := flag.Int64("terrain-seed", 0, "Terrain noise seed (0 = from config)")
	format := flag.String("format", "ids", "Output format: ids, ascii or json")
	outputFile := flag.String("output", "", "Output file (empty for stdout)")
	record := flag.Bool("record", false, "Store the tileset and its resolution warnings in the database")
	flag.Parse()

	logConfig, _ := logger.LoadConfig(*loggingConfig)
	logger.Initialize(logConfig)

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fatalf("Error loading config: %v", err)
	}
	if *tilesetFile != "" {
		cfg.Tileset = *tilesetFile
	}
	if *width > 0 {
		cfg.Grid.Width = *width
	}
	if *height > 0 {
		cfg.Grid.Height = *height
	}
	if *seed != 0 {
		cfg.Resolver.Seed = *seed
	}
	if *terrainSeed != 0 {
		cfg.Worldgen.Seed = *terrainSeed
	}
	if cfg.Tileset == "" {
		fatalf("No tileset given: set -tileset or tileset in %s", *configFile)
	}

	ts, err := tileset.Load(cfg.Tileset)
	if err != nil {
		fatalf("Error loading tileset: %v", err)
	}
	cat, rejected, err := ts.Build()
	if err != nil {
		fatalf("Error building catalog: %v", err)
	}
	logger.Info("Catalog built",
		"tileset", ts.Name,
		"patterns", cat.Len(),
		"signatures", cat.SignatureCount(),
		"rejected", len(rejected))

	grid, err := terrain.NewGrid(cfg.Grid.Width, cfg.Grid.Height, cat.Classes())
	if err != nil {
		fatalf("Error creating grid: %v", err)
	}
	if _, err := worldgen.Generate(grid, cfg.Worldgen, cfg.Brushes); err != nil {
		fatalf("Error generating terrain: %v", err)
	}

	session, result, err := autotile.NewSession(grid, cat, cfg.Resolver.Seed)
	if err != nil {
		fatalf("Error resolving grid: %v", err)
	}

	if *record || cfg.Resolver.RecordWarnings {
		if err := recordRun(cfg.Database, ts.Name, cat, result.Warnings); err != nil {
			fatalf("Error recording run: %v", err)
		}
	}

	var out string
	switch *format {
	case "ids":
		out = renderIDs(session)
	case "ascii":
		out = renderASCII(session)
	case "json":
		data, err := json.MarshalIndent(struct {
			Width    int             `json:"width"`
			Height   int             `json:"height"`
			Tiles    [][]wang.TileID `json:"tiles"`
			Warnings int             `json:"warnings"`
		}{grid.Width(), grid.Height(), session.Tiles().Rows(grid.Width(), grid.Height()), len(result.Warnings)}, "", "  ")
		if err != nil {
			fatalf("Error encoding JSON: %v", err)
		}
		out = string(data) + "\n"
	default:
		fatalf("Unknown format %q (want ids, ascii or json)", *format)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(out), 0644); err != nil {
			fatalf("Error writing output file: %v", err)
		}
		fmt.Printf("Map written to %s\n", *outputFile)
	} else {
		fmt.Print(out)
	}
}

func recordRun(dbCfg store.Config, name string, cat *wang.Catalog, warnings []*autotile.ResolutionWarning) error {
	db, err := store.Open(dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	id, _, err := db.SaveTileset(name, cat)
	if err != nil {
		return err
	}
	if err := db.RecordWarnings(id, warnings); err != nil {
		return err
	}
	logger.Info("Run recorded", "tileset_id", id, "warnings", len(warnings))
	return nil
}

// renderIDs prints one row of right-aligned tile ids per grid row.
func renderIDs(s *autotile.Session) string {
	g := s.Grid()
	rows := s.Tiles().Rows(g.Width(), g.Height())

	widest := 1
	for _, row := range rows {
		for _, id := range row {
			if n := len(fmt.Sprint(id)); n > widest {
				widest = n
			}
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for x, id := range row {
			if x > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%*d", widest, id)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// renderASCII draws uniform tiles with the first letter of their class,
// transition tiles as '+' and unresolved cells as '?'.
func renderASCII(s *autotile.Session) string {
	g := s.Grid()
	classes := g.Classes()
	rows := s.Tiles().Rows(g.Width(), g.Height())

	var b strings.Builder
	for _, row := range rows {
		for _, id := range row {
			b.WriteByte(glyph(s.Catalog(), classes, id))
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nLegend: ")
	for i, name := range classes.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%c = %s", strings.ToLower(name)[0], name)
	}
	b.WriteString(", + = transition, ? = unresolved\n")
	return b.String()
}

func glyph(cat *wang.Catalog, classes *terrain.ClassSet, id wang.TileID) byte {
	e, ok := cat.Entry(id)
	if !ok {
		return '?'
	}
	if !e.Signature.Uniform() {
		return '+'
	}
	return strings.ToLower(classes.Name(e.Signature[terrain.TopLeft]))[0]
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
