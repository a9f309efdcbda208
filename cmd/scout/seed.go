package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/abelbrown/localscout/internal/logging"
	"github.com/abelbrown/localscout/internal/store"
)

// seedNamespace scopes derived place IDs so reseeding a file updates rows
// instead of duplicating them.
var seedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://localscout/places"))

var seedFlags struct {
	workers int
	dryRun  bool
}

var seedCmd = &cobra.Command{
	Use:   "seed <file>...",
	Short: "Import places from YAML or JSON files",
	Long: `Reads place records from each file in parallel and saves them to the
catalog. Records without an id get one derived from name and location, so
importing the same file twice replaces rather than duplicates.

A record looks like:

  - name: Pergamino
    category: coffee
    neighborhood: Poblado
    price: 2
    rating: 4.6
    lat: 6.2096
    lng: -75.5671
    hours: ["mon-sat 07:00-20:00", "sun 09:00-18:00"]`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedFlags.workers, "workers", 4, "files parsed concurrently")
	seedCmd.Flags().BoolVar(&seedFlags.dryRun, "dry-run", false, "parse and validate only")
}

func runSeed(cmd *cobra.Command, args []string) error {
	results := make([][]store.Place, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(1, seedFlags.workers))
	for i, path := range args {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			places, err := readPlaceFile(path)
			if err != nil {
				return err
			}
			results[i] = places
			logging.Debug("parsed seed file", "path", path, "places", len(places))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var all []store.Place
	for _, r := range results {
		all = append(all, r...)
	}

	out := cmd.OutOrStdout()
	if seedFlags.dryRun {
		fmt.Fprintf(out, "%d places parsed from %d files (dry run)\n", len(all), len(args))
		return nil
	}

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	n, err := st.SavePlaces(all)
	if err != nil {
		return err
	}
	total, err := st.CountPlaces()
	if err != nil {
		return err
	}
	logging.Info("seeded places", "files", len(args), "saved", n, "total", total)
	fmt.Fprintf(out, "saved %d places from %d files (%d in catalog)\n", n, len(args), total)
	return nil
}

// readPlaceFile decodes a YAML or JSON list of records by extension.
func readPlaceFile(path string) ([]store.Place, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records []store.Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &records)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		return nil, fmt.Errorf("%s: unsupported file type (want .yaml, .yml or .json)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	places := make([]store.Place, 0, len(records))
	for i, r := range records {
		p, err := r.Place()
		if err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", path, i+1, err)
		}
		if p.ID == "" {
			p.ID = placeID(p)
		}
		places = append(places, p)
	}
	return places, nil
}

// placeID derives a stable ID from name and coordinates.
func placeID(p store.Place) string {
	key := strings.ToLower(p.Name) + "|" +
		strconv.FormatFloat(p.Lat, 'f', 5, 64) + "|" +
		strconv.FormatFloat(p.Lng, 'f', 5, 64)
	return uuid.NewSHA1(seedNamespace, []byte(key)).String()
}
