package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/localscout/internal/controller"
	"github.com/abelbrown/localscout/internal/filter"
	"github.com/abelbrown/localscout/internal/geo"
	"github.com/abelbrown/localscout/internal/store"
)

var listFlags struct {
	query      string
	categories []string
	price      string
	distance   string
	minRating  float64
	timeBucket string
	openNow    bool
	sort       string
	limit      int
	saved      bool
	reset      bool
	asJSON     bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print places matching the given filters",
	Long: `Applies the filter flags through the same pending/apply cycle as the
interactive panel and prints the result.

With --saved the session's last applied filters are the starting point and
the result is saved back to the session.`,
	Example: `  scout list --category food --price 1-2 --sort rating
  scout list --distance walking --time tonight --open-now
  scout list --saved --query arepa`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	f := listCmd.Flags()
	f.StringVarP(&listFlags.query, "query", "q", "", "match place names")
	f.StringSliceVarP(&listFlags.categories, "category", "c", nil, "restrict to categories (repeatable)")
	f.StringVar(&listFlags.price, "price", "", "price tier or range, e.g. 2 or 1-3")
	f.StringVar(&listFlags.distance, "distance", "", "walking, nearby, city, region or any")
	f.Float64Var(&listFlags.minRating, "min-rating", 0, "minimum rating")
	f.StringVar(&listFlags.timeBucket, "time", "", "morning, afternoon, tonight, weekend or any")
	f.BoolVar(&listFlags.openNow, "open-now", false, "only places currently open")
	f.StringVar(&listFlags.sort, "sort", "", "relevance, distance, rating or price")
	f.IntVar(&listFlags.limit, "limit", 0, "maximum places to print (0 = all)")
	f.BoolVar(&listFlags.saved, "saved", false, "start from and save to the session filters")
	f.BoolVar(&listFlags.reset, "reset", false, "reset filters before applying flags")
	f.BoolVar(&listFlags.asJSON, "json", false, "print JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	opts := []controller.Option{controller.WithDefaults(cfg.DefaultFilters())}
	if listFlags.saved {
		snap := newSnapshotter(st, nil)
		defer snap.Close()
		opts = append(opts, controller.WithSnapshotter(snap))
	}
	ctrl := controller.New(opts...)

	if listFlags.reset {
		ctrl.Reset()
	}
	if err := applyListFlags(cmd, ctrl); err != nil {
		return err
	}
	ctrl.Apply()

	places, err := st.GetPlaces(0)
	if err != nil {
		return err
	}
	places = controller.FilterItems(ctrl, geo.WithDistances(places, cfg.Origin))
	total := len(places)
	if listFlags.limit > 0 && len(places) > listFlags.limit {
		places = places[:listFlags.limit]
	}

	out := cmd.OutOrStdout()
	if listFlags.asJSON {
		return writePlacesJSON(out, places)
	}
	writePlacesTable(out, places)
	spec := ctrl.Filters()
	fmt.Fprintf(out, "\n%d of %d matches shown", len(places), total)
	if clauses := filter.ActiveClauses(spec); len(clauses) > 0 {
		fmt.Fprintf(out, " · filters: %s", strings.Join(clauses, ", "))
	}
	fmt.Fprintf(out, " · sort: %s\n", spec.Sort)
	return nil
}

// applyListFlags edits pending filters for every flag the user set.
func applyListFlags(cmd *cobra.Command, ctrl *controller.Controller) error {
	changed := cmd.Flags().Changed

	if changed("query") {
		ctrl.SetQuery(listFlags.query)
	}
	for _, c := range listFlags.categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" && !ctrl.PendingFilters().HasCategory(c) {
			ctrl.ToggleCategory(c)
		}
	}
	if changed("price") {
		r, err := parsePriceRange(listFlags.price)
		if err != nil {
			return err
		}
		ctrl.SetPriceRange(r.Min, r.Max)
	}
	if changed("distance") {
		d := filter.Distance(listFlags.distance)
		if !contains(filter.Distances, d) {
			return fmt.Errorf("unknown distance %q", listFlags.distance)
		}
		ctrl.SetDistance(d)
	}
	if changed("min-rating") {
		ctrl.SetMinRating(listFlags.minRating)
	}
	if changed("time") {
		b := filter.TimeBucket(listFlags.timeBucket)
		if !contains(filter.TimeBuckets, b) {
			return fmt.Errorf("unknown time bucket %q", listFlags.timeBucket)
		}
		ctrl.SetTimeFilter(b)
	}
	if changed("open-now") && ctrl.PendingFilters().OpenNow != listFlags.openNow {
		ctrl.ToggleOpenNow()
	}
	if changed("sort") {
		o := filter.SortOption(listFlags.sort)
		if !contains(filter.SortOptions, o) {
			return fmt.Errorf("unknown sort %q", listFlags.sort)
		}
		ctrl.SetSort(o)
	}
	return nil
}

// parsePriceRange parses "2" or "1-3".
func parsePriceRange(s string) (filter.PriceRange, error) {
	lo, hi, isRange := strings.Cut(strings.TrimSpace(s), "-")
	if !isRange {
		hi = lo
	}
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return filter.PriceRange{}, fmt.Errorf("bad price %q", s)
	}
	to, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return filter.PriceRange{}, fmt.Errorf("bad price %q", s)
	}
	r := filter.PriceRange{Min: filter.PriceTier(from), Max: filter.PriceTier(to)}
	if !r.Valid() {
		return filter.PriceRange{}, fmt.Errorf("price %q outside %s-%s", s, filter.PriceBudget, filter.PriceLuxury)
	}
	return r, nil
}

func contains[T comparable](opts []T, v T) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}

func writePlacesTable(w io.Writer, places []store.Place) {
	for _, p := range places {
		cat := p.Category
		if cat == "" {
			cat = "-"
		}
		fmt.Fprintf(w, "%-28s %-10s %-5s %-5s %-8s %s\n",
			truncate(p.Name, 28),
			truncate(cat, 10),
			priceLabel(p),
			ratingLabel(p),
			distanceLabel(p),
			p.Neighborhood,
		)
	}
}

type placeJSON struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Price        *int     `json:"price,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	Open         *bool    `json:"open,omitempty"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
}

func writePlacesJSON(w io.Writer, places []store.Place) error {
	out := make([]placeJSON, len(places))
	for i, p := range places {
		out[i] = placeJSON{
			ID:           p.ID,
			Name:         p.Name,
			Category:     p.Category,
			Neighborhood: p.Neighborhood,
			Price:        p.PriceTier,
			Rating:       p.Rating,
			Open:         p.Open,
			DistanceKm:   p.DistanceKm,
			Lat:          p.Lat,
			Lng:          p.Lng,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func priceLabel(p store.Place) string {
	if t, ok := p.FilterPrice(); ok {
		return t.String()
	}
	return "-"
}

func ratingLabel(p store.Place) string {
	if r, ok := p.FilterRating(); ok {
		return strconv.FormatFloat(r, 'f', 1, 64)
	}
	return "-"
}

func distanceLabel(p store.Place) string {
	if km, ok := p.FilterDistance(); ok {
		return strconv.FormatFloat(km, 'f', 1, 64) + "km"
	}
	return "-"
}

// truncate shortens a string to n runes, appending "…" if truncated.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
