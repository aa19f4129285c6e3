// Command plan optimises an itinerary for a CSV dataset and prints it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"itinopt/internal/config"
	"itinopt/internal/integrations/csvfile"
	"itinopt/internal/logging"
	"itinopt/internal/mip/bnb"
	"itinopt/internal/model"
	"itinopt/internal/opt"
)

func main() {
	def := config.Default().Optimizer
	attractions := flag.String("attractions", "", "attraction table CSV")
	distances := flag.String("distances", "", "distance matrix CSV")
	days := flag.Int("days", def.Days, "number of days")
	budget := flag.Float64("budget", def.BudgetPerDay, "budget per day")
	hours := flag.Float64("hours", def.TimePerDay, "hours available per day")
	speed := flag.Float64("speed", def.AvgSpeedKmh, "average travel speed in km/h")
	costPerKm := flag.Float64("cost-per-km", def.TravelCostPerKm, "travel cost per km")
	alpha := flag.Float64("alpha", def.Alpha, "distance penalty in the objective")
	weights := flag.String("weights", "", "category weights, e.g. food=0.3,culture=0.3 (default from config)")
	limit := flag.Int("limit", def.TimeLimitSeconds, "solver time limit in seconds")
	level := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log.Logger = logging.New(os.Stderr, *level, "console")
	if *attractions == "" || *distances == "" {
		flag.Usage()
		os.Exit(2)
	}

	ds, err := csvfile.Adapter{AttractionsPath: *attractions, DistancesPath: *distances}.Load(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load dataset")
	}
	cw := opt.CategoryWeights(def.CategoryWeights)
	if *weights != "" {
		if cw, err = parseWeights(*weights); err != nil {
			log.Fatal().Err(err).Msg("invalid -weights")
		}
	}

	req := opt.Request{
		Attractions:      toAttractions(ds.Attractions),
		Distances:        ds.Distances,
		Days:             *days,
		BudgetPerDay:     *budget,
		TimePerDay:       *hours,
		CategoryWeights:  cw,
		AvgSpeedKmh:      *speed,
		TravelCostPerKm:  *costPerKm,
		Alpha:            *alpha,
		TimeLimitSeconds: *limit,
	}
	planner := opt.NewPlanner(bnb.Factory(bnb.WithLogger(log.Logger)), log.Logger)
	res, err := planner.Plan(context.Background(), req)
	if err != nil {
		log.Fatal().Err(err).Msg("planning failed")
	}
	printResult(os.Stdout, res)
}

// parseWeights reads "food=0.3,culture=0.3".
func parseWeights(s string) (opt.CategoryWeights, error) {
	out := opt.CategoryWeights{}
	for _, part := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected category=weight, got %q", part)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("weight of %q: %w", k, err)
		}
		out[strings.ToLower(strings.TrimSpace(k))] = w
	}
	return out, nil
}

func toAttractions(in []model.AttractionIn) []opt.Attraction {
	out := make([]opt.Attraction, len(in))
	for i, a := range in {
		out[i] = opt.Attraction{Name: a.Name, Category: a.Category, AvgTimeHr: a.AvgTimeHr, EntryFee: a.EntryFee, FunScore: a.FunScore}
	}
	return out
}

func printResult(w io.Writer, res opt.Result) {
	fmt.Fprintf(w, "Status: %s (%s)\n\n", res.Status, res.SolveTime.Round(1e6))
	for d, day := range res.Itinerary {
		if len(day) == 0 {
			fmt.Fprintf(w, "Day %d: no attractions\n", d+1)
			continue
		}
		fmt.Fprintf(w, "Day %d: %s\n", d+1, strings.Join(day, " → "))
	}
	fmt.Fprintf(w, "\nTotal cost:     %.2f (entry %.2f + travel %.2f)\n", res.TotalCost, res.EntryCost, res.TravelCost)
	fmt.Fprintf(w, "Total fun:      %.2f\n", res.TotalFun)
	fmt.Fprintf(w, "Total distance: %.2f km\n", res.TotalDistanceKm)
}
