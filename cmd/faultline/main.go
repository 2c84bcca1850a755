package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/relab-tools/faultline/pkg/client"
	"github.com/relab-tools/faultline/pkg/engine"
	"github.com/relab-tools/faultline/pkg/graph"
	"github.com/relab-tools/faultline/pkg/mcp"
	"github.com/relab-tools/faultline/pkg/model"
	"github.com/relab-tools/faultline/pkg/simulation"
)

var (
	Version   = "v1.0.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func usage() {
	fmt.Println("Usage: faultline <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  analyze <model.json>   Analyze a fault tree model")
	fmt.Println("  simulate <model.json>  Estimate the top event probability by sampling")
	fmt.Println("  graph <model.json>     Render a model as Graphviz dot or JSON")
	fmt.Println("  runs                   List stored analysis runs")
	fmt.Println("  run <run-id>           Show a stored run as JSON")
	fmt.Println("  mcp                    Serve the Model Context Protocol bridge on stdio")
	fmt.Println("  version                Print version information")
	fmt.Println()
	fmt.Println("The daemon address is taken from FAULTLINE_URL (default http://127.0.0.1:8490).")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	c := client.NewClient(os.Getenv("FAULTLINE_URL"))
	ctx := context.Background()

	switch os.Args[1] {
	case "analyze":
		runAnalyze(ctx, c, os.Args[2:])
	case "simulate":
		runSimulate(os.Args[2:])
	case "graph":
		runGraph(os.Args[2:])
	case "runs":
		runList(ctx, c)
	case "run":
		if len(os.Args) < 3 {
			usage()
		}
		runShow(ctx, c, os.Args[2])
	case "mcp":
		if err := mcp.NewServer(os.Getenv("FAULTLINE_URL")).Serve(); err != nil {
			fmt.Printf("MCP server error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("faultline %s (%s, built %s)\n", Version, Commit, BuildTime)
	default:
		usage()
	}
}

func runAnalyze(ctx context.Context, c *client.Client, args []string) {
	flagSet := flag.NewFlagSet("analyze", flag.ExitOnError)
	algorithm := flagSet.String("algorithm", "bdd", "analysis algorithm: bdd|mocus")
	approximation := flagSet.String("approximation", "none", "quantification policy: none|rare-event|mcub")
	primeImplicants := flagSet.Bool("prime-implicants", false, "compute prime implicants instead of minimal cut sets")
	importance := flagSet.Bool("importance", false, "compute importance measures")
	safety := flagSet.Bool("safety", false, "classify the result against IEC 61508 levels")
	flagSet.Parse(args)

	if flagSet.NArg() < 1 {
		fmt.Println("Usage: faultline analyze [options] <model.json>")
		os.Exit(1)
	}

	data, err := os.ReadFile(flagSet.Arg(0))
	if err != nil {
		fmt.Printf("Error reading model file: %v\n", err)
		os.Exit(1)
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Printf("Error parsing model file: %v\n", err)
		os.Exit(1)
	}

	settings := engine.DefaultSettings()
	settings.Algorithm = engine.Algorithm(*algorithm)
	settings.Approximation = engine.Approximation(*approximation)
	settings.PrimeImplicants = *primeImplicants
	settings.Importance = *importance
	settings.Safety = *safety

	resp, err := c.Analyze(ctx, client.AnalyzeRequest{Model: doc, Settings: &settings})
	if err != nil {
		fmt.Printf("Error contacting daemon: %v\n", err)
		fmt.Println("Is faultline-d running?")
		os.Exit(1)
	}

	result := resp.Result
	fmt.Printf("Run: %s\n", resp.RunID)
	if resp.Cached {
		fmt.Println("(served from cache)")
	}
	fmt.Printf("Model: %s\n", result.Model)
	count := 0
	if result.Products != nil {
		count = len(result.Products.Products)
	}
	fmt.Printf("Products: %d", count)
	if result.Truncated > 0 {
		fmt.Printf(" (%d truncated)", result.Truncated)
	}
	fmt.Println()
	if result.Probability != nil {
		fmt.Printf("Top event probability: %g\n", *result.Probability)
	}
	if result.Safety != nil {
		fmt.Printf("Safety integrity level: SIL %d (%s average %g)\n",
			result.Safety.Level, result.Safety.Metric, result.Safety.Average)
	}
	for _, rec := range result.Importance {
		fmt.Printf("  %-20s MIF=%.4g RAW=%.4g RRW=%.4g\n", rec.Event, rec.MIF, rec.RAW, rec.RRW)
	}
	for _, f := range result.Findings {
		fmt.Printf("Note (%s): %s\n", f.Kind, f.Message)
	}
}

func runSimulate(args []string) {
	flagSet := flag.NewFlagSet("simulate", flag.ExitOnError)
	trials := flagSet.Uint64("trials", 100000, "number of sampled trials")
	seed := flagSet.Int64("seed", 0, "random seed (0 picks one)")
	workers := flagSet.Int("workers", 0, "sampling goroutines (0 uses all CPUs)")
	missionTime := flagSet.Float64("mission", 8760, "mission time in hours for rate-based events")
	flagSet.Parse(args)

	if flagSet.NArg() < 1 {
		fmt.Println("Usage: faultline simulate [options] <model.json>")
		os.Exit(1)
	}

	data, err := os.ReadFile(flagSet.Arg(0))
	if err != nil {
		fmt.Printf("Error reading model file: %v\n", err)
		os.Exit(1)
	}

	m, err := model.FromJSON(data)
	if err != nil {
		fmt.Printf("Error parsing model file: %v\n", err)
		os.Exit(1)
	}

	res := simulation.RunScenario(simulation.Scenario{
		Name:        m.Name,
		Trials:      *trials,
		Seed:        *seed,
		Workers:     *workers,
		MissionTime: *missionTime,
	}, m)

	fmt.Printf("Model: %s\n", res.ScenarioName)
	fmt.Printf("Trials: %d (seed %d, %s)\n", res.Trials, res.Seed, res.Elapsed.Round(time.Millisecond))
	fmt.Printf("Top event estimate: %g (std err %.3g)\n", res.Estimate, res.StdErr)
	fmt.Printf("95%% interval: [%g, %g]\n", res.ConfLow, res.ConfHigh)
}

func runGraph(args []string) {
	flagSet := flag.NewFlagSet("graph", flag.ExitOnError)
	format := flagSet.String("format", "dot", "output format: dot|json")
	flagSet.Parse(args)

	if flagSet.NArg() < 1 {
		fmt.Println("Usage: faultline graph [options] <model.json>")
		os.Exit(1)
	}

	data, err := os.ReadFile(flagSet.Arg(0))
	if err != nil {
		fmt.Printf("Error reading model file: %v\n", err)
		os.Exit(1)
	}

	m, err := model.FromJSON(data)
	if err != nil {
		fmt.Printf("Error parsing model file: %v\n", err)
		os.Exit(1)
	}

	g := graph.Project(m)
	switch *format {
	case "dot":
		fmt.Print(g.DOT())
	case "json":
		out, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			fmt.Printf("Error encoding graph: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	default:
		fmt.Printf("Unknown format: %s\n", *format)
		os.Exit(1)
	}
}

func runList(ctx context.Context, c *client.Client) {
	runs, err := c.ListRuns(ctx, client.RunsOptions{Limit: 20})
	if err != nil {
		fmt.Printf("Error contacting daemon: %v\n", err)
		fmt.Println("Is faultline-d running?")
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("No runs stored.")
		return
	}

	for _, run := range runs {
		prob := "-"
		if run.Probability != nil {
			prob = fmt.Sprintf("%g", *run.Probability)
		}
		fmt.Printf("%-24s %-20s %-6s products=%-5d p=%s %s\n",
			run.RunID, run.Model, run.Algorithm, run.ProductCount, prob,
			run.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func runShow(ctx context.Context, c *client.Client, runID string) {
	run, err := c.GetRun(ctx, runID)
	if err != nil {
		fmt.Printf("Error fetching run: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding run: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
