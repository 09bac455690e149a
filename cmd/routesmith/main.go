package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"routesmith/internal/routing"
	"routesmith/internal/solver"
	"routesmith/internal/vrp"
)

func main() {
	var (
		inPath      = flag.String("i", "", "input problem file (default stdin)")
		outPath     = flag.String("o", "", "output solution file (default stdout)")
		threads     = flag.Int("t", vrp.DefaultThreads, "number of worker threads")
		exploration = flag.Int("x", vrp.DefaultExplorationLevel, "exploration level (0-5)")
		timeoutMs   = flag.Int("l", 0, "search time limit in milliseconds (0 = none)")
		osrmURL     = flag.String("osrm", os.Getenv("OSRM_URL"), "OSRM base URL for matrix resolution")
		orsURL      = flag.String("ors", os.Getenv("ORS_URL"), "openrouteservice base URL for matrix resolution")
	)
	flag.Parse()

	doc, err := readInput(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "routesmith: %v\n", err)
		os.Exit(vrp.CodeInternal)
	}

	opts := solver.Options{
		Threads:     *threads,
		Exploration: *exploration,
		Timeout:     time.Duration(*timeoutMs) * time.Millisecond,
	}
	switch {
	case *osrmURL != "":
		opts.Provider = routing.NewOSRM(*osrmURL)
	case *orsURL != "":
		opts.Provider = routing.NewORS(*orsURL, os.Getenv("ORS_KEY"))
	}

	out, err := solver.Solve(context.Background(), doc, opts)
	code := solver.ExitCode(out, err)
	if out == nil {
		out = &vrp.Output{Code: code}
		if err != nil {
			out.Error = err.Error()
		}
	}

	if werr := writeOutput(*outPath, out); werr != nil {
		fmt.Fprintf(os.Stderr, "routesmith: %v\n", werr)
		os.Exit(vrp.CodeInternal)
	}
	os.Exit(code)
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, out *vrp.Output) error {
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
