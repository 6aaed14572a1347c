package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/debsscc/Game-Data-Automation/models"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:5000", "Game Finder API base URL")
	runs   = flag.Int("runs", 3, "Number of runs per query for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Queries covering the navigator's main branches.
var testQueries = []struct {
	Label string
	Query string
}{
	{"Paid", "Portal 2"},
	{"Free", "Dota 2"},
	{"Sale", "The Witcher 3"},
	{"Accented", "Pokémon"},
	{"Nothing", "zzqxjv no such game"},
}

// --- Benchmark result types ---

type runResult struct {
	Run        int    `json:"run"`
	TotalMs    int64  `json:"total_ms"`
	StatusCode int    `json:"status_code"`
	Resolved   int    `json:"resolved_fields"`
	Sentinel   int    `json:"sentinel_fields"`
	Status     string `json:"status,omitempty"`
	Success    bool   `json:"success"`
	ErrorCode  string `json:"error_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

type queryAverages struct {
	TotalMs  float64 `json:"total_ms"`
	Resolved float64 `json:"resolved_fields"`
	Sentinel float64 `json:"sentinel_fields"`
}

type queryResult struct {
	Query    string         `json:"query"`
	Label    string         `json:"label"`
	Runs     []runResult    `json:"runs"`
	Averages *queryAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp    string        `json:"timestamp"`
	APIURL       string        `json:"api_url"`
	RunsPerQuery int           `json:"runs_per_query"`
	Results      []queryResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Game Finder Benchmark Suite ===")
	fmt.Printf("API URL:    %s\n", *apiURL)
	fmt.Printf("Runs/query: %d\n", *runs)
	fmt.Printf("Output:     %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure gamefinder is running (e.g. go run ./cmd/gamefinder)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		APIURL:       *apiURL,
		RunsPerQuery: *runs,
	}

	for _, t := range testQueries {
		fmt.Printf("Benchmarking [%s] %q ...\n", t.Label, t.Query)
		qr := queryResult{Query: t.Query, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkQuery(t.Query, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d/%d fields\n", rr.TotalMs, rr.Resolved, rr.Resolved+rr.Sentinel)
			} else {
				fmt.Printf("FAILED: [%s] %s\n", rr.ErrorCode, rr.Error)
			}
			qr.Runs = append(qr.Runs, rr)
		}

		qr.Averages = computeAverages(qr.Runs)
		report.Results = append(report.Results, qr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkQuery(query string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(models.SearchRequest{Query: query})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/search", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 180 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.StatusCode = resp.StatusCode

	var sr models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = sr.Success
	rr.TotalMs = sr.Timing.TotalMs
	if sr.Record != nil {
		rr.Status = sr.Record.Status
		rr.Resolved, rr.Sentinel = fieldCoverage(sr.Record)
	}
	if sr.Error != nil {
		rr.ErrorCode = sr.Error.Code
		rr.Error = sr.Error.Message
	}

	return rr
}

// fieldCoverage counts the record's string fields that resolved versus
// those left at the N/A sentinel.
func fieldCoverage(rec *models.ProductRecord) (resolved, sentinel int) {
	data, err := json.Marshal(rec)
	if err != nil {
		return 0, 0
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return 0, 0
	}
	for _, v := range fields {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s == models.NA {
			sentinel++
		} else {
			resolved++
		}
	}
	return resolved, sentinel
}

func computeAverages(runs []runResult) *queryAverages {
	var successCount int
	var avg queryAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		avg.Resolved += float64(r.Resolved)
		avg.Sentinel += float64(r.Sentinel)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.Resolved /= n
	avg.Sentinel /= n
	return &avg
}

func printTable(results []queryResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Query\tAvg Latency\tResolved\tN/A\tOutcome\n")
	fmt.Fprintf(w, "─────\t───────────\t────────\t───\t───────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%s\n", truncate(r.Query, 40), dominantOutcome(r.Runs))
			continue
		}

		fmt.Fprintf(w, "%s\t%dms\t%.1f\t%.1f\t%s\n",
			truncate(r.Query, 40),
			int64(r.Averages.TotalMs),
			r.Averages.Resolved,
			r.Averages.Sentinel,
			dominantOutcome(r.Runs),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

// dominantOutcome returns the most frequent record status or error code.
func dominantOutcome(runs []runResult) string {
	counts := map[string]int{}
	for _, r := range runs {
		switch {
		case r.Success:
			counts[r.Status]++
		case r.ErrorCode != "":
			counts[r.ErrorCode]++
		default:
			counts["ERROR"]++
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best, bestCount := "-", 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
