// Command smoke probes a running deployment and reports per-endpoint
// status. Critical endpoints failing exits non-zero, which makes the
// tool usable as a post-deploy gate.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Expect   int    `json:"expect"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target   target
	Status   int
	Err      error
	Duration time.Duration
}

func main() {
	var (
		baseURL     string
		token       string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&token, "token", "", "Bearer token for authenticated endpoints")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "smoke", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var failures int

	for _, t := range targets {
		res := probe(client, baseURL, token, t)
		mark := "ok"
		if res.Err != nil {
			mark = fmt.Sprintf("error: %v", res.Err)
		} else if res.Status != t.Expect {
			mark = fmt.Sprintf("got %d, want %d", res.Status, t.Expect)
		}
		fmt.Printf("%-6s %-40s %-10s %s\n", t.Method, t.Path, res.Duration.Round(time.Millisecond), mark)

		if t.Critical && (res.Err != nil || res.Status != t.Expect) {
			failures++
		}
	}

	if failures > 0 {
		fmt.Printf("\n%d critical endpoint(s) failing\n", failures)
		os.Exit(1)
	}
	fmt.Println("\nall critical endpoints healthy")
}

func loadTargets(path string) ([]target, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func probe(client *http.Client, baseURL, token string, t target) result {
	start := time.Now()
	req, err := http.NewRequest(t.Method, baseURL+t.Path, nil)
	if err != nil {
		return result{Target: t, Err: err, Duration: time.Since(start)}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return result{Target: t, Err: err, Duration: time.Since(start)}
	}
	defer resp.Body.Close()
	return result{Target: t, Status: resp.StatusCode, Duration: time.Since(start)}
}
