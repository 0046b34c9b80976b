// Command apidiff replays a list of read-only endpoints against two running
// deployments of the planner API and reports status or body divergence.
// Intended for pre-deploy checks: point -candidate at the build under test
// and -baseline at the currently released instance.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type endpoint struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type endpointsFile struct {
	Endpoints []endpoint `json:"endpoints"`
}

type result struct {
	Endpoint          endpoint
	BaselineStatus    int
	CandidateStatus   int
	StatusMatch       bool
	BodyMatch         bool
	Error             error
	DurationCandidate time.Duration
	DurationBaseline  time.Duration
}

func main() {
	var (
		candidateBase string
		baselineBase  string
		endpointsPath string
		timeout       time.Duration
	)

	flag.StringVar(&candidateBase, "candidate", "http://localhost:8080", "candidate API base URL")
	flag.StringVar(&baselineBase, "baseline", "http://localhost:8081", "baseline API base URL")
	flag.StringVar(&endpointsPath, "endpoints", filepath.Join("scripts", "apidiff", "endpoints.json"), "path to JSON endpoints file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	endpoints, err := loadEndpoints(endpointsPath)
	if err != nil {
		log.Fatalf("failed to load endpoints: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results      []result
		breaking     int
		optionalDiff int
	)

	for _, ep := range endpoints {
		res := compareEndpoint(client, candidateBase, baselineBase, ep)
		if res.Error != nil {
			if ep.Critical {
				breaking++
			}
		} else if !res.StatusMatch || !res.BodyMatch {
			if ep.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadEndpoints(path string) ([]endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file endpointsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints defined in %s", path)
	}
	return file.Endpoints, nil
}

func compareEndpoint(client *http.Client, candidateBase, baselineBase string, ep endpoint) result {
	res := result{Endpoint: ep}
	candResp, candDur, candErr := performRequest(client, candidateBase, ep)
	baseResp, baseDur, baseErr := performRequest(client, baselineBase, ep)
	res.DurationCandidate = candDur
	res.DurationBaseline = baseDur

	if candErr != nil {
		res.Error = fmt.Errorf("candidate request failed: %w", candErr)
		return res
	}
	if baseErr != nil {
		res.Error = fmt.Errorf("baseline request failed: %w", baseErr)
		return res
	}

	res.CandidateStatus = candResp.StatusCode
	res.BaselineStatus = baseResp.StatusCode
	res.StatusMatch = res.CandidateStatus == res.BaselineStatus

	defer candResp.Body.Close()
	defer baseResp.Body.Close()

	candBody, err := io.ReadAll(candResp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read candidate body: %w", err)
		return res
	}
	baseBody, err := io.ReadAll(baseResp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read baseline body: %w", err)
		return res
	}

	res.BodyMatch = bodiesEqual(candBody, baseBody)

	return res
}

func performRequest(client *http.Client, base string, ep endpoint) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(ep.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := ep.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(results []result) {
	fmt.Println("API Diff Report")
	fmt.Println("===============")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Endpoint.Method, res.Endpoint.Path)
		fmt.Printf("  Candidate: %d (%s)\n", res.CandidateStatus, res.DurationCandidate)
		fmt.Printf("  Baseline:  %d (%s)\n", res.BaselineStatus, res.DurationBaseline)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		} else {
			fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Endpoint.Critical)
		}
	}
}
