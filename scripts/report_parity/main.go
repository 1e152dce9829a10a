// Command report_parity replays report requests against two deployments and
// diffs the response envelopes. Per request metadata is ignored.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"
)

type target struct {
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type targetFile struct {
	Targets []target `json:"targets"`
}

type outcome struct {
	Target          target
	BaselineStatus  int
	CandidateStatus int
	DataMatch       bool
	Err             error
	Baseline        time.Duration
	Candidate       time.Duration
}

func (o outcome) diverged() bool {
	return o.Err != nil || o.BaselineStatus != o.CandidateStatus || !o.DataMatch
}

func main() {
	var (
		baseline    string
		candidate   string
		targetsPath string
		token       string
		timeout     time.Duration
	)
	flag.StringVar(&baseline, "baseline", "http://localhost:8080/api/v1", "baseline API base URL")
	flag.StringVar(&candidate, "candidate", "http://localhost:8081/api/v1", "candidate API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "report_parity", "targets.json"), "JSON file listing report paths")
	flag.StringVar(&token, "token", os.Getenv("REPORT_PARITY_TOKEN"), "bearer token sent to both deployments")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "per request timeout")
	flag.Parse()

	logr, _ := zap.NewDevelopment()
	defer logr.Sync() //nolint:errcheck

	targets, err := loadTargets(targetsPath)
	if err != nil {
		logr.Fatal("failed to load targets", zap.Error(err))
	}

	client := &http.Client{Timeout: timeout}
	var critical, optional int
	for _, t := range targets {
		res := compare(context.Background(), client, baseline, candidate, token, t)
		fields := []zap.Field{
			zap.String("path", t.Path),
			zap.Int("baseline_status", res.BaselineStatus),
			zap.Int("candidate_status", res.CandidateStatus),
			zap.Duration("baseline_latency", res.Baseline),
			zap.Duration("candidate_latency", res.Candidate),
		}
		switch {
		case res.Err != nil:
			logr.Error("request failed", append(fields, zap.Error(res.Err))...)
		case res.diverged():
			logr.Warn("reports differ", append(fields, zap.Bool("critical", t.Critical))...)
		default:
			logr.Info("reports match", fields...)
		}
		if res.diverged() {
			if t.Critical {
				critical++
			} else {
				optional++
			}
		}
	}

	fmt.Printf("critical diffs: %d, optional diffs: %d\n", critical, optional)
	if critical > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func compare(ctx context.Context, client *http.Client, baseline, candidate, token string, t target) outcome {
	res := outcome{Target: t}
	baseStatus, baseBody, baseDur, err := fetch(ctx, client, baseline, token, t.Path)
	if err != nil {
		res.Err = fmt.Errorf("baseline: %w", err)
		return res
	}
	candStatus, candBody, candDur, err := fetch(ctx, client, candidate, token, t.Path)
	if err != nil {
		res.Err = fmt.Errorf("candidate: %w", err)
		return res
	}
	res.BaselineStatus, res.CandidateStatus = baseStatus, candStatus
	res.Baseline, res.Candidate = baseDur, candDur
	res.DataMatch = envelopesEqual(baseBody, candBody)
	return res
}

func fetch(ctx context.Context, client *http.Client, base, token, path string) (int, []byte, time.Duration, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, err
	}
	return resp.StatusCode, body, time.Since(start), nil
}

// envelopesEqual compares the data and error members of two envelopes.
// Non JSON bodies are compared byte for byte.
func envelopesEqual(a, b []byte) bool {
	var ae, be map[string]interface{}
	if json.Unmarshal(a, &ae) != nil || json.Unmarshal(b, &be) != nil {
		return strings.TrimSpace(string(a)) == strings.TrimSpace(string(b))
	}
	delete(ae, "meta")
	delete(be, "meta")
	return reflect.DeepEqual(ae, be)
}
