package main

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"passport-status/pkg/platform/httputil"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// writeHealth runs every dependency check concurrently and reports 503 if any fails.
func writeHealth(ctx context.Context, w http.ResponseWriter, checks map[string]func(context.Context) error) {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := checks[name](ctx); err != nil {
				results[i] = "down: " + err.Error()
				return
			}
			results[i] = "up"
		}()
	}
	wg.Wait()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for i, name := range names {
		resp.Checks[name] = results[i]
		if results[i] != "up" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	httputil.WriteJSON(w, status, resp)
}
