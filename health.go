package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http"
	"time"
)

const VERSION = "0.3.0"

type HealthStatus struct {
	Version       string        `json:"version"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Sources       []SourceStats `json:"sources"`
}

func (s *server) healthStatus() *HealthStatus {
	return &HealthStatus{
		Version:       VERSION,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Sources:       s.store.Stats(),
	}
}

// healthHandler is an HTTP handler that responds with the buffer stats of
// every source in JSON format.
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	err := WriteJSONResponse(w, s.healthStatus())
	if err != nil {
		log.Printf("failed to write json response: %v", err)
		http.Error(w, "failed to write json response", http.StatusInternalServerError)
	}
}

// HealthStatusServiceRunner periodically posts the health status to the
// configured endpoint until ctx is done.
func (s *server) HealthStatusServiceRunner(ctx context.Context) {
	endpoint := s.config.HealthEndpoint
	if endpoint == "" {
		return
	}
	interval := s.config.PingIntervalSeconds

	log.Printf("Starting periodic health service with an interval of %d seconds.", interval)

	// Back off exponentially up to the ping interval: ping immediately, then
	// after 1, 2, 4 ... seconds, then every interval. Reports land fast on
	// start-up without pinging too often later.
	currentDelay := 1
	for {
		s.pingHealthStatus(ctx, endpoint)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(currentDelay) * time.Second):
		}

		currentDelay = nextPingDelay(currentDelay, interval)
	}
}

// nextPingDelay doubles the delay, capped at interval seconds.
func nextPingDelay(current, interval int) int {
	return int(math.Min(float64(interval), float64(current)*2))
}

// pingHealthStatus sends the health status to the specified endpoint.
// Any issues encountered during the process are logged.
func (s *server) pingHealthStatus(ctx context.Context, endpoint string) {
	data, err := json.Marshal(s.healthStatus())
	if err != nil {
		log.Println("Error marshalling health status:", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(data))
	if err != nil {
		log.Println("Error creating request:", err)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("X-Api-Key", s.config.APIKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Println("Error sending request:", err)
		return
	}
	defer resp.Body.Close()

	// In case of a non 2xx response from the health endpoint debug print info
	if resp.StatusCode/100 != 2 {
		log.Println("Bad response status:", resp.Status)

		body, err := io.ReadAll(resp.Body)
		if err == nil {
			log.Println("Response body:", string(body))
		}
	}
}
