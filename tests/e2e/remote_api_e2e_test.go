//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func TestRemoteAPI_MainEndpoints(t *testing.T) {
	baseURL := strings.TrimRight(envOr("E2E_BASE_URL", "http://127.0.0.1:8080"), "/")
	client := &http.Client{Timeout: 20 * time.Second}

	t.Run("health and catalog", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodGet, baseURL+"/healthz", nil, nil)
		if status != http.StatusOK {
			t.Fatalf("healthz status=%d body=%s", status, string(body))
		}
		status, body = mustJSON(t, client, http.MethodGet, baseURL+"/api/personalities", nil, nil)
		if status != http.StatusOK {
			t.Fatalf("personalities status=%d body=%s", status, string(body))
		}
		var catalog map[string]any
		if err := json.Unmarshal(body, &catalog); err != nil {
			t.Fatalf("unmarshal catalog: %v body=%s", err, string(body))
		}
		if len(asSlice(catalog["personalities"])) == 0 {
			t.Fatalf("expected personalities in catalog")
		}
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodPost, baseURL+"/api/negotiations", nil, map[string]any{"market_price": 0})
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", status, string(body))
		}
	})

	idempotencyKey := "remote-e2e-" + time.Now().UTC().Format("20060102150405")

	t.Run("negotiate replay verify ops", func(t *testing.T) {
		req := map[string]any{
			"product":      "Vintage Lamp",
			"market_price": 50000,
			"buyer":        map[string]any{"name": "Alice", "personality": "Custom", "anchor_price": 100000},
			"seller":       map[string]any{"name": "Bob", "personality": "Custom", "anchor_price": 50000},
		}
		headers := map[string]string{"Idempotency-Key": idempotencyKey}
		status, firstBody := mustJSON(t, client, http.MethodPost, baseURL+"/api/negotiations", headers, req)
		if status != http.StatusCreated && status != http.StatusOK {
			t.Fatalf("first negotiate status=%d body=%s", status, string(firstBody))
		}
		var first map[string]any
		if err := json.Unmarshal(firstBody, &first); err != nil {
			t.Fatalf("unmarshal first negotiate: %v body=%s", err, string(firstBody))
		}
		if first["status"] != "deal_reached" {
			t.Fatalf("expected deal_reached, got %v", first["status"])
		}

		status, secondBody := mustJSON(t, client, http.MethodPost, baseURL+"/api/negotiations", headers, req)
		if status != http.StatusOK {
			t.Fatalf("second negotiate status=%d body=%s", status, string(secondBody))
		}
		var second map[string]any
		if err := json.Unmarshal(secondBody, &second); err != nil {
			t.Fatalf("unmarshal second negotiate: %v body=%s", err, string(secondBody))
		}
		if first["id"] != second["id"] || second["replayed"] != true {
			t.Fatalf("idempotency mismatch: first=%v second=%v", first["id"], second["id"])
		}

		id, _ := first["id"].(string)
		status, getBody := mustJSON(t, client, http.MethodGet, baseURL+"/api/negotiations/"+id, nil, nil)
		if status != http.StatusOK {
			t.Fatalf("get status=%d body=%s", status, string(getBody))
		}
		var archived map[string]any
		if err := json.Unmarshal(getBody, &archived); err != nil {
			t.Fatalf("unmarshal archived: %v body=%s", err, string(getBody))
		}
		if len(asSlice(archived["history"])) == 0 {
			t.Fatalf("expected archived history")
		}

		status, verifyBody := mustJSON(t, client, http.MethodPost, baseURL+"/api/negotiations/"+id+"/verify", nil, nil)
		if status != http.StatusOK {
			t.Fatalf("verify status=%d body=%s", status, string(verifyBody))
		}
		var verify map[string]any
		if err := json.Unmarshal(verifyBody, &verify); err != nil {
			t.Fatalf("unmarshal verify: %v body=%s", err, string(verifyBody))
		}
		if verify["consistent"] != true {
			t.Fatalf("expected consistent replay, got %v", verify)
		}

		status, kpiBody := mustJSON(t, client, http.MethodGet, baseURL+"/ops/kpi", nil, nil)
		if status != http.StatusOK {
			t.Fatalf("kpi status=%d body=%s", status, string(kpiBody))
		}
		var kpi map[string]any
		if err := json.Unmarshal(kpiBody, &kpi); err != nil {
			t.Fatalf("unmarshal kpi: %v body=%s", err, string(kpiBody))
		}
		if _, ok := kpi["negotiation_total"]; !ok {
			t.Fatalf("expected negotiation_total in kpi response")
		}
	})

	t.Run("live session", func(t *testing.T) {
		status, startBody := mustJSON(t, client, http.MethodPost, baseURL+"/api/live", nil, map[string]any{
			"role": "buyer", "personality": "Custom", "anchor_price": 100000, "market_price": 50000,
		})
		if status != http.StatusCreated {
			t.Fatalf("live start status=%d body=%s", status, string(startBody))
		}
		var started map[string]any
		if err := json.Unmarshal(startBody, &started); err != nil {
			t.Fatalf("unmarshal live start: %v body=%s", err, string(startBody))
		}
		id, _ := started["id"].(string)

		status, turnBody := mustJSON(t, client, http.MethodPost, baseURL+"/api/live/"+id+"/turn", nil, map[string]any{"message": "₹66,000 and it's yours"})
		if status != http.StatusOK {
			t.Fatalf("live turn status=%d body=%s", status, string(turnBody))
		}
		var turn map[string]any
		if err := json.Unmarshal(turnBody, &turn); err != nil {
			t.Fatalf("unmarshal live turn: %v body=%s", err, string(turnBody))
		}
		if turn["status"] != "deal_reached" {
			t.Fatalf("expected the agent to accept 66000, got %v", turn)
		}

		status, goneBody := mustJSON(t, client, http.MethodGet, baseURL+"/api/live/"+id, nil, nil)
		if status != http.StatusNotFound {
			t.Fatalf("finished live session should be gone, status=%d body=%s", status, string(goneBody))
		}
	})
}

func mustJSON(t *testing.T, client *http.Client, method, url string, headers map[string]string, body map[string]any) (int, []byte) {
	t.Helper()
	status, respBody, err := doRequest(client, method, url, headers, body)
	if err != nil {
		t.Fatalf("%s %s request failed: %v", method, url, err)
	}
	return status, respBody
}

func doRequest(client *http.Client, method, url string, headers map[string]string, body map[string]any) (int, []byte, error) {
	var payloadBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		payloadBytes = b
	}

	var lastStatus int
	var lastBody []byte
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		var payload io.Reader
		if len(payloadBytes) > 0 {
			payload = bytes.NewReader(payloadBytes)
		}
		req, err := http.NewRequest(method, url, payload)
		if err != nil {
			return 0, nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		lastStatus, lastBody, lastErr = resp.StatusCode, respBody, nil
		if resp.StatusCode >= 500 {
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		return resp.StatusCode, respBody, nil
	}
	if lastErr != nil {
		return 0, nil, lastErr
	}
	return lastStatus, lastBody, nil
}

func envOr(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}
