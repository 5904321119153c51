package resolve_test

import (
	"context"
	"testing"
	"time"

	"github.com/h2non/gock"

	"github.com/five82/tminus/internal/hass"
	"github.com/five82/tminus/internal/resolve"
)

// The WebSocket endpoint is unreachable, so template renders must arrive
// through the REST fallback that gock intercepts.
func TestResolver_AgainstRESTFallback(t *testing.T) {
	defer gock.Off()
	const base = "http://127.0.0.1:1"

	gock.New(base).
		Get("/api/states/sensor.next_alarm").
		MatchHeader("Authorization", "Bearer token").
		Reply(200).
		JSON(map[string]any{"entity_id": "sensor.next_alarm", "state": "2025-07-22T06:45:00+00:00"})

	gock.New(base).
		Post("/api/template").
		JSON(map[string]string{"template": "{{ states('sensor.trip') or 'N/A' }}"}).
		Reply(200).
		BodyString("unknown")

	conn, err := hass.Dial(base, "token", nil)
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	r := resolve.New(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	got, ok, err := r.Resolve(ctx, "sensor.next_alarm")
	if err != nil || !ok {
		t.Fatalf("Resolve(entity) = ok %v err %v", ok, err)
	}
	if got != "2025-07-22T06:45:00" {
		t.Fatalf("Resolve(entity) = %q, want offset stripped", got)
	}

	got, ok, err = r.Resolve(ctx, "{{ states('sensor.trip') or 'N/A' }}")
	if err != nil || !ok {
		t.Fatalf("Resolve(template) = ok %v err %v", ok, err)
	}
	if got != "N/A" {
		t.Fatalf("Resolve(template) = %q, want N/A", got)
	}

	if !gock.IsDone() {
		t.Fatalf("not all mocked endpoints were called")
	}
}
