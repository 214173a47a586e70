package rate

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	burst := 1

	interval := 50 * time.Millisecond
	r := NewLimiter(burst, time.Hour, Every(interval))
	defer r.Close()

	client := "10.0.0.1"
	if !r.Allow(client) {
		t.Fatal("first request rejected")
	}
	if r.Allow(client) {
		t.Fatal("second request inside the interval allowed")
	}
	if !r.Allow("10.0.0.2") {
		t.Fatal("other client rejected")
	}

	time.Sleep(interval + 10*time.Millisecond)
	if !r.Allow(client) {
		t.Fatal("request after the interval rejected")
	}
}

func TestLimiterWithBurst(t *testing.T) {
	client := "10.0.0.1"
	burst := 10

	r := NewLimiter(burst, time.Hour, Every(time.Hour))
	defer r.Close()

	for i := 0; i < burst; i++ {
		if !r.Allow(client) {
			t.Fatalf("request %d of the burst rejected", i)
		}
	}
	if r.Allow(client) {
		t.Fatal("request beyond the burst allowed")
	}
}

func TestLimiterForgetsIdleClients(t *testing.T) {
	r := NewLimiter(1, time.Minute, Every(time.Hour))
	defer r.Close()

	r.Allow("a")
	r.Allow("b")
	if got := r.Clients(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	r.sweep(time.Now().Add(30 * time.Second))
	if got := r.Clients(); got != 2 {
		t.Fatalf("clients forgotten too early: %d left", got)
	}

	r.sweep(time.Now().Add(2 * time.Minute))
	if got := r.Clients(); got != 0 {
		t.Fatalf("expected idle clients to be forgotten, %d left", got)
	}

	if !r.Allow("a") {
		t.Fatal("forgotten client starts without a fresh bucket")
	}
}
