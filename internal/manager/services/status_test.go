package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docstone/ingest-go/internal/manager/models"
)

func TestChannelStatusSink_NeverBlocks(t *testing.T) {
	s := NewChannelStatusSink(2)

	// No reader: the buffer fills, further reports drop instead of blocking.
	for i := 0; i < 10; i++ {
		if err := s.Report(context.Background(), models.StatusUpdate{Progress: float64(i)}); err != nil {
			t.Fatalf("Report must not fail: %v", err)
		}
	}

	s.Close()
	count := 0
	for range s.Updates() {
		count++
	}
	if count != 2 {
		t.Errorf("expected buffer-sized delivery, got %d updates", count)
	}
}

func TestWebhookStatusSink_Report(t *testing.T) {
	received := make(chan models.StatusUpdate, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var update models.StatusUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			t.Errorf("failed to decode webhook payload: %v", err)
		}
		received <- update
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	s := NewWebhookStatusSink(server.URL, server.Client())
	update := models.StatusUpdate{
		JobID:    "job-1",
		Status:   models.JobStatusProcessing,
		Progress: 0.5,
		At:       time.Now().UTC(),
	}
	if err := s.Report(context.Background(), update); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	got := <-received
	if got.JobID != "job-1" || got.Status != models.JobStatusProcessing {
		t.Errorf("payload did not round trip: %+v", got)
	}
}

func TestWebhookStatusSink_UnreachableEndpoint(t *testing.T) {
	s := NewWebhookStatusSink("http://127.0.0.1:1/status", &http.Client{Timeout: time.Second})
	err := s.Report(context.Background(), models.StatusUpdate{JobID: "job-1"})
	if err == nil {
		t.Error("expected an error for an unreachable endpoint")
	}
}

func TestMultiStatusSink_FanOut(t *testing.T) {
	a := NewChannelStatusSink(4)
	b := NewChannelStatusSink(4)
	multi := NewMultiStatusSink(a, b)

	if err := multi.Report(context.Background(), models.StatusUpdate{JobID: "job-1"}); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	select {
	case got := <-a.Updates():
		if got.JobID != "job-1" {
			t.Errorf("wrong update in sink a: %+v", got)
		}
	default:
		t.Error("sink a got no update")
	}
	select {
	case got := <-b.Updates():
		if got.JobID != "job-1" {
			t.Errorf("wrong update in sink b: %+v", got)
		}
	default:
		t.Error("sink b got no update")
	}
}
