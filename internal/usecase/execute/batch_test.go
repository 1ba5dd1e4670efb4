package execute

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/harbormind/specdex/internal/config"
)

func batchService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.APIConfig{Name: "test", BaseURL: srv.URL}, zap.NewNop())
}

func TestBatchExecute_ResultsKeepInputOrder(t *testing.T) {
	svc := batchService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"path": %q}`, r.URL.Path)
	})
	requests := []Request{
		{Path: "/a", Method: "GET"},
		{Path: "/b", Method: "GET"},
		{Path: "/c", Method: "GET"},
	}

	for _, parallel := range []bool{false, true} {
		out := NewBatch(svc, 2).Execute(context.Background(), requests, parallel)

		if len(out.Results) != 3 {
			t.Fatalf("parallel=%v: got %d results", parallel, len(out.Results))
		}
		for i, want := range []string{"/a", "/b", "/c"} {
			data, _ := out.Results[i].Data.(map[string]any)
			if data["path"] != want {
				t.Errorf("parallel=%v: result %d = %v, want %s", parallel, i, data, want)
			}
		}
	}
}

func TestBatchExecute_Summary(t *testing.T) {
	svc := batchService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusInternalServerError)
		}
		w.Write([]byte(`{}`))
	})
	requests := []Request{
		{Path: "/ok", Method: "GET"},
		{Path: "/bad", Method: "GET"},
		{Path: "/ok", Method: "GET"},
	}

	out := NewBatch(svc, 0).Execute(context.Background(), requests, false)

	if out.Summary.Total != 3 || out.Summary.Succeeded != 2 || out.Summary.Failed != 1 {
		t.Errorf("summary = %+v", out.Summary)
	}
}

func TestBatchExecute_FailureDoesNotAbortBatch(t *testing.T) {
	calls := int32(0)
	svc := batchService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})
	requests := []Request{
		{Path: "/a", Method: "GET"},
		{Path: "/b", Method: "GET"},
	}

	out := NewBatch(svc, 0).Execute(context.Background(), requests, true)

	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("upstream calls = %d, want 2", calls)
	}
	if out.Summary.Failed != 2 {
		t.Errorf("summary = %+v", out.Summary)
	}
}

func TestBatchExecute_ConcurrencyBound(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0
	block := make(chan struct{})

	svc := batchService(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		<-block

		mu.Lock()
		inFlight--
		mu.Unlock()
		w.Write([]byte(`{}`))
	})

	requests := make([]Request, 6)
	for i := range requests {
		requests[i] = Request{Path: "/x", Method: "GET"}
	}

	done := make(chan struct{})
	go func() {
		NewBatch(svc, 2).Execute(context.Background(), requests, true)
		close(done)
	}()

	close(block)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Errorf("peak in-flight = %d, want <= 2", peak)
	}
}
