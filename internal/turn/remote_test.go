package turn

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRemoteAnalyzerMapsPrediction(t *testing.T) {
	var gotContentType string
	var gotBytes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		buf := make([]byte, 1<<20)
		n, _ := r.Body.Read(buf)
		gotBytes = n
		fmt.Fprint(w, `{"prediction":1,"probability":0.87,"metrics":{"inference_time":0.031,"total_time":0.045}}`)
	}))
	defer srv.Close()

	a := NewRemoteAnalyzer(RemoteConfig{URL: srv.URL, Timeout: time.Second}, testLogger())
	res, err := a.Analyze(context.Background(), Input{
		PCM:        pcmLevel(1600, 5000),
		SampleRate: 16000,
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !res.Complete || res.Probability != 0.87 {
		t.Fatalf("Result = %+v", res)
	}
	if res.InferenceMS != 31 || res.ServerMS != 45 {
		t.Fatalf("timings = %+v, want 31ms/45ms", res)
	}
	if res.E2EMS <= 0 {
		t.Fatalf("E2EMS = %v, want > 0", res.E2EMS)
	}
	if gotContentType != "audio/wav" {
		t.Fatalf("Content-Type = %q, want audio/wav", gotContentType)
	}
	if gotBytes == 0 {
		t.Fatal("no WAV body received")
	}
}

func TestRemoteAnalyzerRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"prediction":0,"probability":0.2,"metrics":{"inference_time":0.01,"total_time":0.02}}`)
	}))
	defer srv.Close()

	a := NewRemoteAnalyzer(RemoteConfig{URL: srv.URL, Timeout: time.Second}, testLogger())
	res, err := a.Analyze(context.Background(), Input{PCM: pcmLevel(160, 100), SampleRate: 16000})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.Complete {
		t.Fatalf("Result = %+v, want incomplete", res)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestRemoteAnalyzerDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad audio", http.StatusBadRequest)
	}))
	defer srv.Close()

	a := NewRemoteAnalyzer(RemoteConfig{URL: srv.URL, Timeout: time.Second}, testLogger())
	if _, err := a.Analyze(context.Background(), Input{PCM: pcmLevel(160, 100), SampleRate: 16000}); err == nil {
		t.Fatal("Analyze() error = nil, want failure")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 without retry", calls.Load())
	}
}

func TestFactoryWiring(t *testing.T) {
	if _, ok := NewAnalyzer(RemoteConfig{}, testLogger()).(*LocalAnalyzer); !ok {
		t.Fatal("NewAnalyzer(no url) did not return local analyzer")
	}
	if _, ok := NewAnalyzer(RemoteConfig{URL: "http://turn.svc"}, testLogger()).(*FailoverAnalyzer); !ok {
		t.Fatal("NewAnalyzer(url) did not return failover analyzer")
	}
}
