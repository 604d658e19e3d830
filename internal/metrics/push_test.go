package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPush_SendsSummaryToGateway(t *testing.T) {
	var path string
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	Push(srv.URL, RunSummary{
		ServiceID:    7,
		Outcome:      "staked",
		TxsSubmitted: 2,
		TxsConfirmed: 2,
		Duration:     3 * time.Second,
	})

	if !strings.Contains(path, "/job/olas_staker") {
		t.Fatalf("unexpected push path: %s", path)
	}
	if !strings.Contains(path, "/service_id/7") {
		t.Fatalf("grouping label missing from path: %s", path)
	}
	// metric and label names appear literally in both text and protobuf
	// exposition formats
	if !strings.Contains(body, "olas_staker_txs_submitted_total") {
		t.Fatalf("submitted metric missing from body:\n%s", body)
	}
	if !strings.Contains(body, "olas_staker_run_outcome") || !strings.Contains(body, "staked") {
		t.Fatalf("outcome metric missing from body:\n%s", body)
	}
}

func TestPush_EmptyURLIsNoOp(t *testing.T) {
	// must not panic or block
	Push("", RunSummary{ServiceID: 7, Outcome: "staked"})
}

func TestPush_GatewayFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// must not panic; failures are logged only
	Push(srv.URL, RunSummary{ServiceID: 7, Outcome: "failed", Failed: true})
}
