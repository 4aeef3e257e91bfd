package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New() returned nil")
	}
	if m.Registry() == nil {
		t.Fatal("Registry() returned nil")
	}

	// Two instances must not share collectors.
	other := New()
	if m.Registry() == other.Registry() {
		t.Error("separate instances share a registry")
	}
}

func TestRecordAssessment(t *testing.T) {
	m := New()

	m.RecordAssessment("co", "red")
	m.RecordAssessment("co", "red")
	m.RecordAssessment("acme", "green")

	got := testutil.ToFloat64(m.assessments.WithLabelValues("co", "red"))
	if got != 2 {
		t.Errorf("assessments{co,red} = %f, want 2", got)
	}
	got = testutil.ToFloat64(m.assessments.WithLabelValues("acme", "green"))
	if got != 1 {
		t.Errorf("assessments{acme,green} = %f, want 1", got)
	}
}

func TestRecordDecodeFailure(t *testing.T) {
	m := New()

	m.RecordDecodeFailure()
	m.RecordDecodeFailure()

	got := testutil.ToFloat64(m.decodeFailures)
	if got != 2 {
		t.Errorf("decode failures = %f, want 2", got)
	}
}

func TestSetRuleCount(t *testing.T) {
	m := New()

	m.SetRuleCount(7)
	if got := testutil.ToFloat64(m.rules); got != 7 {
		t.Errorf("rules gauge = %f, want 7", got)
	}

	m.SetRuleCount(3)
	if got := testutil.ToFloat64(m.rules); got != 3 {
		t.Errorf("rules gauge after swap = %f, want 3", got)
	}
}

func TestObserveEvaluation(t *testing.T) {
	m := New()

	m.ObserveEvaluation(50 * time.Microsecond)
	m.ObserveEvaluation(120 * time.Microsecond)

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "avouch_evaluation_duration_seconds" {
			continue
		}
		if count := mf.GetMetric()[0].GetHistogram().GetSampleCount(); count != 2 {
			t.Errorf("histogram sample count = %d, want 2", count)
		}
		return
	}
	t.Fatal("evaluation duration histogram not found in gathered families")
}

func TestInstrument(t *testing.T) {
	m := New()

	teapot := m.Instrument("/api/assess", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	implicit := m.Instrument("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))

	rec := httptest.NewRecorder()
	teapot.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/assess", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("wrapped handler status = %d, want 418", rec.Code)
	}

	rec = httptest.NewRecorder()
	implicit.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/assess", "418"))
	if got != 1 {
		t.Errorf("http_requests{POST,/api/assess,418} = %f, want 1", got)
	}

	// A handler that never calls WriteHeader counts as 200.
	got = testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/healthz", "200"))
	if got != 1 {
		t.Errorf("http_requests{GET,/healthz,200} = %f, want 1", got)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	m := New()
	m.RecordAssessment("co", "orange")
	m.SetRuleCount(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "avouch_assessments_total") {
		t.Error("exposition missing avouch_assessments_total")
	}
	if !strings.Contains(body, `origin="co"`) {
		t.Error("exposition missing origin label")
	}
	if !strings.Contains(body, "avouch_rules 2") {
		t.Error("exposition missing rules gauge")
	}
}
