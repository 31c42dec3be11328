package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/Guliveer/vitalis/monitor/internal/api"
	"github.com/Guliveer/vitalis/monitor/internal/models"
	"github.com/Guliveer/vitalis/monitor/internal/monitor"
)

type fakeService struct {
	got models.Query
	err error
}

func (f *fakeService) Query(ctx context.Context, q models.Query) (models.Result, error) {
	f.got = q
	if f.err != nil {
		return models.Result{}, f.err
	}
	return models.Result{Module: q.Module, Purpose: q.Purpose, Value: " 3.0 18.0"}, nil
}

func (f *fakeService) Monitors() []models.MonitorInfo {
	return []models.MonitorInfo{{Module: "NET", Purpose: "ESTAT", Fields: []string{"errs", "util"}}}
}

func TestQueryMonitor(t *testing.T) {
	svc := &fakeService{}
	ts := httptest.NewServer(api.NewServer(svc, nil, time.Minute))
	defer ts.Close()

	v := url.Values{}
	v.Set("field", "--nic=eth --fields=errs --fields=util")
	v.Set("para", "--interval=2")

	resp, err := http.Get(ts.URL + "/api/v1/monitors/NET/ESTAT?" + v.Encode())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var res models.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Value != " 3.0 18.0" {
		t.Errorf("value = %q", res.Value)
	}
	want := models.Query{Module: "NET", Purpose: "ESTAT", Field: "--nic=eth --fields=errs --fields=util", Para: "--interval=2"}
	if svc.got != want {
		t.Errorf("query = %+v, want %+v", svc.got, want)
	}
}

func TestQueryMonitor_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid parameter", &monitor.ParamError{Flag: "interval", Value: "abc"}, http.StatusBadRequest, "invalid_parameter"},
		{"unknown field", &monitor.FieldError{Monitor: "NET/ESTAT", Field: "bogus"}, http.StatusBadRequest, "unknown_field"},
		{"unknown monitor", &monitor.LookupError{Module: "NET", Purpose: "NOPE"}, http.StatusNotFound, "unknown_monitor"},
		{"no data", &monitor.NoDataError{Filter: "eth9"}, http.StatusUnprocessableEntity, "no_data"},
		{"sampling", &monitor.SamplingError{Tool: "sar", ExitCode: 1}, http.StatusBadGateway, "sampling_failure"},
		{"timeout", &monitor.SamplingError{Tool: "sar", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "timeout"},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(api.NewServer(&fakeService{err: tt.err}, nil, time.Minute))
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/v1/monitors/NET/ESTAT?field=--fields%3Derrs")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.code {
				t.Errorf("error = %q, want %q", body.Error, tt.code)
			}
		})
	}
}

func TestListMonitors(t *testing.T) {
	ts := httptest.NewServer(api.NewServer(&fakeService{}, nil, time.Minute))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/monitors")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Items []models.MonitorInfo `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].Purpose != "ESTAT" {
		t.Errorf("items = %+v", body.Items)
	}
}

func TestNotFound(t *testing.T) {
	ts := httptest.NewServer(api.NewServer(&fakeService{}, nil, time.Minute))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/monitors")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
