package worldapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_WorldInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/world/info", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"currentTime":"2024-01-01T00:00:00.000Z","timeAcceleration":60,"worldId":"w-1"}`))
	}))
	defer srv.Close()

	info, err := New(srv.URL+"/", time.Second).WorldInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", info.CurrentTime)
	assert.Equal(t, 60.0, info.TimeAcceleration)
	assert.Equal(t, "w-1", info.WorldID)
}

func TestClient_MaintenanceWindows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/maintenance/scheduled", r.URL.Path)
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2024-03-31", r.URL.Query().Get("endDate"))
		_, _ = w.Write([]byte(`[
			{"aircraftId":"AC-1","checkType":"C","scheduledDate":"2024-03-01","startTime":"23:00:00","duration":20160,"isOngoing":false},
			{"aircraftId":"AC-1","checkType":"C","scheduledDate":"2024-03-02","startTime":"00:00:00","duration":20160,"isOngoing":true}
		]`))
	}))
	defer srv.Close()

	from := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	records, err := New(srv.URL, time.Second).MaintenanceWindows(context.Background(), from, from.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 20160, records[0].Duration)
	assert.True(t, records[1].IsOngoing)
}

func TestClient_FleetMaintenance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"AC-1","lastACheckHours":"500.00","totalFlightHours":1490}]`))
	}))
	defer srv.Close()

	records, err := New(srv.URL, time.Second).FleetMaintenance(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].LastACheckHours)
	assert.Equal(t, 500.0, records[0].LastACheckHours.Float())
}

func TestClient_FleetMaintenanceSkipsMalformedRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"AC-1","totalFlightHours":100},
			{"id":"AC-2","totalFlightHours":"n/a"},
			{"id":"AC-3","totalFlightHours":"300.5"}
		]`))
	}))
	defer srv.Close()

	records, err := New(srv.URL, time.Second).FleetMaintenance(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "AC-1", records[0].AircraftID)
	assert.Equal(t, "AC-3", records[1].AircraftID)
	assert.Equal(t, 300.5, records[1].TotalFlightHours.Float())
}

func TestClient_MaintenanceWindowsSkipsMalformedWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"aircraftId":"AC-1","checkType":"C","scheduledDate":"2024-03-01","startTime":"23:00:00","duration":"60"},
			{"aircraftId":"AC-2","checkType":"A","scheduledDate":"2024-03-02","startTime":"08:00:00","duration":240}
		]`))
	}))
	defer srv.Close()

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	records, err := New(srv.URL, time.Second).MaintenanceWindows(context.Background(), from, from.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "AC-2", records[0].AircraftID)
	assert.Equal(t, 240, records[0].Duration)
}

func TestClient_NonArrayBodyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"maintenance"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).FleetMaintenance(context.Background())
	assert.ErrorContains(t, err, "failed to fetch fleet maintenance")
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "world not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).WorldInfo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(srv.URL, 5*time.Second).WorldInfo(ctx)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
