package msgraph_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/project-time/internal/msgraph"
)

func TestGetCalendarView_FollowsNextLink(t *testing.T) {
	var srv *httptest.Server
	var requests int
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/me/calendarView", r.URL.Path)
		assert.Equal(t, `outlook.timezone="Europe/Berlin"`, r.Header.Get("Prefer"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"value": []msgraph.CalendarEvent{makeEvent("e2", "Retro", "2026-02-27T14:00:00", "2026-02-27T15:00:00")},
			})
			return
		}
		assert.Equal(t, "2026-02-27T00:00:00Z", r.URL.Query().Get("startDateTime"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value":           []msgraph.CalendarEvent{makeEvent("e1", "Planning", "2026-02-27T09:00:00", "2026-02-27T10:00:00")},
			"@odata.nextLink": srv.URL + "/me/calendarView?page=2",
		})
	}))
	defer srv.Close()

	client := msgraph.NewClientWithHTTP(srv.Client(), srv.URL)
	events, err := client.GetCalendarView(context.Background(), at(0, 0), at(0, 0).AddDate(0, 0, 1), "Europe/Berlin")
	require.NoError(t, err)

	assert.Equal(t, 2, requests)
	require.Len(t, events, 2)
	assert.Equal(t, "Planning", events[0].Subject)
	assert.Equal(t, "Retro", events[1].Subject)
}

func TestGetCalendarView_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"InvalidAuthenticationToken"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := msgraph.NewClientWithHTTP(srv.Client(), srv.URL)
	_, err := client.GetCalendarView(context.Background(), at(0, 0), at(23, 0), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "InvalidAuthenticationToken")
}

func TestGetCalendarView_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := msgraph.NewClientWithHTTP(srv.Client(), srv.URL)
	_, err := client.GetCalendarView(ctx, at(0, 0), at(23, 0), "")
	assert.ErrorIs(t, err, context.Canceled)
}
