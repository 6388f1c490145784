package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/config"
	"weekplan/internal/model"
)

type fakeStore struct {
	sched model.Schedule
	err   error
}

func (f *fakeStore) Load() (model.Schedule, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.sched, 1, nil
}

type fakeSync struct {
	calls int
	err   error
}

func (f *fakeSync) SyncNow(context.Context) error {
	f.calls++
	return f.err
}

func testSchedule() model.Schedule {
	s := model.NewSchedule()
	s["Mon"] = []model.ScheduleItem{
		{ID: 1, Title: "This Week", DueDate: "2024-10-14", Priority: model.PriorityHigh},
		{ID: 2, Title: "Other Week", DueDate: "2024-11-04", Priority: model.PriorityHigh},
		{ID: 3, Title: "Undated", Priority: model.PriorityLow, Completed: true},
	}
	return s
}

func newTestServer(t *testing.T, st Store, trigger SyncTrigger, cfg *config.Config) *httptest.Server {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	srv := httptest.NewServer(NewServer(cfg, st, trigger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeStore{sched: model.NewSchedule()}, nil, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWeek_ScopesToRequestedWeek(t *testing.T) {
	srv := newTestServer(t, &fakeStore{sched: testSchedule()}, nil, nil)

	resp, err := http.Get(srv.URL + "/api/week?date=2024-10-17")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var week weekResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&week))
	assert.Equal(t, "2024-10-14", week.WeekStart)
	require.Len(t, week.Days, 7)
	assert.Equal(t, "Mon", week.Days[0].Day)
	assert.Equal(t, "2024-10-14", week.Days[0].Date)

	titles := []string{}
	for _, item := range week.Days[0].Items {
		titles = append(titles, item.Title)
	}
	assert.Contains(t, titles, "This Week")
	assert.Contains(t, titles, "Undated", "date-less items show in every week")
	assert.NotContains(t, titles, "Other Week")

	// 1 of 3 items completed.
	assert.Equal(t, 33, week.CompletionPercent)
}

func TestWeek_BadDate(t *testing.T) {
	srv := newTestServer(t, &fakeStore{sched: model.NewSchedule()}, nil, nil)

	resp, err := http.Get(srv.URL + "/api/week?date=mid-october")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWeek_StoreFailure(t *testing.T) {
	srv := newTestServer(t, &fakeStore{err: errors.New("disk gone")}, nil, nil)

	resp, err := http.Get(srv.URL + "/api/week")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestSync_TriggersCycle(t *testing.T) {
	trigger := &fakeSync{}
	srv := newTestServer(t, &fakeStore{sched: model.NewSchedule()}, trigger, nil)

	resp, err := http.Post(srv.URL+"/api/sync", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, trigger.calls)

	// GET is rejected.
	getResp, err := http.Get(srv.URL + "/api/sync")
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, getResp.StatusCode)
}

func TestSync_FailureSurfaces(t *testing.T) {
	trigger := &fakeSync{err: errors.New("feed down")}
	srv := newTestServer(t, &fakeStore{sched: model.NewSchedule()}, trigger, nil)

	resp, err := http.Post(srv.URL+"/api/sync", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestBasicAuth(t *testing.T) {
	cfg := &config.Config{
		BasicAuth: &config.BasicAuthConfig{Username: "admin", Password: "hunter2"},
	}
	srv := newTestServer(t, &fakeStore{sched: model.NewSchedule()}, nil, cfg)

	// Health stays open.
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// API requires credentials.
	resp, err = http.Get(srv.URL + "/api/week")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/week", nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "hunter2")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req.SetBasicAuth("admin", "wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
