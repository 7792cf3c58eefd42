package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tradesim/internal/engine"
	"tradesim/internal/repository"
	"tradesim/types"
)

type stubStatus struct {
	status engine.LiveStatus
}

func (s stubStatus) Snapshot() engine.LiveStatus { return s.status }

type stubRunStore struct {
	summaries map[uuid.UUID]*repository.RunSummary
	listErr   error
}

func (s stubRunStore) GetRunSummary(_ context.Context, id uuid.UUID) (*repository.RunSummary, error) {
	summary, ok := s.summaries[id]
	if !ok {
		return nil, repository.ErrRunNotFound
	}
	return summary, nil
}

func (s stubRunStore) ListRunSummaries(_ context.Context, limit int) ([]*repository.RunSummary, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*repository.RunSummary, 0, len(s.summaries))
	for _, v := range s.summaries {
		out = append(out, v)
	}
	return out, nil
}

func serve(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestGetStatus(t *testing.T) {
	status := engine.LiveStatus{
		Instrument: "BTCUSDT",
		Equity:     decimal.RequireFromString("10250.50"),
		UpdatedAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	s := NewServer(0, stubStatus{status: status}, nil, zerolog.Nop())

	w := serve(t, s, http.MethodGet, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got engine.LiveStatus
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Instrument != "BTCUSDT" || !got.Equity.Equal(status.Equity) {
		t.Errorf("got %+v", got)
	}
}

func TestGetStatusWithoutLiveRun(t *testing.T) {
	s := NewServer(0, nil, stubRunStore{}, zerolog.Nop())

	if w := serve(t, s, http.MethodGet, "/api/status"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if w := serve(t, s, http.MethodGet, "/api/positions"); w.Code != http.StatusNotFound {
		t.Errorf("positions = %d, want 404", w.Code)
	}
}

func TestGetPositions(t *testing.T) {
	status := engine.LiveStatus{
		OpenPositions: []types.Position{
			{ID: uuid.New(), Instrument: "BTCUSDT", Direction: types.DirectionLong},
		},
	}
	s := NewServer(0, stubStatus{status: status}, nil, zerolog.Nop())

	w := serve(t, s, http.MethodGet, "/api/positions")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got []types.Position
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Instrument != "BTCUSDT" {
		t.Errorf("got %+v", got)
	}
}

func TestGetRun(t *testing.T) {
	id := uuid.New()
	store := stubRunStore{
		summaries: map[uuid.UUID]*repository.RunSummary{
			id: {ID: id, Timestamp: time.Now().UTC()},
		},
	}
	s := NewServer(0, nil, store, zerolog.Nop())

	w := serve(t, s, http.MethodGet, "/api/runs/"+id.String())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got repository.RunSummary
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != id {
		t.Errorf("ID = %s, want %s", got.ID, id)
	}
}

func TestGetRunErrors(t *testing.T) {
	s := NewServer(0, nil, stubRunStore{}, zerolog.Nop())

	if w := serve(t, s, http.MethodGet, "/api/runs/not-a-uuid"); w.Code != http.StatusBadRequest {
		t.Errorf("invalid id = %d, want 400", w.Code)
	}
	if w := serve(t, s, http.MethodGet, "/api/runs/"+uuid.NewString()); w.Code != http.StatusNotFound {
		t.Errorf("unknown id = %d, want 404", w.Code)
	}
}

func TestListRuns(t *testing.T) {
	id := uuid.New()
	store := stubRunStore{
		summaries: map[uuid.UUID]*repository.RunSummary{
			id: {ID: id},
		},
	}
	s := NewServer(0, nil, store, zerolog.Nop())

	w := serve(t, s, http.MethodGet, "/api/runs")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got []*repository.RunSummary
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("runs = %d, want 1", len(got))
	}
}

func TestListRunsStoreFailure(t *testing.T) {
	s := NewServer(0, nil, stubRunStore{listErr: errors.New("boom")}, zerolog.Nop())

	if w := serve(t, s, http.MethodGet, "/api/runs"); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestNoRunStore(t *testing.T) {
	s := NewServer(0, stubStatus{}, nil, zerolog.Nop())

	if w := serve(t, s, http.MethodGet, "/api/runs"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
