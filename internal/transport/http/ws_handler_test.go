package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"advent-calendar-service/internal/app"
	"advent-calendar-service/internal/domain"
	"advent-calendar-service/internal/infra/memory"
	"advent-calendar-service/internal/quiz"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type testEnv struct {
	server      *httptest.Server
	scheduler   *quiz.ManualScheduler
	completions *memory.CompletionStore
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	// Handler goroutines outlive the test around hijacked connections.
	logger := zap.NewNop()
	env := testEnv{
		scheduler:   quiz.NewManualScheduler(),
		completions: memory.NewCompletionStore(),
	}
	days := memory.NewDayRepository(memory.NewStaticDayLoader(sampleDays()), time.Minute)
	service := app.NewCalendarService(days, env.completions, memory.NewSessionStore(),
		app.WithScheduler(env.scheduler),
		app.WithLogger(logger))

	router := NewRouter(
		NewWSHandler(service, logger),
		NewAPIHandler(service, AppInfo{ID: "com.example.advent", Name: "advent", WebDir: "dist"}, logger),
		"",
		logger)
	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)
	return env
}

func TestWebSocketQuizFlow(t *testing.T) {
	env := newTestEnv(t)

	u := "ws" + env.server.URL[len("http"):] + "/ws?userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect session event first.
	var session struct {
		SessionID string      `json:"sessionId"`
		Grid      domain.Grid `json:"grid"`
	}
	readInto(t, conn, "session", &session)
	if session.SessionID == "" || len(session.Grid.Tiles) != 2 {
		t.Fatalf("unexpected session payload %+v", session)
	}

	send(t, conn, "open", map[string]any{"dayId": 1})
	view := readView(t, conn, "view")
	if view.State != domain.ViewQuestion || len(view.Options) != 3 || view.Content != "" {
		t.Fatalf("unexpected question view %+v", view)
	}

	send(t, conn, "select", map[string]any{"option": 0})
	view = readView(t, conn, "view")
	if !view.Options[0].Wrong {
		t.Fatalf("expected wrong cue, got %+v", view.Options[0])
	}
	env.scheduler.Advance(quiz.DefaultWrongResetDelay)
	view = readView(t, conn, "view")
	if view.Options[0].Selected {
		t.Fatalf("expected cue cleared, got %+v", view.Options[0])
	}

	send(t, conn, "select", map[string]any{"option": 1})
	view = readView(t, conn, "view")
	if !view.Options[1].Correct {
		t.Fatalf("expected correct cue, got %+v", view.Options[1])
	}
	env.scheduler.Advance(quiz.DefaultSuccessDelay)
	completed := readView(t, conn, "completed")
	if completed.State != domain.ViewSuccess || completed.Content == "" {
		t.Fatalf("expected unlocked story, got %+v", completed)
	}
	readView(t, conn, "view")

	if ok, _ := env.completions.IsCompleted(context.Background(), "u1", 1); !ok {
		t.Fatalf("expected completion persisted")
	}

	send(t, conn, "close", map[string]any{})
	readInto(t, conn, "closed", &struct{}{})
}

func TestWebSocketRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without userId, got %d", resp.StatusCode)
	}

	u := "ws" + env.server.URL[len("http"):] + "/ws?userId=u2"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readInto(t, conn, "session", &struct{}{})

	var msg errorPayload
	send(t, conn, "open", map[string]any{"dayId": 9})
	readInto(t, conn, "error", &msg)
	if msg.Message != domain.ErrDayNotFound.Error() {
		t.Fatalf("expected day not found, got %q", msg.Message)
	}

	send(t, conn, "select", map[string]any{})
	readInto(t, conn, "error", &msg)

	send(t, conn, "dance", map[string]any{})
	readInto(t, conn, "error", &msg)
	if msg.Message != "unsupported message type" {
		t.Fatalf("unexpected error %q", msg.Message)
	}
}

func TestAPIEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_ = env.completions.MarkCompleted(context.Background(), "u1", 2)

	resp, err := http.Get(env.server.URL + "/api/days?userId=u1")
	if err != nil {
		t.Fatalf("get grid: %v", err)
	}
	defer resp.Body.Close()
	var grid domain.Grid
	if err := json.NewDecoder(resp.Body).Decode(&grid); err != nil {
		t.Fatalf("decode grid: %v", err)
	}
	if grid.Progress.Completed != 1 || grid.Progress.Total != 2 || !grid.Tiles[1].Completed {
		t.Fatalf("unexpected grid %+v", grid)
	}

	missing, err := http.Get(env.server.URL + "/api/days")
	if err != nil {
		t.Fatalf("get grid without user: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", missing.StatusCode)
	}

	infoResp, err := http.Get(env.server.URL + "/api/app")
	if err != nil {
		t.Fatalf("get app: %v", err)
	}
	defer infoResp.Body.Close()
	var info AppInfo
	if err := json.NewDecoder(infoResp.Body).Decode(&info); err != nil {
		t.Fatalf("decode app: %v", err)
	}
	if info.ID != "com.example.advent" {
		t.Fatalf("unexpected app info %+v", info)
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readInto(t *testing.T, conn *websocket.Conn, expect string, out any) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%s)", expect, msg.Type, msg.Payload)
	}
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		t.Fatalf("decode %s payload: %v", expect, err)
	}
}

func readView(t *testing.T, conn *websocket.Conn, expect string) domain.View {
	t.Helper()
	var payload updatePayload
	readInto(t, conn, expect, &payload)
	if payload.View == nil {
		t.Fatalf("expected view in %s message", expect)
	}
	return *payload.View
}

func sampleDays() []domain.Day {
	return []domain.Day{
		{
			ID:            1,
			Title:         "Advent wreath",
			Content:       "The first advent wreath had 24 candles.",
			Colors:        []string{"#15803d", "#b91c1c"},
			Question:      "How many candles did the first advent wreath carry?",
			Options:       []string{"4", "24", "12"},
			CorrectAnswer: 1,
		},
		{
			ID:            2,
			Title:         "Reindeer",
			Content:       "Reindeer eyes turn blue in winter.",
			Colors:        []string{"#1d4ed8"},
			Question:      "What colour do reindeer eyes turn in winter?",
			Options:       []string{"Gold", "Blue", "Green"},
			CorrectAnswer: 1,
		},
	}
}
