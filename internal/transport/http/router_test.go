package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamasit07/connect4-engine/internal/config"
	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/service/analysis"
	"github.com/iamasit07/connect4-engine/internal/service/bot"
	"github.com/iamasit07/connect4-engine/internal/service/game"
)

var emptyBoard = []string{".......", ".......", ".......", ".......", ".......", "......."}

type fakeHistory struct {
	games []domain.GameRecord
}

func (f *fakeHistory) GetGameHistory(_ context.Context, limit int) ([]domain.GameRecord, error) {
	if len(f.games) < limit {
		limit = len(f.games)
	}
	return f.games[:limit], nil
}

func (f *fakeHistory) GetGameByID(_ context.Context, gameID string) (*domain.GameRecord, error) {
	for _, g := range f.games {
		if g.GameID == gameID {
			return &g, nil
		}
	}
	return nil, nil
}

type testServer struct {
	router   *gin.Engine
	sessions *game.SessionManager
}

func newTestServer(t *testing.T, opts RouterOptions, history GameHistoryReader, checks map[string]Check) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prev := config.AppConfig
	config.AppConfig = &config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour, RequireAuth: opts.RequireAuth}
	t.Cleanup(func() { config.AppConfig = prev })

	presets := bot.Presets{domain.DifficultyEasy: 1, domain.DifficultyMedium: 2, domain.DifficultyHard: 3}
	engine := bot.NewEngine(bot.DefaultWeights, zerolog.Nop())
	svc := analysis.NewService(engine, nil, nil, analysis.Options{Presets: presets, MaxDepth: 6, Timeout: 5 * time.Second, Parallelism: 2}, zerolog.Nop())
	sm := game.NewSessionManager(engine, presets, nil, time.Second, zerolog.Nop())

	router := NewRouter(Handlers{
		Health:   NewHealthHandler(checks),
		Auth:     NewAuthHandler(),
		Analysis: NewAnalysisHandler(svc),
		Games:    NewGamesHandler(sm),
		History:  NewHistoryHandler(history),
		Watch:    NewWatchHandler(sm),
	}, opts, zerolog.Nop())
	return &testServer{router: router, sessions: sm}
}

func (s *testServer) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, nil, nil)
	w := s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	s = newTestServer(t, RouterOptions{}, nil, map[string]Check{
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	})
	w = s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestBestMove(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, nil, nil)

	depth := 1
	w := s.do(t, http.MethodPost, "/api/bestmove", gin.H{"board": emptyBoard, "to_move": "A", "depth": depth}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	a := decode[analysis.Analysis](t, w)
	assert.Equal(t, 3, a.Column)
	assert.Equal(t, 20, a.Score)
	assert.Equal(t, 1, a.Depth)
	assert.Equal(t, domain.SideA, a.ToMove)
	assert.Len(t, a.Columns, 7)

	// no depth or difficulty falls back to the medium preset
	w = s.do(t, http.MethodPost, "/api/bestmove", gin.H{"board": emptyBoard, "to_move": "A"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decode[analysis.Analysis](t, w).Depth)
}

func TestBestMoveTakesWin(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, nil, nil)
	board := []string{".......", ".......", ".......", ".......", "BBB....", "AAA...."}
	w := s.do(t, http.MethodPost, "/api/bestmove", gin.H{"board": board, "to_move": "A", "difficulty": "hard"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	a := decode[analysis.Analysis](t, w)
	assert.Equal(t, 3, a.Column)
	assert.True(t, a.Win)
}

func TestBestMoveErrors(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, nil, nil)
	won := []string{".......", ".......", ".......", ".......", "BBB....", "AAAA..."}

	cases := []struct {
		name   string
		body   gin.H
		status int
		msg    string
	}{
		{"missing board", gin.H{"to_move": "A"}, http.StatusBadRequest, "invalid input"},
		{"bad cell", gin.H{"board": []string{"..Z...."}, "to_move": "A"}, http.StatusBadRequest, "invalid board"},
		{"bad side", gin.H{"board": emptyBoard, "to_move": "C"}, http.StatusBadRequest, ""},
		{"unknown rules", gin.H{"rules": "pop_out", "board": emptyBoard, "to_move": "A"}, http.StatusBadRequest, "invalid rule set"},
		{"too deep", gin.H{"board": emptyBoard, "to_move": "A", "depth": 7}, http.StatusBadRequest, "maximum"},
		{"negative depth", gin.H{"board": emptyBoard, "to_move": "A", "depth": -1}, http.StatusBadRequest, ""},
		{"unknown difficulty", gin.H{"board": emptyBoard, "to_move": "A", "difficulty": "insane"}, http.StatusBadRequest, ""},
		{"already won", gin.H{"board": won, "to_move": "B", "depth": 2}, http.StatusConflict, "game is over"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/bestmove", tc.body, nil)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tc.msg)
		})
	}
}

func TestAnalyzeBatch(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, nil, nil)
	threat := []string{".......", ".......", ".......", ".......", ".......", "AAA...."}

	w := s.do(t, http.MethodPost, "/api/analyze/batch", gin.H{"positions": []gin.H{
		{"board": emptyBoard, "to_move": "A", "depth": 1},
		{"board": threat, "to_move": "B", "depth": 2},
	}}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[struct {
		Results []analysis.Analysis `json:"results"`
	}](t, w)
	require.Len(t, res.Results, 2)
	assert.Equal(t, 3, res.Results[0].Column)
	assert.Equal(t, 3, res.Results[1].Column)

	w = s.do(t, http.MethodPost, "/api/analyze/batch", gin.H{"positions": []gin.H{
		{"board": emptyBoard, "to_move": "A", "depth": 1},
		{"board": []string{"?"}, "to_move": "A"},
	}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "position 1")

	w = s.do(t, http.MethodPost, "/api/analyze/batch", gin.H{"positions": []gin.H{}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAnalysesWithoutRepository(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, nil, nil)
	w := s.do(t, http.MethodGet, "/api/analyses?limit=5", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestGameLifecycle(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, nil, nil)

	w := s.do(t, http.MethodPost, "/api/games", gin.H{"difficulty": "easy", "human_first": false}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	st := decode[game.State](t, w)
	assert.Equal(t, []int{3}, st.Moves)
	assert.Equal(t, domain.SideB, st.HumanSide)
	assert.Equal(t, domain.SideB, st.ToMove)

	w = s.do(t, http.MethodGet, "/api/games/"+st.GameID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, st.GameID, decode[game.State](t, w).GameID)

	w = s.do(t, http.MethodGet, "/api/games/live", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	live := decode[[]game.Summary](t, w)
	require.Len(t, live, 1)

	w = s.do(t, http.MethodPost, "/api/games/"+st.GameID+"/moves", gin.H{"column": 9}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "column out of range")

	w = s.do(t, http.MethodPost, "/api/games/"+st.GameID+"/moves", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/games/"+st.GameID+"/moves", gin.H{"column": 0}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st = decode[game.State](t, w)
	assert.Len(t, st.Moves, 3)
	assert.Equal(t, 0, st.Moves[1])
	require.Len(t, st.ComputerMoves, 1)

	w = s.do(t, http.MethodDelete, "/api/games/"+st.GameID, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, s.sessions.Count())

	w = s.do(t, http.MethodGet, "/api/games/"+st.GameID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateGameRejectsUnknownRules(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, nil, nil)
	w := s.do(t, http.MethodPost, "/api/games", gin.H{"rules": "five_in_a_row"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/games", gin.H{"difficulty": "insane"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistory(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, nil, nil)
	w := s.do(t, http.MethodGet, "/api/games/history", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeHistory{games: []domain.GameRecord{
		{GameID: "g-1", Rules: "standard", Difficulty: domain.DifficultyEasy, HumanSide: domain.SideA, Winner: domain.SideA, Status: domain.StatusWon, Moves: []int{3, 3, 4, 4, 5, 5, 6}, FinishedAt: finished},
		{GameID: "g-2", Rules: "standard", Difficulty: domain.DifficultyHard, HumanSide: domain.SideB, Winner: domain.SideA, Status: domain.StatusWon, Moves: []int{3}, FinishedAt: finished},
		{GameID: "g-3", Rules: "four_by_two", Difficulty: domain.DifficultyMedium, HumanSide: domain.SideA, Status: domain.StatusDraw, FinishedAt: finished},
	}}
	s = newTestServer(t, RouterOptions{}, repo, nil)

	w = s.do(t, http.MethodGet, "/api/games/history?limit=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]gameHistoryItem](t, w)
	require.Len(t, items, 2)
	assert.Equal(t, "win", items[0].Result)
	assert.Equal(t, 7, items[0].MovesCount)
	assert.Equal(t, "2026-03-01T12:00:00Z", items[0].FinishedAt)
	assert.Equal(t, "loss", items[1].Result)
	assert.Equal(t, "draw", resultFor(repo.games[2]))

	w = s.do(t, http.MethodGet, "/api/games/history/g-2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "g-2", decode[domain.GameRecord](t, w).GameID)

	w = s.do(t, http.MethodGet, "/api/games/history/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequireAuth(t *testing.T) {
	s := newTestServer(t, RouterOptions{RequireAuth: true}, nil, nil)
	body := gin.H{"board": emptyBoard, "to_move": "A", "depth": 1}

	w := s.do(t, http.MethodPost, "/api/bestmove", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/bestmove", body, http.Header{"Authorization": {"Bearer not-a-token"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/token", gin.H{"name": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/token", gin.H{"name": "board-ui"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tok := decode[struct {
		Token    string `json:"token"`
		ClientID string `json:"client_id"`
	}](t, w)
	require.NotEmpty(t, tok.Token)
	assert.NotEmpty(t, tok.ClientID)

	w = s.do(t, http.MethodPost, "/api/bestmove", body, http.Header{"Authorization": {"Bearer " + tok.Token}})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, RouterOptions{AllowedOrigins: []string{"http://localhost:5173"}}, nil, nil)

	w := s.do(t, http.MethodOptions, "/api/bestmove", nil, http.Header{"Origin": {"http://localhost:5173"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = s.do(t, http.MethodGet, "/healthz", nil, http.Header{"Origin": {"http://evil.example"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(domain.ErrColumnFull))
	assert.Equal(t, http.StatusConflict, statusFor(domain.ErrNotYourTurn))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(domain.ErrNoLegalMove))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, statusClientClosedRequest, statusFor(fmt.Errorf("computer move in game g-1: %w", context.Canceled)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestCancelledRequestIsNotAServerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/bestmove", nil)

	respondError(c, fmt.Errorf("position 0: %w", context.Canceled))
	assert.Equal(t, statusClientClosedRequest, w.Code)
	assert.Empty(t, c.Errors)
	assert.Contains(t, w.Body.String(), "context canceled")
}
