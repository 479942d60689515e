package domain

import "time"

// AnalysisRecord is a persisted best-move search.
type AnalysisRecord struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Rules       string    `json:"rules"`
	Grid        [][]int   `json:"grid"`
	ToMove      Side      `json:"to_move"`
	Depth       int       `json:"depth"`
	BestColumn  int       `json:"best_column"`
	Score       int       `json:"score"`
	Nodes       int64     `json:"nodes"`
	CreatedAt   time.Time `json:"created_at"`
}

// GameRecord is a finished human-vs-computer game.
type GameRecord struct {
	GameID     string     `json:"game_id"`
	Rules      string     `json:"rules"`
	Difficulty Difficulty `json:"difficulty"`
	HumanSide  Side       `json:"human_side"`
	Winner     Side       `json:"winner"`
	Status     GameStatus `json:"status"`
	Moves      []int      `json:"moves"`
	Board      [][]int    `json:"board"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt time.Time  `json:"finished_at"`
}
