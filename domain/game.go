package domain

import "time"

// GameRecord is the summary stored once a game ends.
type GameRecord struct {
	Id           int64        `json:"id"`
	Mode         string       `json:"mode"`
	TeamCount    int          `json:"teamCount,omitempty"`
	FinalScore   int          `json:"finalScore"`
	Duration     int          `json:"duration"`
	Categories   []string     `json:"categories"`
	WordsGuessed int          `json:"wordsGuessed"`
	CreatedAt    time.Time    `json:"createdAt"`
	Teams        []TeamRecord `json:"teams,omitempty"`
}

type TeamRecord struct {
	Id         int64  `json:"id"`
	GameId     int64  `json:"gameId"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	Color      string `json:"color"`
	OrderIndex int    `json:"orderIndex"`
}
