// Package gameapi exposes race sessions and the leaderboard over HTTP.
package gameapi

// MoveRequest is one player move inside a running race.
type MoveRequest struct {
	Action string `json:"action" binding:"required"`
}

// LeaderboardRow is one entry of the leaderboard response.
type LeaderboardRow struct {
	Rank   int    `json:"rank"`
	ID     string `json:"id"`
	Rating int    `json:"rating"`
}
