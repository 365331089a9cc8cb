package gameapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/adaptivemaze/amaze-api/service/i"
	"github.com/gin-gonic/gin"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// LeaderboardController serves the global rating ranking.
type LeaderboardController struct {
	leaderboard i.Leaderboard
}

// NewLeaderboardController initializes a LeaderboardController.
func NewLeaderboardController(lb i.Leaderboard) (*LeaderboardController, error) {
	if lb == nil {
		return nil, errors.New("leaderboard controller needs a leaderboard")
	}
	return &LeaderboardController{leaderboard: lb}, nil
}

// RegisterPublic registers public routes.
func (lc *LeaderboardController) RegisterPublic(route *gin.RouterGroup) {
	route.GET("/leaderboard", lc.top)
}

// RegisterProtected registers protected routes.
func (lc *LeaderboardController) RegisterProtected(route *gin.RouterGroup) {}

// top returns the highest-rated players.
func (lc *LeaderboardController) top(ctx *gin.Context) {
	limit := int64(defaultLeaderboardSize)
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if parsed > maxLeaderboardSize {
			parsed = maxLeaderboardSize
		}
		limit = parsed
	}

	ranked, err := lc.leaderboard.Top(ctx, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while reading leaderboard"})
		return
	}

	rows := make([]LeaderboardRow, 0, len(ranked))
	for idx, player := range ranked {
		rows = append(rows, LeaderboardRow{
			Rank:   idx + 1,
			ID:     player.ID.String(),
			Rating: player.Rating,
		})
	}
	ctx.JSON(http.StatusOK, rows)
}
