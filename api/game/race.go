package gameapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/adaptivemaze/amaze-api/api/identity"
	"github.com/adaptivemaze/amaze-api/maze"
	"github.com/adaptivemaze/amaze-api/service"
	"github.com/adaptivemaze/amaze-api/service/i"
	"github.com/adaptivemaze/amaze-api/transport/realtime"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RaceController manages race sessions for authenticated players.
type RaceController struct {
	raceManager i.RaceManager
	hub         *realtime.Hub
}

// NewRaceController initializes a RaceController.
func NewRaceController(rm i.RaceManager, hub *realtime.Hub) (*RaceController, error) {
	if rm == nil || hub == nil {
		return nil, errors.New("race controller needs a race manager and a hub")
	}
	return &RaceController{raceManager: rm, hub: hub}, nil
}

// RegisterPublic registers public routes.
func (rc *RaceController) RegisterPublic(route *gin.RouterGroup) {}

// RegisterProtected registers protected routes.
func (rc *RaceController) RegisterProtected(route *gin.RouterGroup) {
	race := route.Group("/race")
	{
		race.POST("/", rc.start)
		race.POST("/move", rc.move)
		race.GET("/ws", rc.serveWS)
	}
}

// start opens a race session for the caller.
func (rc *RaceController) start(ctx *gin.Context) {
	playerID, ok := playerIDFromCtx(ctx)
	if !ok {
		return
	}

	if err := rc.raceManager.StartRace(context.Background(), playerID); err != nil {
		if errors.Is(err, service.ErrAlreadyRacing) {
			ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while starting race"})
		return
	}

	ctx.Status(http.StatusCreated)
}

// move forwards one player move into their race.
func (rc *RaceController) move(ctx *gin.Context) {
	playerID, ok := playerIDFromCtx(ctx)
	if !ok {
		return
	}

	var request MoveRequest
	if err := ctx.ShouldBind(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, ok := maze.ParseAction(request.Action)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "action must be one of up, down, left, right"})
		return
	}

	if err := rc.raceManager.PlayerMove(playerID, action); err != nil {
		switch {
		case errors.Is(err, service.ErrNoRace):
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrRaceOver):
			ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while applying move"})
		}
		return
	}

	ctx.Status(http.StatusAccepted)
}

// serveWS upgrades the connection for race state streaming.
func (rc *RaceController) serveWS(ctx *gin.Context) {
	playerID, ok := playerIDFromCtx(ctx)
	if !ok {
		return
	}

	rc.hub.ServeWS(ctx.Writer, ctx.Request, playerID)
}

// playerIDFromCtx pulls the authenticated player's ID out of the JWT
// claims the middleware attached.
func playerIDFromCtx(ctx *gin.Context) (uuid.UUID, bool) {
	raw, exists := ctx.Get(identity.ContextUserClaims)
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
		return uuid.Nil, false
	}

	claims, ok := raw.(map[string]interface{})
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return uuid.Nil, false
	}

	idString, ok := claims["userID"].(string)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return uuid.Nil, false
	}

	playerID, err := uuid.Parse(idString)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return uuid.Nil, false
	}
	return playerID, true
}
