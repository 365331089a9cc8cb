package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	dmn "github.com/adaptivemaze/amaze-api/domain"
	"github.com/adaptivemaze/amaze-api/service/i"
	"github.com/google/uuid"
)

const tokenLifetime = 24 * time.Hour

// ErrInvalidCredentials hides whether the username or the password was
// wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Auth registers players and signs them in.
type Auth struct {
	userRepo    i.UserRepo
	tokenizer   i.Tokenizer
	leaderboard i.Leaderboard
	logger      i.Logger
}

// NewAuthService wires the auth service. The leaderboard is optional;
// without it new players simply appear on the board after their first
// race.
func NewAuthService(repo i.UserRepo, tokenizer i.Tokenizer, leaderboard i.Leaderboard, logger i.Logger) (*Auth, error) {
	if repo == nil || tokenizer == nil {
		return nil, errors.New("auth service needs a user repo and a tokenizer")
	}
	return &Auth{
		userRepo:    repo,
		tokenizer:   tokenizer,
		leaderboard: leaderboard,
		logger:      logger,
	}, nil
}

// Register creates a new user and seeds their leaderboard rating.
func (a *Auth) Register(username, password string) error {
	userConfig := dmn.UserConfig{
		ID:            uuid.New(),
		Username:      username,
		PlainPassword: password,
	}

	user, err := dmn.NewUser(userConfig)
	if err != nil {
		return err
	}

	if err := a.userRepo.Save(user); err != nil {
		return err
	}

	if a.leaderboard != nil {
		if err := a.leaderboard.Seed(context.Background(), user.ID, user.Rating); err != nil {
			a.logger.Warning(fmt.Sprintf("Seeding leaderboard for %s: %s", user.Username, err))
		}
	}
	return nil
}

// SignIn verifies the credentials and returns the user with a signed
// token.
func (a *Auth) SignIn(username, password string) (*dmn.User, string, error) {
	user, err := a.userRepo.ByUsername(username)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if !user.VerifyPassword(password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := a.tokenizer.Generate(map[string]interface{}{
		"userID":   user.ID,
		"username": user.Username,
	}, tokenLifetime)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}
