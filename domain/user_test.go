package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserValidation(t *testing.T) {
	base := UserConfig{ID: uuid.New(), PlainPassword: "correct-horse-battery-staple"}

	cfg := base
	cfg.Username = "ab"
	_, err := NewUser(cfg)
	assert.ErrorIs(t, err, ErrUsernameTooShort)

	cfg.Username = "this_username_is_way_too_long_to_accept"
	_, err = NewUser(cfg)
	assert.ErrorIs(t, err, ErrUsernameTooLong)

	cfg.Username = "bad name!"
	_, err = NewUser(cfg)
	assert.ErrorIs(t, err, ErrInvalidUsernameFormat)

	cfg.Username = "runner_1"
	cfg.PlainPassword = "password"
	_, err = NewUser(cfg)
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestNewUserDefaultsAndPassword(t *testing.T) {
	user, err := NewUser(UserConfig{
		ID:            uuid.New(),
		Username:      "runner_1",
		PlainPassword: "correct-horse-battery-staple",
	})
	require.NoError(t, err)

	assert.Equal(t, 1400, user.Rating)
	assert.Equal(t, "beginner", user.Skill)
	assert.Equal(t, 1, user.Level)

	assert.True(t, user.VerifyPassword("correct-horse-battery-staple"))
	assert.False(t, user.VerifyPassword("wrong"))
	assert.NotContains(t, user.PasswordHash, "correct-horse")
}
