package utils_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/markethub/internal/utils"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := utils.GenerateToken("secret", userID, time.Hour)
	require.NoError(t, err)

	parsed, err := utils.ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := utils.GenerateToken("secret", uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = utils.ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := utils.GenerateToken("secret", uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = utils.ParseToken("secret", token)
	assert.Error(t, err)
}
