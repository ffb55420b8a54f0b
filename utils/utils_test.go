package utils

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("battery staple", hash))
}

func TestEmailHelpers(t *testing.T) {
	assert.Equal(t, "ana@club.example", NormalizeEmail("  Ana@Club.Example "))
	assert.True(t, IsValidEmail("ana@club.example"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("Ana <ana@club.example>"))
}

func TestNewLoggerLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("test", "DEBUG").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("test", "").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("test", "loud").GetLevel())
}
