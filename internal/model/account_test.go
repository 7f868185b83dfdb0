package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	acc := Account{TokensUsed: 25000, TokensLimit: 100000}
	m := acc.Metrics()

	assert.Equal(t, int64(25000), m.Used)
	assert.Equal(t, int64(75000), m.Remaining)
	assert.Equal(t, 25.0, m.Percentage)
}

func TestMetricsZeroLimit(t *testing.T) {
	acc := Account{TokensUsed: 500, TokensLimit: 0}
	m := acc.Metrics()

	assert.Zero(t, m.Percentage, "zero limit must not divide by zero")
	assert.Zero(t, m.Remaining)
}

func TestMetricsOverspent(t *testing.T) {
	acc := Account{TokensUsed: 150000, TokensLimit: 100000}
	m := acc.Metrics()

	assert.Zero(t, m.Remaining, "remaining never goes negative")
	assert.Equal(t, 150.0, m.Percentage)
}

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1500, "1.5K"},
		{2300000, "2.3M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTokens(tt.in))
	}
}

func TestTokenStatusLabel(t *testing.T) {
	assert.Equal(t, "ok", TokenStatusLabel(0))
	assert.Equal(t, "ok", TokenStatusLabel(49.9))
	assert.Equal(t, "warning", TokenStatusLabel(50))
	assert.Equal(t, "warning", TokenStatusLabel(79.9))
	assert.Equal(t, "critical", TokenStatusLabel(80))
	assert.Equal(t, "critical", TokenStatusLabel(120))
}

func TestParseEntityKind(t *testing.T) {
	assert.Equal(t, KindHero, ParseEntityKind("hero"))
	assert.Equal(t, KindEquipment, ParseEntityKind("equipment"))
	assert.Equal(t, KindAuto, ParseEntityKind("auto"))
	assert.Equal(t, KindAuto, ParseEntityKind(""))
	assert.Equal(t, KindAuto, ParseEntityKind("garbage"))
}

func TestInfoIncludesStatus(t *testing.T) {
	acc := Account{ID: "acc-1", Username: "alpha", TokensUsed: 90000, TokensLimit: 100000}
	info := acc.Info()

	assert.Equal(t, "acc-1", info.ID)
	assert.Equal(t, "alpha", info.Username)
	assert.Equal(t, "critical", info.TokensStatus)
	assert.Equal(t, int64(10000), info.Tokens.Remaining)
}
