package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromRaw(t *testing.T) {
	assert.Equal(t, KindCreated, StatusFromRaw("Заявка только что создана").Kind())
	assert.Equal(t, KindInProgress, StatusFromRaw("В работе").Kind())
	assert.Equal(t, KindCompleted, StatusFromRaw("Завершен").Kind())

	unknown := StatusFromRaw("Приостановлен")
	assert.Equal(t, KindUnknown, unknown.Kind())
	assert.Equal(t, "Приостановлен", unknown.Raw(), "unknown statuses keep their raw value")
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusCreated.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.False(t, StatusFromRaw("Приостановлен").Terminal())
}

func TestStatusEqual(t *testing.T) {
	assert.True(t, StatusInProgress.Equal(StatusFromRaw("В работе")))
	assert.False(t, StatusInProgress.Equal(StatusCompleted))
	assert.True(t, StatusFromRaw("Приостановлен").Equal(StatusFromRaw("Приостановлен")))
	assert.False(t, StatusFromRaw("Приостановлен").Equal(StatusFromRaw("Отклонена")))
}

func TestValidCadastralNumber(t *testing.T) {
	for _, ok := range []string{
		"77:01:0001075:1361",
		"50:21:0110501:42",
		"66:41:0204001:7",
		"02:55:0000000:100000",
	} {
		assert.True(t, ValidCadastralNumber(ok), ok)
	}

	for _, bad := range []string{
		"",
		"77:01:0001075",
		"7:01:0001075:1361",
		"77:1:0001075:1361",
		"77:01:00010:1361",
		"77:01:00010755:1361",
		"77:01:0001075:",
		"77:01:0001075:1361x",
		"текст",
	} {
		assert.False(t, ValidCadastralNumber(bad), bad)
	}
}

func TestFormatDisplayTime(t *testing.T) {
	// Moscow is UTC+3 year-round.
	utc := time.Date(2024, 12, 31, 22, 15, 5, 0, time.UTC)
	assert.Equal(t, "01.01.2025, 01:15:05", FormatDisplayTime(utc))
}
