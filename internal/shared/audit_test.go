package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOccurredAtZeroBecomesNull(t *testing.T) {
	require.Nil(t, occurredAt(time.Time{}))
}

func TestOccurredAtKeepsExplicitTime(t *testing.T) {
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	require.Equal(t, at, occurredAt(at))
}
