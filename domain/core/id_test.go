package core

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID_UniqueAndOrdered(t *testing.T) {
	const n = 2000

	seen := make(map[SessionID]struct{}, n)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := NewSessionID()
		require.NotEmpty(t, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate ID %s", id)
		seen[id] = struct{}{}
		ids = append(ids, id.String())
	}
	assert.True(t, sort.StringsAreSorted(ids), "v7 IDs sort by creation")

	assert.NotEqual(t, NewBatchID().String(), NewBatchID().String())
}

func TestParseSessionID(t *testing.T) {
	valid := NewSessionID()

	tests := []struct {
		name    string
		input   string
		want    SessionID
		wantErr bool
	}{
		{"uuid", valid.String(), valid, false},
		{"padded", "  " + valid.String() + " ", valid, false},
		{"empty", "", "", true},
		{"blank", "   ", "", true},
		{"not a uuid", "session-1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSessionID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsDomainError(NewProbabilityError(0.4, 0.5, 1.0)))
	assert.True(t, IsDomainError(NewGridError(-1, 0, 10)))
	assert.True(t, errors.Is(NewGridError(-1, 0, 10), ErrGridDomain))

	inv := NewInvariantError("deviation %v", 1.0)
	assert.False(t, IsDomainError(inv))
	assert.True(t, IsInvariantError(inv))
	assert.Contains(t, inv.Error(), "deviation 1")

	assert.True(t, IsConfigError(NewConfigError("min_step", "must be positive")))
	assert.True(t, IsEnded(ErrEnded))
}
