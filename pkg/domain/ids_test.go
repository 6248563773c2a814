package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "landledger/pkg/domain-errors"
)

// TestParseUUID_Invariants checks that ids are valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseApplicationID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseApplicationID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseApplicationID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, ApplicationID(valid), id)
		assert.Equal(t, valid.String(), id.String())
	})
}

func TestParseID_HostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE land_applications;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errUser := ParseUserID(tt.input)
			_, errApp := ParseApplicationID(tt.input)
			if tt.wantErr {
				require.Error(t, errUser)
				require.Error(t, errApp)
				assert.True(t, dErrors.HasCode(errApp, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, errUser)
				require.NoError(t, errApp)
			}
		})
	}
}

func TestNewApplicationID(t *testing.T) {
	a, b := NewApplicationID(), NewApplicationID()
	assert.False(t, a.IsNil())
	assert.NotEqual(t, a, b)
}
