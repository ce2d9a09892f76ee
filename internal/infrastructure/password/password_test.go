package password

import (
	"strings"
	"testing"

	pkgerrors "github.com/honeynil/ecommerce-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	t.Run("HashNeverEqualsPlaintext", func(t *testing.T) {
		hash, err := h.Hash("Secret123!")
		require.NoError(t, err)
		assert.NotEqual(t, "Secret123!", hash)

		other, err := h.Hash("Secret123!")
		require.NoError(t, err)
		assert.NotEqual(t, hash, other, "hashes must be salted")
	})

	t.Run("CheckMatch", func(t *testing.T) {
		hash, err := h.Hash("Secret123!")
		require.NoError(t, err)

		ok, err := h.Check(hash, "Secret123!")
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("CheckMismatch", func(t *testing.T) {
		hash, err := h.Hash("Secret123!")
		require.NoError(t, err)

		ok, err := h.Check(hash, "wrong")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("CheckCorruptedHash", func(t *testing.T) {
		ok, err := h.Check("not-a-bcrypt-hash", "Secret123!")
		assert.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("InvalidCostFallsBackToDefault", func(t *testing.T) {
		assert.Equal(t, bcrypt.DefaultCost, NewHasher(100).cost)
	})
}

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy(8)
	user := UserAttributes{Email: "john.doe@example.com", FirstName: "John", LastName: "Doe"}

	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{name: "Valid", password: "Secret123!"},
		{name: "TooShort", password: "Ab1!", wantMsg: "too short"},
		{name: "Numeric", password: "8675309123", wantMsg: "entirely numeric"},
		{name: "Common", password: "Password123", wantMsg: "too common"},
		{name: "SimilarToEmail", password: "john.doe1", wantMsg: "too similar"},
		{name: "TooLong", password: strings.Repeat("xY7!", 20), wantMsg: "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Validate(tt.password, user)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, pkgerrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestNotSimilar_EmailLocalPart(t *testing.T) {
	v := NotSimilar(0.7)
	user := UserAttributes{Email: "john.doe@example.com"}

	err := v.Validate("john.doe1", user)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")

	assert.GreaterOrEqual(t, similarity("john.doe1", "john.doe"), 0.7)
	assert.NoError(t, v.Validate("Secret123!", user))
}

func TestPolicy_ReportsAllFailures(t *testing.T) {
	err := DefaultPolicy(8).Validate("123", UserAttributes{})
	require.Error(t, err)

	var verr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields["password"], 2)
}

func TestPolicy_Pluggable(t *testing.T) {
	noX := ValidatorFunc(func(password string, _ UserAttributes) error {
		if strings.Contains(password, "x") {
			return assert.AnError
		}
		return nil
	})
	policy := NewPolicy(noX)

	assert.NoError(t, policy.Validate("abc", UserAttributes{}))
	assert.ErrorIs(t, policy.Validate("xyz", UserAttributes{}), pkgerrors.ErrValidation)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("abc", "abc"))
	assert.Equal(t, 0.0, similarity("abc", "xyz"))
	assert.Equal(t, 0.0, similarity("", ""))
	assert.InDelta(t, 0.6, similarity("abcd", "abcxyz"), 0.001)
}
