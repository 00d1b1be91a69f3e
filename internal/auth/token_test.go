// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer(testSecret, 0)

	token, exp, err := ti.Issue("profile-1", "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), exp, time.Minute)

	claims, err := ti.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "profile-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenRejected(t *testing.T) {
	ti := NewTokenIssuer(testSecret, time.Hour)
	token, _, err := ti.Issue("profile-1", "user")
	require.NoError(t, err)

	other := NewTokenIssuer("another-secret-another-secret-xx", time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	expired := NewTokenIssuer(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	_, err = ti.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsNoneAlgorithm(t *testing.T) {
	ti := NewTokenIssuer(testSecret, time.Hour)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "attacker",
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ti.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
