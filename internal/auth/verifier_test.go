/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyEmptyTokenFails(t *testing.T) {
	v := NewBearerVerifier(Config{})
	_, _, ok := v.Verify(context.Background(), "")
	assert.False(t, ok)
}

func TestVerifyWithoutIssuerIsDeterministicAnonymous(t *testing.T) {
	v := NewBearerVerifier(Config{})

	id1, _, ok1 := v.Verify(context.Background(), "local-token-abc")
	id2, _, ok2 := v.Verify(context.Background(), "local-token-abc")

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, id1, id2)
	assert.NotEmpty(t, id1)
}

func TestVerifyWithoutIssuerDiffersPerToken(t *testing.T) {
	v := NewBearerVerifier(Config{})

	id1, _, _ := v.Verify(context.Background(), "token-a")
	id2, _, _ := v.Verify(context.Background(), "token-b")

	assert.NotEqual(t, id1, id2)
}
