package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel_PatternMatching(t *testing.T) {
	m := NewMockModel("fallback answer")
	m.AddResponse("sales", "GET_SALES")
	m.AddResponse("stock", "GET_STOCK")

	out, err := m.Generate(context.Background(), "Show me the SALES figures")
	require.NoError(t, err)
	assert.Equal(t, "GET_SALES", out)

	out, err = m.Generate(context.Background(), "nothing registered here")
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", out)

	calls := m.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "Show me the SALES figures", calls[0].Prompt)
}

func TestMockModel_FirstMatchWins(t *testing.T) {
	m := NewMockModel("fallback")
	m.AddResponse("stock", "first")
	m.AddResponse("stock of product", "second")

	out, err := m.Generate(context.Background(), "stock of product 2")
	require.NoError(t, err)
	assert.Equal(t, "first", out)
}

func TestMockModel_Fail(t *testing.T) {
	m := NewMockModel("fallback")
	m.Fail(errors.New("offline"))

	_, err := m.Generate(context.Background(), "anything")
	assert.Error(t, err)

	m.Fail(nil)
	out, err := m.Generate(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "fallback", out)
}
