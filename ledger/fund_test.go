package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-neurax/inter"
)

func TestFundDraw(t *testing.T) {
	f := NewFund("staking", d("10"))

	got, err := f.Draw(d("4"))
	require.NoError(t, err)
	assert.Equal(t, "4", got.String())

	got, err = f.Draw(d("100"))
	require.NoError(t, err)
	assert.Equal(t, "6", got.String(), "draw saturates at the pool balance")
	assert.True(t, f.Balance().IsZero())
	assert.Equal(t, "10", f.Paid().String())

	_, err = f.Draw(d("1"))
	assert.True(t, inter.IsKind(err, inter.KindCapacity))

	got, err = f.Draw(d("0"))
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	f.Refund(d("3"))
	assert.Equal(t, "3", f.Balance().String())
	assert.Equal(t, "7", f.Paid().String())
}

func TestFundTake(t *testing.T) {
	f := NewFund("governance", d("5"))
	assert.True(t, inter.IsKind(f.Take(d("6")), inter.KindCapacity))
	require.NoError(t, f.Take(d("5")))
	assert.True(t, f.Balance().IsZero())
	assert.Equal(t, "governance", f.Name())
}
