package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-neurax/inter"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveReceipt(&inter.Receipt{Tx: &inter.Transaction{Type: inter.TxTransfer}})
	m.ObserveReceipt(&inter.Receipt{Tx: &inter.Transaction{Type: inter.TxAIValidation}, FraudFlagged: true})
	m.ObserveRejection(inter.Errorf(inter.KindInsufficientFunds, "ledger.debit", "short"))
	m.ObserveRejection(errors.New("boom"))
	m.ObserveBlock(&inter.Block{Height: 4, Transactions: inter.Transactions{{}, {}}}, 3)
	m.SetPool("staking", decimal.RequireFromString("12.5"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxApplied.WithLabelValues("TRANSFER")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FraudFlags))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxRejected.WithLabelValues(inter.KindInsufficientFunds.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxRejected.WithLabelValues(inter.KindInternal.String())))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Height))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Pending))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.RewardPools.WithLabelValues("staking")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Blocks.Inc()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "neurax_chain_blocks_total 1"))
}
