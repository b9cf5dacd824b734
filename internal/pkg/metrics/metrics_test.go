package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveDigestRun(t *testing.T) {
	before := testutil.ToFloat64(digestRunsTotal.WithLabelValues("sent"))
	emails := testutil.ToFloat64(digestEmailsTotal)

	ObserveDigestRun("sent", 3, time.Unix(1700000000, 0))
	ObserveDigestRun("no_items", 0, time.Now())

	require.Equal(t, before+1, testutil.ToFloat64(digestRunsTotal.WithLabelValues("sent")))
	require.Equal(t, emails+3, testutil.ToFloat64(digestEmailsTotal))
	require.Equal(t, float64(1700000000), testutil.ToFloat64(digestLastSuccess))
}

func TestObserveCheckoutEmail(t *testing.T) {
	ok := testutil.ToFloat64(checkoutEmailsTotal.WithLabelValues("subscribe", "ok"))
	ObserveCheckoutEmail("subscribe", nil)
	ObserveCheckoutEmail("subscribe", errors.New("x"))
	require.Equal(t, ok+1, testutil.ToFloat64(checkoutEmailsTotal.WithLabelValues("subscribe", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(checkoutEmailsTotal.WithLabelValues("subscribe", "error")))
}
