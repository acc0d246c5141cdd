package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokenIssued("view")
	c.RecordTokenIssued("view")
	c.RecordTokenIssued("editor")
	c.RecordCredentialFailure("pin")
	c.RecordAssetCleanup(true)
	c.RecordAssetCleanup(false)
	c.RecordAssetCleanup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.tokensIssued.WithLabelValues("view")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tokensIssued.WithLabelValues("editor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.credentialFailures.WithLabelValues("pin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.assetCleanups.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.assetCleanups.WithLabelValues("failed")))

	count, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 5, count)
}
