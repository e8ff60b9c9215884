package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Uploads.WithLabelValues("ok").Inc()
	m.Uploads.WithLabelValues("ok").Inc()
	m.UploadBytes.Add(2048)
	m.Deletes.WithLabelValues("video").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Uploads.WithLabelValues("ok")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.UploadBytes))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["vault_uploads_total"])
	assert.True(t, names["vault_upload_bytes_total"])
	assert.True(t, names["vault_deletes_total"])
	assert.True(t, names["vault_caption_duration_seconds"])

	// A second registration on the same registry is a programming error.
	assert.Panics(t, func() { New(reg) })
}
