package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seabright/wrf-wind-maps/internal/domain"
)

func TestSerializeManifest(t *testing.T) {
	generated := time.Date(2020, 9, 1, 12, 30, 0, 0, time.UTC)
	artifact := domain.Artifact{
		Path:         "/out/monthly_20200601-20200831/nj/nj_meanws_160m_monthly_20200601.png",
		Region:       "nj",
		Variable:     "meanws",
		HeightMeters: 160,
		BucketStart:  time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
		BucketEnd:    time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC),
		GeneratedAt:  generated,
	}

	msg, err := serializeManifest(artifact)
	require.NoError(t, err)

	assert.Equal(t, []byte("nj_meanws_160m_monthly_20200601.png"), msg.Key)
	assert.Contains(t, string(msg.Value), `"variable":"meanws"`)
	assert.Contains(t, string(msg.Value), `"height_meters":160`)

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "region", msg.Headers[0].Key)
	assert.Equal(t, []byte("nj"), msg.Headers[0].Value)
	assert.Equal(t, "variable", msg.Headers[1].Key)
	assert.Equal(t, []byte("meanws"), msg.Headers[1].Value)
	assert.Equal(t, "generated_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(generated.Format(time.RFC3339)), msg.Headers[2].Value)
}
