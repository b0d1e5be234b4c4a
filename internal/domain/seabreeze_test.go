package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeabreezeDays(t *testing.T) {
	csvData := `Date,Seabreeze,Notes
2020-06-01,y,classic
2020-06-02,n,
6/5/2020,Y,late onset
2020-06-07,,unreviewed
`
	days, err := LoadSeabreezeDays(strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 6, 5, 0, 0, 0, 0, time.UTC),
	}, days)
}

func TestLoadSeabreezeDays_ColumnOrderIndependent(t *testing.T) {
	csvData := `Seabreeze,Date
y,2020-07-04
`
	days, err := LoadSeabreezeDays(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, time.Date(2020, 7, 4, 0, 0, 0, 0, time.UTC), days[0])
}

func TestLoadSeabreezeDays_Errors(t *testing.T) {
	t.Run("missing columns", func(t *testing.T) {
		_, err := LoadSeabreezeDays(strings.NewReader("Day,Flag\n2020-06-01,y\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing Date or Seabreeze")
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := LoadSeabreezeDays(strings.NewReader("Date,Seabreeze\nJune first,y\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := LoadSeabreezeDays(strings.NewReader(""))
		require.Error(t, err)
	})
}
