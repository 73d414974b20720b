package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIndustryDict(t *testing.T) {
	t.Parallel()

	weights, err := parseIndustryDict("# comment\n\n医美 5\n维权 3.5\n")
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"医美": 5, "维权": 3.5}, weights)
}

func TestParseIndustryDictRejectsMalformedLines(t *testing.T) {
	t.Parallel()

	for _, data := range []string{"医美\n", "医美 abc\n", "医美 0\n", "医美 5 extra\n"} {
		_, err := parseIndustryDict(data)
		require.Error(t, err, "input %q", data)
	}
}

func TestEmbeddedDictionariesParse(t *testing.T) {
	t.Parallel()

	weights, err := parseIndustryDict(industryDictData)
	require.NoError(t, err)
	require.Equal(t, 5.0, weights["医美"])
	require.Equal(t, 5.0, weights["维权"])
	require.Equal(t, 4.0, weights["退款"])

	stop := parseStopwords(stopwordData)
	require.True(t, stop["的"])
	require.True(t, stop["为什么"])
	require.False(t, stop["维权"])
}
