package hal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	require.Equal(t, 2, NumInputs)
	require.Equal(t, 4, NumOutputs)
	require.Len(t, Outputs, NumOutputs)
	for n, line := range Outputs {
		require.True(t, line.IsOutput(), line.String())
		require.False(t, line.IsInput(), line.String())
		require.Equal(t, n, line.OutputIndex())
		parsed, ok := LineFromName(line.String())
		require.True(t, ok)
		require.Equal(t, line, parsed)
	}
	for _, line := range []Line{LineDTR, LineTxReq} {
		require.True(t, line.IsInput(), line.String())
		require.False(t, line.IsOutput(), line.String())
	}
	_, ok := LineFromName("MISO")
	require.False(t, ok)
	require.Equal(t, "LINE?", Line(42).String())
}

func TestLevel(t *testing.T) {
	require.Equal(t, High, Low.Invert())
	require.Equal(t, Low, High.Invert())
	require.Equal(t, High, LevelFromInt(1))
	require.Equal(t, Low, LevelFromInt(0))
	require.Equal(t, 1, High.Int())
	require.Equal(t, "LOW", Low.String())
}

func TestMarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Line  Line
		Level Level
	}{LineSync, High})
	require.NoError(t, err)
	require.Equal(t, `{"Line":"SYNC","Level":"HIGH"}`, string(out))
}
