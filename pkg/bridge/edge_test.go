package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/siobridge/pkg/hal"
)

func TestDetectEdge(t *testing.T) {
	testCases := []struct {
		previous, current hal.Level
		expect            Edge
	}{
		{hal.High, hal.Low, FallingEdge},
		{hal.Low, hal.High, RisingEdge},
		{hal.High, hal.High, NoEdge},
		{hal.Low, hal.Low, NoEdge},
	}

	for _, tc := range testCases {
		t.Run(tc.previous.String()+"-"+tc.current.String(), func(t *testing.T) {
			require.Equal(t, tc.expect, DetectEdge(tc.previous, tc.current))
		})
	}
}
