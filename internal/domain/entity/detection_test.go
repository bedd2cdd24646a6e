package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingBoxCenter(t *testing.T) {
	b := BoundingBox{X1: 10, Y1: 20, X2: 18, Y2: 26}
	x, y := b.Center()
	require.Equal(t, 14, x)
	require.Equal(t, 23, y)
	require.Equal(t, 8, b.Width())
	require.Equal(t, 6, b.Height())
}

func TestDetectionResult_Labels(t *testing.T) {
	r := &DetectionResult{Detections: []Detection{
		{Label: "Gloves"},
		{Label: " hairnet "},
		{Label: "gloves"},
		{Label: ""},
		{Label: "Full-Body Suit"},
	}}
	require.Equal(t, []string{"gloves", "hairnet", "full-body suit"}, r.Labels())
}

func TestDetectionResult_LabelsNil(t *testing.T) {
	var r *DetectionResult
	require.Nil(t, r.Labels())
}
