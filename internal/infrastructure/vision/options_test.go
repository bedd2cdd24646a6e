package vision

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassColor(t *testing.T) {
	require.Equal(t, color.RGBA{B: 255, A: 255}, ClassColor("Hairnet"))
	require.Equal(t, color.RGBA{R: 165, G: 42, B: 42, A: 255}, ClassColor("gloves"))
	require.Equal(t, defaultBoxColor, ClassColor("person"))
}

func TestParseClasses(t *testing.T) {
	require.Equal(t, []string{"hairnet", "full-body suit", "person"}, ParseClasses(" Hairnet, Full-Body Suit ,,person"))
	require.Nil(t, ParseClasses(""))
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	require.Equal(t, DefaultClasses(), o.Classes)
	require.Equal(t, 0.5, o.Confidence)
	require.Equal(t, 640, o.InputSize)
}
