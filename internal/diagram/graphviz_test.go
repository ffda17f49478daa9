package diagram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

func TestRenderImagePNG(t *testing.T) {
	png, err := RenderImage(context.Background(), Build("Support agent", built(nil)), ImagePNG)
	require.NoError(t, err)

	// PNG magic bytes: 0x89 P N G.
	require.True(t, len(png) > 8, "PNG should be larger than header")
	assert.Equal(t, byte(0x89), png[0])
	assert.Equal(t, byte('P'), png[1])
	assert.Equal(t, byte('N'), png[2])
	assert.Equal(t, byte('G'), png[3])
}

func TestRenderImageSVG(t *testing.T) {
	svg, err := RenderImage(context.Background(), Build("Support agent", built(nil)), ImageSVG)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), "Project node")
}

func TestRenderImageCollapsed(t *testing.T) {
	out, err := RenderImage(context.Background(), Build("", built(map[string]bool{"9": true})), ImageDOT)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "cluster_9")
}

func TestRenderImageUnknownFormat(t *testing.T) {
	_, err := RenderImage(context.Background(), Build("", built(nil)), "bmp")
	var te *schema.TraceError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, schema.ErrCodeValidation, te.Code)
}
