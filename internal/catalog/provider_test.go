/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPlaylistURLCatalogPreview(t *testing.T) {
	source, id, err := classifyPlaylistURL("https://catalog-preview.example/playlist/abc123")
	require.NoError(t, err)
	assert.Equal(t, "catalog-preview", source)
	assert.Equal(t, "abc123", id)
}

func TestClassifyPlaylistURLVideoSite(t *testing.T) {
	source, id, err := classifyPlaylistURL("https://video-site.example/playlist?list=xyz789")
	require.NoError(t, err)
	assert.Equal(t, "video-site", source)
	assert.Equal(t, "xyz789", id)
}

func TestClassifyPlaylistURLUnrecognizedHost(t *testing.T) {
	_, _, err := classifyPlaylistURL("https://example.com/playlist/abc")
	require.Error(t, err)
}

func TestClassifyPlaylistURLMalformed(t *testing.T) {
	_, _, err := classifyPlaylistURL("not a url at all")
	require.Error(t, err)
}
