package pixiv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkSetUnmarshal(t *testing.T) {
	t.Run("object shape", func(t *testing.T) {
		var set WorkSet
		require.NoError(t, json.Unmarshal([]byte(`{"100": null, "200": {"id": "200"}}`), &set))
		assert.ElementsMatch(t, []uint64{100, 200}, set.IDs())
	})

	t.Run("empty array shape", func(t *testing.T) {
		var set WorkSet
		require.NoError(t, json.Unmarshal([]byte(`[]`), &set))
		assert.Empty(t, set.IDs())
	})

	t.Run("null", func(t *testing.T) {
		var set WorkSet
		require.NoError(t, json.Unmarshal([]byte(`null`), &set))
		assert.Empty(t, set.IDs())
	})
}

func TestUserProfileArtworkIDs(t *testing.T) {
	data := []byte(`{
		"illusts": {"10": null},
		"manga": {"20": null},
		"novels": {"30": null}
	}`)

	var profile UserProfile
	require.NoError(t, json.Unmarshal(data, &profile))

	ids := profile.ArtworkIDs()
	assert.ElementsMatch(t, []ArtworkID{
		IllustrationID(10),
		IllustrationID(20),
		TextID(30),
	}, ids)
}

func TestUserProfileEmptyFamilies(t *testing.T) {
	data := []byte(`{"illusts": [], "manga": [], "novels": []}`)

	var profile UserProfile
	require.NoError(t, json.Unmarshal(data, &profile))
	assert.Empty(t, profile.ArtworkIDs())
}
