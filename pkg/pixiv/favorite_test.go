package pixiv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteWorkIDUnmarshal(t *testing.T) {
	t.Run("reachable work carries a string id", func(t *testing.T) {
		var id FavoriteWorkID
		require.NoError(t, json.Unmarshal([]byte(`"123456"`), &id))
		assert.False(t, id.Unreachable())
		assert.Equal(t, uint64(123456), id.Uint64())
	})

	t.Run("hidden work carries a numeric sentinel", func(t *testing.T) {
		var id FavoriteWorkID
		require.NoError(t, json.Unmarshal([]byte(`123456`), &id))
		assert.True(t, id.Unreachable())
		assert.Equal(t, uint64(123456), id.Uint64())
	})

	t.Run("non-numeric string is rejected", func(t *testing.T) {
		var id FavoriteWorkID
		require.Error(t, json.Unmarshal([]byte(`"abc"`), &id))
	})
}

func TestFavoritePageUnmarshal(t *testing.T) {
	data := []byte(`{"total": 2, "works": [{"id": "111"}, {"id": 222}]}`)

	var page FavoritePage
	require.NoError(t, json.Unmarshal(data, &page))

	assert.Equal(t, uint64(2), page.Total)
	require.Len(t, page.Works, 2)
	assert.False(t, page.Works[0].ID.Unreachable())
	assert.True(t, page.Works[1].ID.Unreachable())
}
