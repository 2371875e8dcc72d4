package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListAdd(t *testing.T) {
	t.Run("appends new values", func(t *testing.T) {
		var l StringList
		l.Add("Action", "Comedy")
		assert.Equal(t, StringList{"Action", "Comedy"}, l)
	})

	t.Run("skips duplicates", func(t *testing.T) {
		l := StringList{"Action"}
		l.Add("Action", "Drama")
		assert.Equal(t, StringList{"Action", "Drama"}, l)
	})

	t.Run("skips empty strings", func(t *testing.T) {
		var l StringList
		l.Add("", "Action", "")
		assert.Equal(t, StringList{"Action"}, l)
	})
}

func TestStringListContains(t *testing.T) {
	l := StringList{"Action", "Comedy"}
	assert.True(t, l.Contains("Action"))
	assert.False(t, l.Contains("Drama"))
}

func TestStringListValueScan(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		original := StringList{"Action", "Sci-Fi"}
		value, err := original.Value()
		require.NoError(t, err)

		var restored StringList
		require.NoError(t, restored.Scan(value))
		assert.Equal(t, original, restored)
	})

	t.Run("nil value scans to empty", func(t *testing.T) {
		var l StringList
		require.NoError(t, l.Scan(nil))
		assert.Empty(t, l)
	})

	t.Run("empty list produces scannable value", func(t *testing.T) {
		var empty StringList
		value, err := empty.Value()
		require.NoError(t, err)

		var restored StringList
		require.NoError(t, restored.Scan(value))
		assert.Empty(t, restored)
	})
}
