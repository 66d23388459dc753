package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type player struct {
	Stats   map[string]int
	Name    string
	Items   []string
	Friends []player
	Score   int
}

func roundTrip[T any](t *testing.T, c Codec[T], v T) T {
	t.Helper()
	data, err := c.Encode(v)
	require.NoError(t, err)
	got, err := c.Decode(data)
	require.NoError(t, err)
	return got
}

func TestJSON_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value player
	}{
		{name: "empty collections", value: player{Name: "a", Items: []string{}, Stats: map[string]int{}}},
		{name: "nested", value: player{
			Name:    "root",
			Score:   3,
			Items:   []string{"sword"},
			Stats:   map[string]int{"hp": 10},
			Friends: []player{{Name: "child", Items: []string{"shield"}, Stats: map[string]int{"hp": 1}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.value, roundTrip[player](t, JSON[player]{}, tt.value))
		})
	}
}

func TestGob_RoundTrip(t *testing.T) {
	v := map[string][]int{"a": {1, 2}, "b": {3}}
	assert.Equal(t, v, roundTrip[map[string][]int](t, Gob[map[string][]int]{}, v))
}

func TestFor_PicksCodec(t *testing.T) {
	assert.IsType(t, Bytes{}, For[[]byte]())
	assert.IsType(t, String{}, For[string]())
	assert.IsType(t, JSON[int]{}, For[int]())

	assert.Equal(t, []byte{}, roundTrip(t, For[[]byte](), []byte{}))
	assert.Equal(t, "", roundTrip(t, For[string](), ""))
	assert.Equal(t, 12, roundTrip(t, For[int](), 12))
}

func TestJSON_DecodeError(t *testing.T) {
	_, err := JSON[int]{}.Decode([]byte(`"text"`))
	assert.Error(t, err)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "int", TypeName[int]())
	assert.Equal(t, "[]string", TypeName[[]string]())
	assert.Equal(t, "codec.player", TypeName[player]())
}
