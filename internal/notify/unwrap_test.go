package notify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/typedbus/internal/hostbus"
)

type reading struct {
	Sensor string  `json:"sensor"`
	Value  float64 `json:"value"`
}

type named struct{ name string }

func (n named) String() string { return n.name }

func TestAdmitsAbsence(t *testing.T) {
	assert.True(t, admitsAbsence[*reading]())
	assert.True(t, admitsAbsence[any]())
	assert.True(t, admitsAbsence[error]())
	assert.True(t, admitsAbsence[[]int]())
	assert.True(t, admitsAbsence[map[string]int]())
	assert.True(t, admitsAbsence[func()]())
	assert.True(t, admitsAbsence[chan int]())

	assert.False(t, admitsAbsence[int]())
	assert.False(t, admitsAbsence[string]())
	assert.False(t, admitsAbsence[reading]())
}

func TestUnwrap(t *testing.T) {
	t.Run("Direct value", func(t *testing.T) {
		v, err := unwrap[int]("n", 5)
		require.NoError(t, err)
		assert.Equal(t, 5, v)
	})

	t.Run("Struct value with unexported fields", func(t *testing.T) {
		v, err := unwrap[named]("n", named{name: "ada"})
		require.NoError(t, err)
		assert.Equal(t, "ada", v.name)
	})

	t.Run("Pointer keeps its identity", func(t *testing.T) {
		r := &reading{Sensor: "t2"}
		v, err := unwrap[*reading]("r", r)
		require.NoError(t, err)
		assert.Same(t, r, v)
	})

	t.Run("Interface channels take any implementation", func(t *testing.T) {
		v, err := unwrap[any]("a", 42)
		require.NoError(t, err)
		assert.Equal(t, 42, v)

		s, err := unwrap[fmt.Stringer]("s", named{name: "ada"})
		require.NoError(t, err)
		assert.Equal(t, "ada", s.String())

		_, err = unwrap[fmt.Stringer]("s", reading{})
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("Absent values", func(t *testing.T) {
		for _, obj := range []any{nil, hostbus.Null, (*reading)(nil)} {
			v, err := unwrap[*reading]("r", obj)
			require.NoError(t, err)
			assert.Nil(t, v)

			_, err = unwrap[reading]("r", obj)
			assert.ErrorIs(t, err, ErrAbsentPayload)
		}
	})

	t.Run("Wrong dynamic type", func(t *testing.T) {
		_, err := unwrap[string]("s", 3)
		assert.EqualError(t, err, "channel s: type mismatch, want string, got int")
	})
}

func TestNormalize(t *testing.T) {
	var nilSlice []int
	assert.Nil(t, normalize(nil))
	assert.Nil(t, normalize(hostbus.Null))
	assert.Nil(t, normalize(nilSlice))
	assert.Equal(t, 0, normalize(0))
}
