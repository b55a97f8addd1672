package postgres

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
)

func TestParseAmount(t *testing.T) {
	v, err := parseAmount("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), v)

	_, err = parseAmount("18446744073709551616")
	assert.ErrorIs(t, err, gameerr.ErrOverflow)

	for _, bad := range []string{"12.5", "-1", "twelve"} {
		_, err = parseAmount(bad)
		assert.Error(t, err, bad)
		assert.NotErrorIs(t, err, gameerr.ErrOverflow, bad)
	}
}

// Property: amountParam and parseAmount agree on every uint64.
func TestPropertyAmountText(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Uint64().Draw(t, "v")
		s := amountParam(v)
		if s != strconv.FormatUint(v, 10) {
			t.Fatalf("amountParam(%d) = %q", v, s)
		}
		got, err := parseAmount(s)
		if err != nil || got != v {
			t.Fatalf("parseAmount(%q) = %d, %v", s, got, err)
		}
	})
}
