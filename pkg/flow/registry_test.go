package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopParse(args []string, cur *int, px *Pipeline, fc *FilterConfig) error {
	fc.ID = args[*cur]
	*cur = len(args)
	return nil
}

func TestRegistryRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register("demo", noopParse))
	err := reg.Register("demo", noopParse)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("demo", noopParse))

	_, ok := reg.Lookup("demo")
	assert.True(t, ok)
	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistryParseUnknownKeyword(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Parse([]string{"missing"}, &Pipeline{ID: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown filter keyword")
}

func TestRegistryParseEmptyDeclaration(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Parse(nil, &Pipeline{ID: "p"})
	require.Error(t, err)
}

func TestRegistryParseRejectsTrailingTokens(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("demo", func(args []string, cur *int, px *Pipeline, fc *FilterConfig) error {
		*cur = 1
		return nil
	}))

	_, err := reg.Parse([]string{"demo", "leftover"}, &Pipeline{ID: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected token 'leftover'")
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		mode Mode
		ok   bool
	}{
		{"", ModeTCP, true},
		{"tcp", ModeTCP, true},
		{"message", ModeMessage, true},
		{"msg", ModeMessage, true},
		{"http", 0, false},
	}
	for _, tc := range cases {
		mode, ok := ParseMode(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if ok {
			assert.Equal(t, tc.mode, mode, tc.in)
		}
	}
}
