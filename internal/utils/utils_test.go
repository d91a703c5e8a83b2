package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-testboard-client/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPtr(t *testing.T) {
	p := utils.Ptr("done")
	require.Equal(t, "done", *p)
}

func TestStrings(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{name: "nil", input: nil, want: nil},
		{name: "space separated", input: "admin  reader", want: []string{"admin", "reader"}},
		{name: "string slice", input: []string{"admin"}, want: []string{"admin"}},
		{name: "mixed slice", input: []any{"admin", 3, "reader"}, want: []string{"admin", "reader"}},
		{name: "number", input: 42, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, utils.Strings(tt.input))
		})
	}
}
