package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		want    Environment
		wantErr bool
	}{
		{value: "", want: Production},
		{value: "production", want: Production},
		{value: "prod", want: Production},
		{value: "development", want: Development},
		{value: " Development ", want: Development},
		{value: "dev", want: Development},
		{value: "test", want: Test},
		{value: "TEST", want: Test},
		{value: "staging", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEnvironment(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvironment_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "development", Development.String())
	assert.Equal(t, "production", Production.String())
	assert.Equal(t, "test", Test.String())
	assert.True(t, Development.IsDevelopment())
	assert.False(t, Test.IsDevelopment())
	assert.False(t, Production.IsDevelopment())
}
