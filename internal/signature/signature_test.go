package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalString(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		body      any
		timestamp int64
		want      string
	}{
		{
			name:      "string body kept verbatim",
			method:    "post",
			path:      "/v1/callback",
			body:      `{"a":1}`,
			timestamp: 1700000000,
			want:      "POST\n/v1/callback\n{\"a\":1}\n1700000000",
		},
		{
			name:      "nil body is null",
			method:    "PUT",
			path:      "/x",
			body:      nil,
			timestamp: 42,
			want:      "PUT\n/x\nnull\n42",
		},
		{
			name:      "map body is json encoded",
			method:    "PATCH",
			path:      "/y",
			body:      map[string]any{"k": "v"},
			timestamp: 7,
			want:      "PATCH\n/y\n{\"k\":\"v\"}\n7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalString(tt.method, tt.path, tt.body, tt.timestamp))
		})
	}
}

func TestSignAndVerify(t *testing.T) {
	canonical := CanonicalString("POST", "/v1/callback", `{"a":1}`, 1700000000)

	sig := Sign("secret", canonical)
	assert.Len(t, sig, 64)

	assert.True(t, Verify("secret", canonical, sig))
	assert.False(t, Verify("other", canonical, sig))
	assert.False(t, Verify("secret", canonical+"x", sig))
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	require.NoError(t, err)
	b, err := GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
