package api

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{500, "500 bytes"},
		{1024 * 2, "2.00 KB"},
		{1024 * 1024 * 3, "3.00 MB"},
		{1024 * 1024 * 1024 * 4, "4.00 GB"},
		{1024 * 1024 * 1024 * 1024 * 5, "5.00 TB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatBytes(tt.bytes))
		})
	}
}

func TestMaxSizeReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		maxSize int64
		wantErr bool
	}{
		{name: "under limit", input: "hello", maxSize: 10},
		{name: "exactly limit", input: "hello", maxSize: 5},
		{name: "over limit", input: "hello world", maxSize: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := newMaxSizeReader(io.NopCloser(bytes.NewBufferString(tt.input)), tt.maxSize)
			data, err := io.ReadAll(reader)
			if tt.wantErr {
				var reach *ReachLimitError
				require.ErrorAs(t, err, &reach)
				assert.Equal(t, "reach limit of 5 bytes", err.Error())
				assert.Len(t, data, int(tt.maxSize))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, string(data))
		})
	}
}

func TestBodyLimit(t *testing.T) {
	env := setupTest(t, func(c *ServerConfig) {
		c.MaxBodyBytes = 64
	})

	body := `{"title":"Lamp","description":"` + strings.Repeat("x", 100) + `"}`
	w := env.do(t, http.MethodPost, "/auctions", env.token(t, "seller"), body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "reach limit of 64 bytes", decodeMessage(t, w))

	w = env.do(t, http.MethodPost, "/auctions", env.token(t, "seller"), `{"title":"Lamp"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}
