package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBinData(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected BinData
		ok       bool
	}{
		{name: "string id", raw: `{"id":"3"}`, expected: BinData{ID: "3"}, ok: true},
		{name: "integer id", raw: `{"id":42}`, expected: BinData{ID: "42"}, ok: true},
		{name: "extra fields", raw: `{"id":"5","w":4}`, expected: BinData{ID: "5"}, ok: true},
		{name: "missing id", raw: `{"w":4}`},
		{name: "empty string id", raw: `{"id":""}`},
		{name: "fractional id", raw: `{"id":1.5}`},
		{name: "boolean id", raw: `{"id":true}`},
		{name: "list", raw: `[{"id":"3"}]`},
		{name: "null", raw: `null`},
		{name: "scalar", raw: `"3"`},
		{name: "not json", raw: `{id:3`},
		{name: "empty", raw: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseBinData([]byte(tt.raw))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, !tt.ok, got.IsEmpty())
		})
	}
}
