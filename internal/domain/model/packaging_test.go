package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackaging_ToBin(t *testing.T) {
	p := Packaging{ID: 7, Width: 2.5, Height: 3, Length: 1, MaxWeight: 20}

	bin := p.ToBin()

	assert.Equal(t, "7", bin.ID)
	assert.Equal(t, 2.5, bin.W)
	assert.Equal(t, 3.0, bin.H)
	assert.Equal(t, 1.0, bin.D)
	assert.Equal(t, 20.0, bin.MaxWg)
	assert.Equal(t, 1, bin.Q)
	assert.Equal(t, BinType, bin.Type)
	assert.InDelta(t, 7.5, bin.Volume(), 1e-9)
}

func TestBin_JSONFieldOrder(t *testing.T) {
	bin := Bin{ID: "1", H: 3, W: 2.5, D: 1, MaxWg: 20, Q: 1, Type: BinType}

	data, err := json.Marshal(bin)
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":"1","h":3,"w":2.5,"d":1,"max_wg":20,"q":1,"type":"box"}`, string(data))
	assert.Equal(t, `{"id":"1","h":3,"w":2.5,"d":1,"max_wg":20,"q":1,"type":"box"}`, string(data))
}

func TestBinsFromPackagings(t *testing.T) {
	bins := BinsFromPackagings([]Packaging{
		{ID: 2, Width: 4, Height: 4, Length: 4, MaxWeight: 20},
		{ID: 1, Width: 9, Height: 9, Length: 9, MaxWeight: 30},
	})

	require.Len(t, bins, 2)
	assert.Equal(t, "2", bins[0].ID)
	assert.Equal(t, "1", bins[1].ID)
	assert.Empty(t, BinsFromPackagings(nil))
}

func TestNormalizedItem_Totals(t *testing.T) {
	item := NormalizedItem{ID: "Item1", W: 2, H: 3, D: 4, Q: 2, Wg: 5, Vr: 1}

	assert.Equal(t, 48, item.Volume())
	assert.Equal(t, 10, item.Weight())
}
