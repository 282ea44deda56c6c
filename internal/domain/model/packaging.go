// Package model defines the core domain entities for the packing service.
package model

import "strconv"

// BinType is the only bin type sent to the packer API.
const BinType = "box"

// MaxMeasure bounds every product dimension and weight. Three maximal
// dimensions still multiply to a volume that fits in an int.
const MaxMeasure = 1_000_000

// ValidMeasure reports whether v is a finite number in (0, MaxMeasure].
func ValidMeasure(v float64) bool {
	return v > 0 && v <= MaxMeasure
}

// Packaging is a catalog box the service can choose from.
type Packaging struct {
	ID        int64   `json:"id" bson:"_id" db:"id"`
	Width     float64 `json:"width" bson:"width" db:"width"`
	Height    float64 `json:"height" bson:"height" db:"height"`
	Length    float64 `json:"length" bson:"length" db:"length"`
	MaxWeight float64 `json:"max_weight" bson:"max_weight" db:"max_weight"`
}

// Volume returns width * height * length.
func (p Packaging) Volume() float64 {
	return p.Width * p.Height * p.Length
}

// ToBin converts the packaging into the bin shape used by the packer API
// and the local calculator. Length maps to depth.
func (p Packaging) ToBin() Bin {
	return Bin{
		ID:    strconv.FormatInt(p.ID, 10),
		H:     p.Height,
		W:     p.Width,
		D:     p.Length,
		MaxWg: p.MaxWeight,
		Q:     1,
		Type:  BinType,
	}
}

// Bin is a candidate container. Field order matches the packer wire format.
type Bin struct {
	ID    string  `json:"id"`
	H     float64 `json:"h"`
	W     float64 `json:"w"`
	D     float64 `json:"d"`
	MaxWg float64 `json:"max_wg"`
	Q     int     `json:"q"`
	Type  string  `json:"type"`
}

// Volume returns w * h * d.
func (b Bin) Volume() float64 {
	return b.W * b.H * b.D
}

// BinsFromPackagings converts a catalog into bins, preserving order.
func BinsFromPackagings(packagings []Packaging) []Bin {
	bins := make([]Bin, 0, len(packagings))
	for _, p := range packagings {
		bins = append(bins, p.ToBin())
	}
	return bins
}

// Product is a single product as received from a caller.
type Product struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Length float64 `json:"length"`
	Weight float64 `json:"weight"`
}

// NormalizedItem is the canonical integer form of a product.
// The JSON key order (id, w, h, d, q, wg, vr) is part of the request hash.
type NormalizedItem struct {
	ID string `json:"id"`
	W  int    `json:"w"`
	H  int    `json:"h"`
	D  int    `json:"d"`
	Q  int    `json:"q"`
	Wg int    `json:"wg"`
	Vr int    `json:"vr"`
}

// Volume returns w * h * d * q.
func (i NormalizedItem) Volume() int {
	return i.W * i.H * i.D * i.Q
}

// Weight returns wg * q.
func (i NormalizedItem) Weight() int {
	return i.Wg * i.Q
}
