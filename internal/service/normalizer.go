package service

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/guttosm/packing-service/internal/domain/model"
)

// ValidateProducts returns ErrInvalidParameter when products is empty or a
// measure is not a finite number in (0, model.MaxMeasure]. Out-of-range
// measures would not survive the integer rounding of NormalizeProducts.
func ValidateProducts(products []model.Product) error {
	if len(products) == 0 {
		return ErrInvalidParameter
	}
	for i, p := range products {
		for _, v := range [...]float64{p.Width, p.Height, p.Length, p.Weight} {
			if !model.ValidMeasure(v) {
				return fmt.Errorf("%w: product %d has measure %v outside (0, %d]", ErrInvalidParameter, i+1, v, model.MaxMeasure)
			}
		}
	}
	return nil
}

// NormalizeProducts converts products into canonical items: every measure is
// rounded up to an integer, items are sorted by (w, h, d, wg, q, vr) and ids
// are reassigned by position. Two requests carrying the same products in any
// order produce the same items. Callers check products with ValidateProducts
// first.
func NormalizeProducts(products []model.Product) []model.NormalizedItem {
	items := make([]model.NormalizedItem, 0, len(products))
	for i, p := range products {
		items = append(items, model.NormalizedItem{
			ID: itemID(i),
			W:  ceil(p.Width),
			H:  ceil(p.Height),
			D:  ceil(p.Length),
			Q:  1,
			Wg: ceil(p.Weight),
			Vr: 1,
		})
	}
	return CanonicalizeItems(items)
}

// CanonicalizeItems sorts a copy of items into canonical order and renumbers
// the ids. Applying it to its own output changes nothing.
func CanonicalizeItems(items []model.NormalizedItem) []model.NormalizedItem {
	sorted := make([]model.NormalizedItem, len(items))
	copy(sorted, items)

	slices.SortStableFunc(sorted, compareItems)
	for i := range sorted {
		sorted[i].ID = itemID(i)
	}
	return sorted
}

// RequestHash returns the hex SHA-256 of the canonical item list for products.
func RequestHash(products []model.Product) string {
	return HashItems(NormalizeProducts(products))
}

// HashItems returns the hex SHA-256 of the JSON encoding of items.
// Items are hashed as given; callers pass canonical items.
func HashItems(items []model.NormalizedItem) string {
	if items == nil {
		items = []model.NormalizedItem{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a slice of flat structs cannot fail.
	_ = enc.Encode(items)

	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:])
}

func compareItems(a, b model.NormalizedItem) int {
	return cmp.Or(
		cmp.Compare(a.W, b.W),
		cmp.Compare(a.H, b.H),
		cmp.Compare(a.D, b.D),
		cmp.Compare(a.Wg, b.Wg),
		cmp.Compare(a.Q, b.Q),
		cmp.Compare(a.Vr, b.Vr),
	)
}

func itemID(pos int) string {
	return "Item" + strconv.Itoa(pos+1)
}

func ceil(v float64) int {
	return int(math.Ceil(v))
}
