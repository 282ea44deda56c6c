package service

import (
	"slices"

	"github.com/guttosm/packing-service/internal/domain/model"
)

// orientations lists the six axis permutations an item may be rotated into.
// Each entry maps bin axes (w, h, d) to the item axis placed along them.
var orientations = [6][3]int{
	{0, 1, 2},
	{0, 2, 1},
	{1, 0, 2},
	{1, 2, 0},
	{2, 0, 1},
	{2, 1, 0},
}

// PackagingCalculator picks a single bin for a set of items without calling out.
type PackagingCalculator interface {
	CalculateOptimalBin(bins []model.Bin, items []model.NormalizedItem) (model.BinData, bool, error)
}

// LocalCalculator chooses the smallest bin, by volume, that satisfies three
// necessary conditions: total volume, total weight, and every item fitting on
// its own under some rotation. It does not check that all items fit at once,
// so a chosen bin can still be too small for awkward combinations.
type LocalCalculator struct{}

// NewLocalCalculator creates a LocalCalculator.
func NewLocalCalculator() *LocalCalculator {
	return &LocalCalculator{}
}

// CalculateOptimalBin returns the id of the smallest qualifying bin.
// The bool is false when no bin qualifies. Ties keep catalog order.
func (c *LocalCalculator) CalculateOptimalBin(bins []model.Bin, items []model.NormalizedItem) (model.BinData, bool, error) {
	if len(bins) == 0 || len(items) == 0 {
		return model.BinData{}, false, ErrInvalidParameter
	}

	var totalVolume, totalWeight float64
	for _, item := range items {
		totalVolume += float64(item.Volume())
		totalWeight += float64(item.Weight())
	}

	sorted := make([]model.Bin, len(bins))
	copy(sorted, bins)
	slices.SortStableFunc(sorted, func(a, b model.Bin) int {
		switch va, vb := a.Volume(), b.Volume(); {
		case va < vb:
			return -1
		case va > vb:
			return 1
		default:
			return 0
		}
	})

	for _, bin := range sorted {
		if bin.Volume() < totalVolume || bin.MaxWg < totalWeight {
			continue
		}
		if allItemsFit(bin, items) {
			return model.BinData{ID: bin.ID}, true, nil
		}
	}

	return model.BinData{}, false, nil
}

func allItemsFit(bin model.Bin, items []model.NormalizedItem) bool {
	for _, item := range items {
		if !itemFits(bin, item) {
			return false
		}
	}
	return true
}

func itemFits(bin model.Bin, item model.NormalizedItem) bool {
	dims := [3]float64{float64(item.W), float64(item.H), float64(item.D)}
	for _, o := range orientations {
		if dims[o[0]] <= bin.W && dims[o[1]] <= bin.H && dims[o[2]] <= bin.D {
			return true
		}
	}
	return false
}
