package encoding

import (
	"fmt"

	"craftbrowser.ai/internal/craft/item"
)

// EncodeGrid packs grid cells (nil = empty slot) into a palette and an RLE
// string. Palette id 0 is the empty slot; id i+1 is palette[i]. Palette
// order is first appearance in row-major order.
func EncodeGrid(cells []*item.Key) ([]item.Key, string) {
	var palette []item.Key
	index := map[item.Key]uint16{}
	ids := make([]uint16, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		id, ok := index[*c]
		if !ok {
			palette = append(palette, *c)
			id = uint16(len(palette))
			index[*c] = id
		}
		ids[i] = id
	}
	return palette, EncodeRLE(ids)
}

// DecodeGrid expands an encoded grid of side*side cells.
func DecodeGrid(palette []item.Key, grid string, side int) ([]*item.Key, error) {
	n := side * side
	ids, err := DecodeRLE(grid, n)
	if err != nil {
		return nil, err
	}
	if len(ids) != n {
		return nil, fmt.Errorf("grid has %d cells, want %d", len(ids), n)
	}
	cells := make([]*item.Key, n)
	for i, id := range ids {
		if id == 0 {
			continue
		}
		if int(id) > len(palette) {
			return nil, fmt.Errorf("cell %d: palette id %d out of range", i, id)
		}
		k := palette[id-1]
		cells[i] = &k
	}
	return cells, nil
}
