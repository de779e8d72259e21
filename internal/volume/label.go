package volume

// neighbors26 lists the 26 face, edge and corner offsets of a voxel, in
// ascending (dz, dy, dx) order.
var neighbors26 = func() [26][3]int {
	var offs [26][3]int
	i := 0
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				offs[i] = [3]int{dx, dy, dz}
				i++
			}
		}
	}
	return offs
}()

// Label segments the binary mask into 26-connected components. Full
// connectivity (face+edge+corner) is used because the objects of interest
// are compact blobs; 6-connectivity would split single objects that touch
// only diagonally across slices.
//
// Components are discovered in a fixed scan order (ascending z, then y,
// then x) and numbered 1..N in that order, so labeling is reproducible
// across runs. Label 0 is background.
func Label(b *BinaryVolume) *LabeledVolume {
	lv := &LabeledVolume{
		NX:     b.NX,
		NY:     b.NY,
		NZ:     b.NZ,
		Labels: make([]int32, len(b.Mask)),
	}

	var next int32
	queue := make([]int, 0, 1024)

	for z := 0; z < b.NZ; z++ {
		for y := 0; y < b.NY; y++ {
			for x := 0; x < b.NX; x++ {
				idx := (z*b.NY+y)*b.NX + x
				if b.Mask[idx] == 0 || lv.Labels[idx] != 0 {
					continue
				}

				// BFS flood fill from this seed voxel.
				next++
				lv.Labels[idx] = next
				queue = queue[:0]
				queue = append(queue, idx)

				for len(queue) > 0 {
					curr := queue[0]
					queue = queue[1:]

					cz := curr / (b.NX * b.NY)
					rem := curr % (b.NX * b.NY)
					cy := rem / b.NX
					cx := rem % b.NX

					for _, off := range neighbors26 {
						nx := cx + off[0]
						ny := cy + off[1]
						nz := cz + off[2]
						if nx < 0 || nx >= b.NX || ny < 0 || ny >= b.NY || nz < 0 || nz >= b.NZ {
							continue
						}
						ni := (nz*b.NY+ny)*b.NX + nx
						if b.Mask[ni] != 0 && lv.Labels[ni] == 0 {
							lv.Labels[ni] = next
							queue = append(queue, ni)
						}
					}
				}
			}
		}
	}

	lv.NumLabels = int(next)
	return lv
}
