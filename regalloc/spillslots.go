package regalloc

// spillSlotBytes is the width of one spill slot (spec.md §6:
// "Slots are 8 bytes, packed"). Open question 1 is resolved by letting a
// vreg whose class reports a wider spillSize span multiple contiguous
// slots rather than rejecting it outright.
const spillSlotBytes = 8

// assignSpillSlots is Stage 3 (spec.md §4.3): first-fit over slot
// indices in source (vreg-index) order, re-using a slot as soon as its
// previous occupant's live range has ended.
func assignSpillSlots(infos []vregInfo, numSlots int) {
	busyUntilBefore := make([]int, numSlots)

	for v := range infos {
		info := &infos[v]
		if info.unused() {
			continue
		}

		need := (info.spillSize + spillSlotBytes - 1) / spillSlotBytes
		if need < 1 {
			need = 1
		}

		j := firstFitWindow(busyUntilBefore, need, info.liveAfter)
		if j < 0 {
			fail(OutOfSpillSlots, info.liveAfter, "no run of %d free spill slot(s) for v%d (have %d slots)", need, v, numSlots)
		}

		for k := j; k < j+need; k++ {
			busyUntilBefore[k] = info.deadBefore
		}
		info.spillOffset = j * spillSlotBytes
	}
}

// firstFitWindow returns the lowest slot index j such that slots
// [j, j+need) are all free at or before liveAfter, or -1 if no such
// window exists within the table.
func firstFitWindow(busyUntilBefore []int, need, liveAfter int) int {
	for j := 0; j+need <= len(busyUntilBefore); j++ {
		ok := true
		for k := j; k < j+need; k++ {
			if busyUntilBefore[k] > liveAfter {
				ok = false
				break
			}
		}
		if ok {
			return j
		}
	}
	return -1
}
