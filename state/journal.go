package state

// journal undo log of the running entry point, replayed backwards on revert
type journal struct {
	entries []func()
	// bumped by every snapshot so registries are cloned again after it
	epoch int
}

func (j *journal) append(undo func()) {
	j.entries = append(j.entries, undo)
}

func (j *journal) length() int {
	return len(j.entries)
}

func (j *journal) revert(id int) {
	for i := len(j.entries) - 1; i >= id; i-- {
		j.entries[i]()
	}

	j.entries = j.entries[:id]
}

func (j *journal) reset() {
	j.entries = nil
}
