package state

import (
	"bytes"
	"hash/fnv"
	"slices"
)

// iconID hashes concatenated icon bytes to a stable non-zero 24-bit id,
// so identical icon sets share an id across restarts.
func iconID(set IconSet) uint32 {
	h := fnv.New32a()
	for _, img := range set.Images {
		h.Write(img)
	}
	for _, img := range set.ImagesDark {
		h.Write(img)
	}
	sum := h.Sum32()
	id := (sum >> 24) ^ (sum & 0xFFFFFF)
	if id == 0 {
		id = 1
	}
	return id
}

// internIconLocked stores an icon set once per content id. Caller holds
// the state lock.
func (s *State) internIconLocked(set IconSet) uint32 {
	id := iconID(set)
	if _, ok := s.icons[id]; !ok {
		s.icons[id] = &Icon{
			ID:         id,
			Images:     cloneImages(set.Images),
			ImagesDark: cloneImages(set.ImagesDark),
		}
	}
	return id
}

// Icon returns a snapshot of an icon by id.
func (s *State) Icon(id uint32) (Icon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	icon, ok := s.icons[id]
	if !ok {
		return Icon{}, false
	}
	return snapshotIcon(icon), true
}

// IconIDs returns all interned icon ids in ascending order.
func (s *State) IconIDs() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]uint32, 0, len(s.icons))
	for id := range s.icons {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func snapshotIcon(icon *Icon) Icon {
	return Icon{
		ID:         icon.ID,
		Images:     cloneImages(icon.Images),
		ImagesDark: cloneImages(icon.ImagesDark),
	}
}

func cloneImages(images [][]byte) [][]byte {
	out := make([][]byte, len(images))
	for i, img := range images {
		out[i] = bytes.Clone(img)
	}
	return out
}
