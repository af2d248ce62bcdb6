package voucher

// SelectionSet tracks which batches the user picked for a print run.
// Insertion order is kept but Flatten orders output by the fetched batch list.
type SelectionSet struct {
	ids   []string
	index map[string]struct{}
}

// NewSelectionSet creates an empty selection
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{index: make(map[string]struct{})}
}

// Select adds the batch when it is printable. Selecting an ineligible batch
// is a no-op and returns false.
func (s *SelectionSet) Select(b PrintBatch) bool {
	if !b.IsPrintable() {
		return false
	}
	if _, ok := s.index[b.ID]; ok {
		return true
	}
	s.index[b.ID] = struct{}{}
	s.ids = append(s.ids, b.ID)
	return true
}

// Deselect removes the batch from the selection
func (s *SelectionSet) Deselect(id string) {
	if _, ok := s.index[id]; !ok {
		return
	}
	delete(s.index, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
}

// Toggle flips the selection state of the batch and reports whether it is selected afterwards
func (s *SelectionSet) Toggle(b PrintBatch) bool {
	if s.Contains(b.ID) {
		s.Deselect(b.ID)
		return false
	}
	return s.Select(b)
}

// SelectAllPrintable selects every printable batch and returns how many were added
func (s *SelectionSet) SelectAllPrintable(batches []PrintBatch) int {
	added := 0
	for _, b := range batches {
		if s.Contains(b.ID) {
			continue
		}
		if s.Select(b) {
			added++
		}
	}
	return added
}

// Contains reports whether the batch id is selected
func (s *SelectionSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// IDs returns the selected batch ids in selection order
func (s *SelectionSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of selected batches
func (s *SelectionSet) Len() int {
	return len(s.ids)
}

// IsEmpty returns true if nothing is selected
func (s *SelectionSet) IsEmpty() bool {
	return len(s.ids) == 0
}

// Clear drops the whole selection
func (s *SelectionSet) Clear() {
	s.ids = nil
	s.index = make(map[string]struct{})
}

// SelectionFromIDs builds a selection from requested ids against the fetched
// batches. Unknown or ineligible ids are reported back and left out.
func SelectionFromIDs(ids []string, batches []PrintBatch) (*SelectionSet, []string) {
	byID := make(map[string]PrintBatch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}

	sel := NewSelectionSet()
	var rejected []string
	for _, id := range ids {
		b, ok := byID[id]
		if !ok || !sel.Select(b) {
			rejected = append(rejected, id)
		}
	}
	return sel, rejected
}
