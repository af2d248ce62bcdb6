package voucher

// Flatten concatenates the pins of every selected batch into one ordered
// voucher list. Batches keep the order of the fetched list and pins keep
// their issue order, so the same selection always yields the same sequence.
// Batches that are not printable never contribute, even when selected.
func Flatten(sel *SelectionSet, batches []PrintBatch) []VoucherItem {
	if sel == nil || sel.IsEmpty() {
		return nil
	}

	total := 0
	for _, b := range batches {
		if sel.Contains(b.ID) && b.IsPrintable() {
			total += len(b.Pins)
		}
	}
	if total == 0 {
		return nil
	}

	items := make([]VoucherItem, 0, total)
	for _, b := range batches {
		if !sel.Contains(b.ID) || !b.IsPrintable() {
			continue
		}
		for _, p := range b.Pins {
			items = append(items, newItem(p, b))
		}
	}
	return items
}

// FlattenBatch turns a single batch into voucher items, used when printing
// one order straight from its detail view.
func FlattenBatch(b PrintBatch) []VoucherItem {
	if !b.IsPrintable() {
		return nil
	}
	items := make([]VoucherItem, 0, len(b.Pins))
	for _, p := range b.Pins {
		items = append(items, newItem(p, b))
	}
	return items
}

// Summary holds the header totals of a print run
type Summary struct {
	Batches    int
	Vouchers   int
	TotalValue int64
}

// Summarize computes the totals for an ordered voucher list
func Summarize(items []VoucherItem) Summary {
	seen := make(map[string]struct{})
	s := Summary{Vouchers: len(items)}
	for _, it := range items {
		s.TotalValue += it.Denomination
		if _, ok := seen[it.BatchID]; !ok {
			seen[it.BatchID] = struct{}{}
			s.Batches++
		}
	}
	return s
}
