package voucher

// VoucherItem is one printable voucher card: a PIN annotated with the
// network and denomination of the batch it came from.
type VoucherItem struct {
	PinCode      string
	SerialNumber string
	Network      Network
	Denomination int64
	BatchID      string
}

// FormattedPin returns the PIN in readable groups
func (v VoucherItem) FormattedPin() string {
	return FormatPin(v.PinCode)
}

// DialInstruction returns the network's USSD string for this PIN
func (v VoucherItem) DialInstruction() string {
	return v.Network.DialInstruction(v.PinCode)
}

// newItem decorates a pin with its batch attributes. Batch values win;
// the pin's own values are only used when the batch does not carry them.
func newItem(p PinRecord, b PrintBatch) VoucherItem {
	network := b.Network
	if network == "" {
		network = p.Network
	}
	return VoucherItem{
		PinCode:      p.PinCode,
		SerialNumber: p.SerialNumber,
		Network:      network,
		Denomination: denominationOf(p, b),
		BatchID:      b.ID,
	}
}
