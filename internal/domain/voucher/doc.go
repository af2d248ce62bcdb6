// Package voucher contains the recharge-PIN voucher context.
// It models issued PIN batches as read-only snapshots, tracks which batches
// the user selected for a print run and flattens that selection into the
// ordered list of voucher cards handed to the layout renderer.
package voucher
