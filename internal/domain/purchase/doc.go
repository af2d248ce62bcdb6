// Package purchase contains the step-wizard engine shared by the data,
// airtime, electricity and cable purchase flows. A flow is a linear state
// machine whose forward transitions are gated by field guards; external
// verification and payment calls are made by the application layer, which
// only advances a session after the call succeeds.
package purchase
