package purchase

import (
	"strings"
	"time"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/google/uuid"
)

// Session is one user's progress through a purchase flow
type Session struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Kind      Kind      `json:"kind"`
	State     State     `json:"state"`
	Draft     Draft     `json:"draft"`
	Error     string    `json:"error,omitempty"`
	Receipt   *Receipt  `json:"receipt,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession starts a flow at the provider step
func NewSession(ownerID string, kind Kind) (*Session, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, ErrUnknownKind
	}

	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Kind:      kind,
		State:     StateSelectProvider,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SelectProvider records the provider choice. Changing provider drops any
// product picked for the previous one.
func (s *Session) SelectProvider(p Provider) error {
	if s.State != StateSelectProvider && s.State != StateEnterDetails {
		return shared.NewDomainError(shared.CodeInvalidState, "provider can only be changed before confirmation")
	}
	if s.Draft.Provider.Code != p.Code {
		s.Draft.ProductCode = ""
		s.Draft.ProductName = ""
		s.Draft.clearVerification()
	}
	s.Draft.Provider = p
	s.touch()
	return nil
}

// UpdateDetails applies a patch while the user is on the details step.
// Any change invalidates a previous verification.
func (s *Session) UpdateDetails(patch DetailsPatch) error {
	if s.State != StateEnterDetails {
		return shared.NewDomainError(shared.CodeInvalidState, "details can only be edited on the details step")
	}
	if patch.Phone != nil {
		normalized := NormalizePhone(*patch.Phone)
		patch.Phone = &normalized
	}
	if patch.apply(&s.Draft) {
		s.Draft.clearVerification()
	}
	s.Error = ""
	s.touch()
	return nil
}

// MarkVerified stores the customer name returned by provider verification
func (s *Session) MarkVerified(customerName string) error {
	if s.State != StateValidate {
		return shared.NewDomainError(shared.CodeInvalidState, "verification is only allowed on the validate step")
	}
	s.Draft.Verified = true
	s.Draft.CustomerName = customerName
	s.Error = ""
	s.touch()
	return nil
}

// RecordReceipt stores the result of a successful payment call
func (s *Session) RecordReceipt(r Receipt) error {
	if s.State != StateConfirm {
		return shared.NewDomainError(shared.CodeInvalidState, "payment is only allowed on the confirm step")
	}
	s.Receipt = &r
	s.touch()
	return nil
}

// RecordFailure keeps the current step and surfaces an inline error
func (s *Session) RecordFailure(message string) {
	s.fail(message)
}

// IsComplete returns true once payment succeeded
func (s *Session) IsComplete() bool {
	return s.State == StateSuccess
}

func (s *Session) enter(state State) {
	s.State = state
	s.Error = ""
	s.touch()
}

func (s *Session) fail(message string) {
	s.Error = message
	s.touch()
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
