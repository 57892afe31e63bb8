package models

import "time"

// PaymentMethod is how money was received
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodCheck    PaymentMethod = "CHECK"
	MethodTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCard     PaymentMethod = "CARD"
	MethodOnline   PaymentMethod = "ONLINE"
)

// Valid reports whether m is a known method
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCheck, MethodTransfer, MethodCard, MethodOnline:
		return true
	}
	return false
}

// PledgeStatus is the lifecycle state of a pledge
type PledgeStatus string

const (
	PledgeActive    PledgeStatus = "ACTIVE"
	PledgeFulfilled PledgeStatus = "FULFILLED"
	PledgeCancelled PledgeStatus = "CANCELLED"
)

// Valid reports whether s is a known status
func (s PledgeStatus) Valid() bool {
	switch s {
	case PledgeActive, PledgeFulfilled, PledgeCancelled:
		return true
	}
	return false
}

// Donation is a gift from a person or an anonymous donor
type Donation struct {
	ID        int64         `json:"id"`
	DonorID   *int64        `json:"donor_id,omitempty"`
	DonorName string        `json:"donor_name"`
	Amount    float64       `json:"amount"`
	Method    PaymentMethod `json:"method"`
	Purpose   string        `json:"purpose,omitempty"`
	Date      string        `json:"date"` // YYYY-MM-DD
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Offering is the collection taken during a service
type Offering struct {
	ID          int64         `json:"id"`
	ServiceDate string        `json:"service_date"`
	ServiceName string        `json:"service_name"`
	Amount      float64       `json:"amount"`
	Method      PaymentMethod `json:"method"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Pledge is a commitment to give a total amount over a period.
// AmountReceived and Balance are the authoritative all-time figures.
type Pledge struct {
	ID             int64        `json:"id"`
	PledgerID      *int64       `json:"pledger_id,omitempty"`
	PledgerName    string       `json:"pledger_name"`
	Title          string       `json:"title"`
	AmountPledged  float64      `json:"amount_pledged"`
	StartDate      string       `json:"start_date"`
	EndDate        string       `json:"end_date,omitempty"`
	Status         PledgeStatus `json:"status"`
	AmountReceived float64      `json:"amount_received"`
	Balance        float64      `json:"balance"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// PledgeContribution is one payment toward a pledge
type PledgeContribution struct {
	ID        int64     `json:"id"`
	PledgeID  int64     `json:"pledge_id"`
	Amount    float64   `json:"amount"`
	Date      string    `json:"date"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
