package domain

import (
	"github.com/shopspring/decimal"
)

// PoolSummary is a read-only snapshot of one pool and its allocations.
type PoolSummary struct {
	Pool                BudgetPool               `json:"pool"`
	RemainingAmount     decimal.Decimal          `json:"remainingAmount"`
	AvailableAmount     decimal.Decimal          `json:"availableAmount"`
	AllocationsByStatus map[AllocationStatus]int `json:"allocationsByStatus"`
	PendingTransfers    int                      `json:"pendingTransfers"`
}

// Dashboard aggregates all pools and payments.
type Dashboard struct {
	PoolCount         int                   `json:"poolCount"`
	PoolsByStatus     map[PoolStatus]int    `json:"poolsByStatus"`
	TotalAmount       decimal.Decimal       `json:"totalAmount"`
	AllocatedAmount   decimal.Decimal       `json:"allocatedAmount"`
	ReservedAmount    decimal.Decimal       `json:"reservedAmount"`
	SpentAmount       decimal.Decimal       `json:"spentAmount"`
	RemainingAmount   decimal.Decimal       `json:"remainingAmount"`
	PaymentsByStatus  map[PaymentStatus]int `json:"paymentsByStatus"`
	CompletedPayments decimal.Decimal       `json:"completedPaymentsAmount"`
}

// PoolDrift describes a mismatch between a pool's counters and its allocations.
type PoolDrift struct {
	PoolID            string          `json:"poolID"`
	Field             string          `json:"field"`
	Recorded          decimal.Decimal `json:"recorded"`
	FromAllocations   decimal.Decimal `json:"fromAllocations"`
	InvariantViolated bool            `json:"invariantViolated"`
}

// SweepReport summarises one reconciliation pass.
type SweepReport struct {
	ExpiredPools      []string    `json:"expiredPools"`
	RepairedTransfers []string    `json:"repairedTransfers"`
	Drifts            []PoolDrift `json:"drifts"`
	PublishedEvents   int         `json:"publishedEvents"`
}
