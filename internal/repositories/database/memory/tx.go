package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/aid_budget_ledger/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

type tx struct {
	store       *Store
	pools       stage[domain.BudgetPool]
	allocations stage[domain.Allocation]
	payments    stage[domain.Payment]
	requests    stage[domain.AidRequest]
	transfers   stage[domain.Transfer]
	events      []domain.DomainEvent
	published   map[string]time.Time
}

func newTx(s *Store) *tx {
	return &tx{
		store:       s,
		pools:       make(stage[domain.BudgetPool]),
		allocations: make(stage[domain.Allocation]),
		payments:    make(stage[domain.Payment]),
		requests:    make(stage[domain.AidRequest]),
		transfers:   make(stage[domain.Transfer]),
		published:   make(map[string]time.Time),
	}
}

var _ portsrepo.LedgerTx = (*tx)(nil)

func (t *tx) Pools() portsrepo.BudgetPoolRepository       { return poolRepo{t} }
func (t *tx) Allocations() portsrepo.AllocationRepository { return allocationRepo{t} }
func (t *tx) Payments() portsrepo.PaymentRepository       { return paymentRepo{t} }
func (t *tx) Requests() portsrepo.RequestRepository       { return requestRepo{t} }
func (t *tx) Transfers() portsrepo.TransferRepository     { return transferRepo{t} }
func (t *tx) Outbox() portsrepo.OutboxRepository          { return outboxRepo{t} }

// lookup returns the transaction's view of id: its own staged write if any,
// otherwise the committed value.
func lookup[T any](t *tx, st stage[T], committed map[string]T, id string) (T, bool) {
	if w, ok := st[id]; ok {
		return w.value, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	v, ok := committed[id]
	return v, ok
}

// visible merges committed rows with staged writes.
func visible[T any](t *tx, st stage[T], committed map[string]T) []T {
	t.store.mu.RLock()
	out := make([]T, 0, len(committed)+len(st))
	for id, v := range committed {
		if _, staged := st[id]; !staged {
			out = append(out, v)
		}
	}
	t.store.mu.RUnlock()
	for _, w := range st {
		out = append(out, w.value)
	}
	return out
}

// casUpdate checks that value was based on the version this transaction sees.
func casUpdate[T any](t *tx, kind, id string, st stage[T], committed map[string]T, value T, version func(T) int64) error {
	current, ok := lookup(t, st, committed, id)
	if !ok {
		return fmt.Errorf("%s %s: %w", kind, id, apperrors.ErrNotFound)
	}
	if version(current) != version(value) {
		return fmt.Errorf("%s %s is at version %d, update based on %d: %w",
			kind, id, version(current), version(value), apperrors.ErrConcurrentModification)
	}
	return nil
}

func insert[T any](t *tx, kind, id string, st stage[T], committed map[string]T, value T) error {
	if _, exists := lookup(t, st, committed, id); exists {
		return fmt.Errorf("%s %s: %w", kind, id, apperrors.ErrDuplicate)
	}
	st.put(id, value, insertMarker)
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, apperrors.ErrNotFound)
}

// --- pools

type poolRepo struct{ t *tx }

func poolVersion(p domain.BudgetPool) int64 { return p.Version }

func (r poolRepo) FindPoolByID(_ context.Context, poolID string) (*domain.BudgetPool, error) {
	p, ok := lookup(r.t, r.t.pools, r.t.store.pools, poolID)
	if !ok {
		return nil, notFound("budget pool", poolID)
	}
	return &p, nil
}

func (r poolRepo) FindPoolForUpdate(ctx context.Context, poolID string) (*domain.BudgetPool, error) {
	return r.FindPoolByID(ctx, poolID)
}

func (r poolRepo) ListPools(_ context.Context, filter portsrepo.PoolFilter) ([]domain.BudgetPool, error) {
	all := visible(r.t, r.t.pools, r.t.store.pools)
	out := make([]domain.BudgetPool, 0, len(all))
	for _, p := range all {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Department != "" && p.Department != filter.Department {
			continue
		}
		if filter.FiscalYear != 0 && p.FiscalYear != filter.FiscalYear {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].PoolID < out[j].PoolID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r poolRepo) SavePool(_ context.Context, pool domain.BudgetPool) error {
	return insert(r.t, "budget pool", pool.PoolID, r.t.pools, r.t.store.pools, pool)
}

func (r poolRepo) UpdatePool(_ context.Context, pool *domain.BudgetPool) error {
	if err := casUpdate(r.t, "budget pool", pool.PoolID, r.t.pools, r.t.store.pools, *pool, poolVersion); err != nil {
		return err
	}
	expected := pool.Version
	pool.Version++
	r.t.pools.put(pool.PoolID, *pool, expected)
	return nil
}

// --- allocations

type allocationRepo struct{ t *tx }

func allocationVersion(a domain.Allocation) int64 { return a.Version }

func (r allocationRepo) SaveAllocation(_ context.Context, allocation domain.Allocation) error {
	return insert(r.t, "allocation", allocation.AllocationID, r.t.allocations, r.t.store.allocations, allocation)
}

func (r allocationRepo) UpdateAllocation(_ context.Context, allocation *domain.Allocation) error {
	if err := casUpdate(r.t, "allocation", allocation.AllocationID, r.t.allocations, r.t.store.allocations, *allocation, allocationVersion); err != nil {
		return err
	}
	expected := allocation.Version
	allocation.Version++
	r.t.allocations.put(allocation.AllocationID, *allocation, expected)
	return nil
}

func (r allocationRepo) FindAllocationByID(_ context.Context, allocationID string) (*domain.Allocation, error) {
	a, ok := lookup(r.t, r.t.allocations, r.t.store.allocations, allocationID)
	if !ok {
		return nil, notFound("allocation", allocationID)
	}
	return &a, nil
}

func (r allocationRepo) FindActiveAllocation(_ context.Context, requestID, poolID string) (*domain.Allocation, error) {
	for _, a := range visible(r.t, r.t.allocations, r.t.store.allocations) {
		if a.RequestID == requestID && a.PoolID == poolID && a.Status.IsActive() {
			return &a, nil
		}
	}
	return nil, notFound("active allocation for request", requestID)
}

func (r allocationRepo) ListAllocationsByPool(_ context.Context, poolID string) ([]domain.Allocation, error) {
	var out []domain.Allocation
	for _, a := range visible(r.t, r.t.allocations, r.t.store.allocations) {
		if a.PoolID == poolID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReservedAt.Equal(out[j].ReservedAt) {
			return out[i].AllocationID < out[j].AllocationID
		}
		return out[i].ReservedAt.Before(out[j].ReservedAt)
	})
	return out, nil
}

// --- payments

type paymentRepo struct{ t *tx }

func paymentVersion(p domain.Payment) int64 { return p.Version }

func (r paymentRepo) SavePayment(_ context.Context, payment domain.Payment) error {
	return insert(r.t, "payment", payment.PaymentID, r.t.payments, r.t.store.payments, payment)
}

func (r paymentRepo) UpdatePayment(_ context.Context, payment *domain.Payment) error {
	if err := casUpdate(r.t, "payment", payment.PaymentID, r.t.payments, r.t.store.payments, *payment, paymentVersion); err != nil {
		return err
	}
	expected := payment.Version
	payment.Version++
	r.t.payments.put(payment.PaymentID, *payment, expected)
	return nil
}

func (r paymentRepo) FindPaymentByID(_ context.Context, paymentID string) (*domain.Payment, error) {
	p, ok := lookup(r.t, r.t.payments, r.t.store.payments, paymentID)
	if !ok {
		return nil, notFound("payment", paymentID)
	}
	return &p, nil
}

func (r paymentRepo) ListPaymentsByRequest(_ context.Context, requestID string) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, p := range visible(r.t, r.t.payments, r.t.store.payments) {
		if p.RequestID == requestID {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r paymentRepo) SumCompletedPayments(_ context.Context, requestID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range visible(r.t, r.t.payments, r.t.store.payments) {
		if p.RequestID == requestID && p.Status == domain.PaymentCompleted {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r paymentRepo) ListPayments(_ context.Context, filter portsrepo.PaymentFilter) ([]domain.Payment, *string, error) {
	limit := pagination.ClampLimit(filter.Limit)

	var cursorAt time.Time
	var cursorID string
	if filter.NextToken != nil && *filter.NextToken != "" {
		var err error
		cursorAt, cursorID, err = pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	}

	var matched []domain.Payment
	for _, p := range visible(r.t, r.t.payments, r.t.store.payments) {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.RequestID != "" && p.RequestID != filter.RequestID {
			continue
		}
		if filter.PoolID != "" && (p.PoolID == nil || *p.PoolID != filter.PoolID) {
			continue
		}
		if cursorID != "" && !pagination.IsAfter(p.CreatedAt, p.PaymentID, cursorAt, cursorID) {
			continue
		}
		matched = append(matched, p)
	}
	sortNewestFirst(matched)

	if len(matched) <= limit {
		return matched, nil, nil
	}
	page := matched[:limit]
	last := page[len(page)-1]
	next := pagination.EncodeToken(last.CreatedAt, last.PaymentID)
	return page, &next, nil
}

func sortNewestFirst(payments []domain.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].CreatedAt.Equal(payments[j].CreatedAt) {
			return payments[i].PaymentID > payments[j].PaymentID
		}
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
}

// --- requests

type requestRepo struct{ t *tx }

func requestVersion(r domain.AidRequest) int64 { return r.Version }

func (r requestRepo) SaveRequest(_ context.Context, request domain.AidRequest) error {
	return insert(r.t, "request", request.RequestID, r.t.requests, r.t.store.requests, request)
}

func (r requestRepo) UpdateRequest(_ context.Context, request *domain.AidRequest) error {
	if err := casUpdate(r.t, "request", request.RequestID, r.t.requests, r.t.store.requests, *request, requestVersion); err != nil {
		return err
	}
	expected := request.Version
	request.Version++
	r.t.requests.put(request.RequestID, *request, expected)
	return nil
}

func (r requestRepo) FindRequestByID(_ context.Context, requestID string) (*domain.AidRequest, error) {
	req, ok := lookup(r.t, r.t.requests, r.t.store.requests, requestID)
	if !ok {
		return nil, notFound("request", requestID)
	}
	return &req, nil
}

// --- transfers

type transferRepo struct{ t *tx }

func transferVersion(tr domain.Transfer) int64 { return tr.Version }

func (r transferRepo) SaveTransfer(_ context.Context, transfer domain.Transfer) error {
	return insert(r.t, "transfer", transfer.TransferID, r.t.transfers, r.t.store.transfers, transfer)
}

func (r transferRepo) UpdateTransfer(_ context.Context, transfer *domain.Transfer) error {
	if err := casUpdate(r.t, "transfer", transfer.TransferID, r.t.transfers, r.t.store.transfers, *transfer, transferVersion); err != nil {
		return err
	}
	expected := transfer.Version
	transfer.Version++
	r.t.transfers.put(transfer.TransferID, *transfer, expected)
	return nil
}

func (r transferRepo) FindTransferByID(_ context.Context, transferID string) (*domain.Transfer, error) {
	tr, ok := lookup(r.t, r.t.transfers, r.t.store.transfers, transferID)
	if !ok {
		return nil, notFound("transfer", transferID)
	}
	return &tr, nil
}

func (r transferRepo) ListTransfersByPool(_ context.Context, poolID string) ([]domain.Transfer, error) {
	var out []domain.Transfer
	for _, tr := range visible(r.t, r.t.transfers, r.t.store.transfers) {
		if tr.SourcePoolID == poolID || tr.DestinationPoolID == poolID {
			out = append(out, tr)
		}
	}
	sortTransfers(out)
	return out, nil
}

func (r transferRepo) ListDanglingTransfers(_ context.Context) ([]domain.Transfer, error) {
	var out []domain.Transfer
	for _, tr := range visible(r.t, r.t.transfers, r.t.store.transfers) {
		if tr.IsDangling() {
			out = append(out, tr)
		}
	}
	sortTransfers(out)
	return out, nil
}

func sortTransfers(transfers []domain.Transfer) {
	sort.Slice(transfers, func(i, j int) bool {
		if transfers[i].CreatedAt.Equal(transfers[j].CreatedAt) {
			return transfers[i].TransferID < transfers[j].TransferID
		}
		return transfers[i].CreatedAt.Before(transfers[j].CreatedAt)
	})
}

// --- outbox

type outboxRepo struct{ t *tx }

func (r outboxRepo) AppendEvents(_ context.Context, events ...domain.DomainEvent) error {
	r.t.events = append(r.t.events, events...)
	return nil
}

func (r outboxRepo) ListPendingEvents(_ context.Context, limit int) ([]domain.DomainEvent, error) {
	r.t.store.mu.RLock()
	defer r.t.store.mu.RUnlock()

	var out []domain.DomainEvent
	for _, e := range r.t.store.events {
		if e.PublishedAt != nil {
			continue
		}
		if _, marked := r.t.published[e.EventID]; marked {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r outboxRepo) MarkEventsPublished(_ context.Context, eventIDs []string) error {
	now := time.Now().UTC()
	for _, id := range eventIDs {
		r.t.published[id] = now
	}
	return nil
}
