package fee

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tuition/backend/internal/domain/fee"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/domain/student"
	"github.com/tuition/backend/internal/infrastructure/strategy/allocation"
)

var testNow = time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)

var errStoreDown = errors.New("store unavailable")

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func adminSession() *identity.Session {
	return &identity.Session{ID: uuid.New(), Role: identity.AdminRole{}, IssuedAt: testNow, ExpiresAt: testNow.Add(time.Hour)}
}

func studentSession(id uuid.UUID) *identity.Session {
	return &identity.Session{ID: uuid.New(), Role: identity.StudentRole{StudentID: id}, IssuedAt: testNow, ExpiresAt: testNow.Add(time.Hour)}
}

// memStore is an in-memory record store with transactional snapshots
type memStore struct {
	mu       sync.Mutex
	terms    map[uuid.UUID]fee.TermLedgerEntry
	payments map[uuid.UUID]fee.PaymentRecord
	seq      map[uuid.UUID]int
	nextSeq  int

	// failure injection
	failSaveBatch     error
	failCreatePayment func(r *fee.PaymentRecord) error
	failSaveTerm      func(e *fee.TermLedgerEntry) error
	failFindTerm      func(id uuid.UUID) error
}

func newMemStore() *memStore {
	return &memStore{
		terms:    make(map[uuid.UUID]fee.TermLedgerEntry),
		payments: make(map[uuid.UUID]fee.PaymentRecord),
		seq:      make(map[uuid.UUID]int),
	}
}

func copyEntry(e fee.TermLedgerEntry) *fee.TermLedgerEntry {
	c := e
	c.ClearEvents()
	if e.PaidDate != nil {
		d := *e.PaidDate
		c.PaidDate = &d
	}
	return &c
}

type memTermRepo struct{ s *memStore }

func (r memTermRepo) FindByID(_ context.Context, id uuid.UUID) (*fee.TermLedgerEntry, error) {
	if r.s.failFindTerm != nil {
		if err := r.s.failFindTerm(id); err != nil {
			return nil, err
		}
	}
	e, ok := r.s.terms[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyEntry(e), nil
}

func (r memTermRepo) FindByStudent(_ context.Context, studentID uuid.UUID) ([]*fee.TermLedgerEntry, error) {
	out := make([]*fee.TermLedgerEntry, 0)
	for _, e := range r.s.terms {
		if e.StudentID == studentID {
			out = append(out, copyEntry(e))
		}
	}
	fee.SortEntries(out)
	return out, nil
}

func (r memTermRepo) FindAll(_ context.Context) ([]*fee.TermLedgerEntry, error) {
	out := make([]*fee.TermLedgerEntry, 0, len(r.s.terms))
	for _, e := range r.s.terms {
		out = append(out, copyEntry(e))
	}
	fee.SortEntries(out)
	return out, nil
}

func (r memTermRepo) LatestCycle(_ context.Context, studentID uuid.UUID) (int, error) {
	latest := 0
	for _, e := range r.s.terms {
		if e.StudentID == studentID && e.CycleNumber > latest {
			latest = e.CycleNumber
		}
	}
	return latest, nil
}

func (r memTermRepo) SaveBatch(_ context.Context, entries []*fee.TermLedgerEntry) error {
	if r.s.failSaveBatch != nil {
		return r.s.failSaveBatch
	}
	for _, e := range entries {
		r.s.terms[e.ID] = *copyEntry(*e)
	}
	return nil
}

func (r memTermRepo) SaveWithLock(_ context.Context, e *fee.TermLedgerEntry) error {
	if r.s.failSaveTerm != nil {
		if err := r.s.failSaveTerm(e); err != nil {
			return err
		}
	}
	stored, ok := r.s.terms[e.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != e.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.s.terms[e.ID] = *copyEntry(*e)
	return nil
}

func (r memTermRepo) DeleteByStudentCycle(_ context.Context, studentID uuid.UUID, cycle int) (int64, error) {
	var n int64
	for id, e := range r.s.terms {
		if e.StudentID == studentID && e.CycleNumber == cycle {
			delete(r.s.terms, id)
			n++
		}
	}
	return n, nil
}

func (r memTermRepo) DeleteByStudent(_ context.Context, studentID uuid.UUID) (int64, error) {
	var n int64
	for id, e := range r.s.terms {
		if e.StudentID == studentID {
			delete(r.s.terms, id)
			n++
		}
	}
	return n, nil
}

type memPaymentRepo struct{ s *memStore }

func (r memPaymentRepo) Create(_ context.Context, rec *fee.PaymentRecord) error {
	if r.s.failCreatePayment != nil {
		if err := r.s.failCreatePayment(rec); err != nil {
			return err
		}
	}
	r.s.nextSeq++
	r.s.seq[rec.ID] = r.s.nextSeq
	r.s.payments[rec.ID] = *rec
	return nil
}

func (r memPaymentRepo) Update(_ context.Context, rec *fee.PaymentRecord) error {
	if _, ok := r.s.payments[rec.ID]; !ok {
		return shared.ErrNotFound
	}
	r.s.payments[rec.ID] = *rec
	return nil
}

func (r memPaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.payments, id)
	delete(r.s.seq, id)
	return nil
}

func (r memPaymentRepo) FindByTermEntry(_ context.Context, termID uuid.UUID) ([]*fee.PaymentRecord, error) {
	out := make([]*fee.PaymentRecord, 0)
	for _, p := range r.s.payments {
		if p.TermEntryID == termID {
			c := p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.s.seq[out[i].ID] < r.s.seq[out[j].ID] })
	return out, nil
}

func (r memPaymentRepo) FindByStudent(_ context.Context, studentID uuid.UUID) ([]*fee.PaymentRecord, error) {
	out := make([]*fee.PaymentRecord, 0)
	for _, p := range r.s.payments {
		if p.StudentID == studentID {
			c := p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.s.seq[out[i].ID] > r.s.seq[out[j].ID] })
	return out, nil
}

func (r memPaymentRepo) DeleteByTermEntries(_ context.Context, ids []uuid.UUID) (int64, error) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for id, p := range r.s.payments {
		if want[p.TermEntryID] {
			delete(r.s.payments, id)
			delete(r.s.seq, id)
			n++
		}
	}
	return n, nil
}

// memTxScope restores the store snapshot when fn fails
type memTxScope struct{ s *memStore }

func (t memTxScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	terms := make(map[uuid.UUID]fee.TermLedgerEntry, len(t.s.terms))
	for k, v := range t.s.terms {
		terms[k] = v
	}
	payments := make(map[uuid.UUID]fee.PaymentRecord, len(t.s.payments))
	for k, v := range t.s.payments {
		payments[k] = v
	}
	seq := make(map[uuid.UUID]int, len(t.s.seq))
	for k, v := range t.s.seq {
		seq[k] = v
	}

	if err := fn(t); err != nil {
		t.s.terms, t.s.payments, t.s.seq = terms, payments, seq
		return err
	}
	return nil
}

func (t memTxScope) TermRepo() fee.TermLedgerRepository       { return memTermRepo{t.s} }
func (t memTxScope) PaymentRepo() fee.PaymentRecordRepository { return memPaymentRepo{t.s} }

type memStudentRepo struct {
	students map[uuid.UUID]*student.Student
}

func (r *memStudentRepo) FindByID(_ context.Context, id uuid.UUID) (*student.Student, error) {
	st, ok := r.students[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return st, nil
}

func (r *memStudentRepo) FindAll(_ context.Context, filter shared.Filter) ([]*student.Student, int64, error) {
	out := make([]*student.Student, 0, len(r.students))
	for _, st := range r.students {
		if filter.Search != "" && !strings.Contains(strings.ToLower(st.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if v, ok := filter.Filters["class_name"]; ok && st.ClassName != v {
			continue
		}
		if v, ok := filter.Filters["board"]; ok && st.Board != v {
			continue
		}
		if v, ok := filter.Filters["active"]; ok && st.Active != v {
			continue
		}
		out = append(out, st)
	}
	return out, int64(len(out)), nil
}

func (r *memStudentRepo) Save(_ context.Context, st *student.Student) error {
	r.students[st.ID] = st
	return nil
}

type recordingNotifier struct {
	notes []Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note Notification) {
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) count(level Level) int {
	c := 0
	for _, note := range n.notes {
		if note.Level == level {
			c++
		}
	}
	return c
}

type capturePublisher struct {
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// harness wires the services to the in-memory store
type harness struct {
	store    *memStore
	students *memStudentRepo
	notifier *recordingNotifier
	events   *capturePublisher
	deps     Dependencies
}

func newHarness() *harness {
	store := newMemStore()
	h := &harness{
		store:    store,
		students: &memStudentRepo{students: make(map[uuid.UUID]*student.Student)},
		notifier: &recordingNotifier{},
		events:   &capturePublisher{},
	}
	h.deps = Dependencies{
		Students:  h.students,
		Terms:     memTermRepo{store},
		Payments:  memPaymentRepo{store},
		TxScope:   memTxScope{store},
		Allocator: allocation.NewTermOrderStrategy(),
		Events:    h.events,
		Notifier:  h.notifier,
		Clock:     shared.FixedClock{T: testNow},
	}
	return h
}

func (h *harness) addStudent(t *testing.T, termFee int64, termType fee.TermType, category fee.Category) *student.Student {
	t.Helper()
	plan, err := fee.NewFeePlan(dec(termFee), termType, category)
	require.NoError(t, err)
	st, err := student.NewStudent("Asha Rao", "10-A", "CBSE", plan, testNow)
	require.NoError(t, err)
	h.students.students[st.ID] = st
	return st
}

// seedTerms stores terms with the given amounts and already-paid totals
func (h *harness) seedTerms(t *testing.T, studentID uuid.UUID, amounts, paid []int64) []*fee.TermLedgerEntry {
	t.Helper()
	out := make([]*fee.TermLedgerEntry, 0, len(amounts))
	for i, amt := range amounts {
		e, err := fee.NewTermLedgerEntry(studentID, 1, i+1, dec(amt), testNow.AddDate(0, 3*i, 0), testNow)
		require.NoError(t, err)
		if paid[i] > 0 {
			require.NoError(t, e.SetPaid(dec(paid[i]), nil, testNow))
		}
		e.ClearEvents()
		h.store.terms[e.ID] = *copyEntry(*e)
		out = append(out, e)
	}
	return out
}

func (h *harness) term(id uuid.UUID) fee.TermLedgerEntry {
	return h.store.terms[id]
}

func (h *harness) recordsFor(termID uuid.UUID) []fee.PaymentRecord {
	out := make([]fee.PaymentRecord, 0)
	for _, p := range h.store.payments {
		if p.TermEntryID == termID {
			out = append(out, p)
		}
	}
	return out
}

func (h *harness) sumRecords(studentID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, p := range h.store.payments {
		if p.StudentID == studentID {
			total = total.Add(p.Amount)
		}
	}
	return total
}
