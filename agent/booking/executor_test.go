package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

type fakeInventory struct {
	mu          sync.Mutex
	count       int
	decErr      error
	incErr      error
	decrements  int
	increments  int
	onDecrement func()
}

func (f *fakeInventory) DecrementIfAvailable(context.Context, contractx.Domain, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decErr != nil {
		return false, f.decErr
	}
	if f.count <= 0 {
		return false, nil
	}
	f.count--
	f.decrements++
	if f.onDecrement != nil {
		f.onDecrement()
	}
	return true, nil
}

func (f *fakeInventory) Increment(context.Context, contractx.Domain, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incErr != nil {
		return f.incErr
	}
	f.count++
	f.increments++
	return nil
}

type fakeBookings struct {
	mu        sync.Mutex
	records   []contractx.BookingRecord
	insertErr error
	findErr   error
	ctxErr    error
}

func (f *fakeBookings) Insert(ctx context.Context, rec contractx.BookingRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	if f.insertErr != nil {
		return "", f.insertErr
	}
	rec.ID = "bk-" + rec.ActionID
	f.records = append(f.records, rec)
	return rec.ID, nil
}

func (f *fakeBookings) FindByActionID(_ context.Context, actionID string) (*contractx.BookingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, r := range f.records {
		if r.ActionID == actionID {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func testCommand() contractx.BookingCommand {
	return contractx.BookingCommand{
		ActionID: "act-1",
		Domain:   contractx.DomainFlight,
		ItemID:   "fl-1",
		UserID:   "user-1",
		Price:    6500,
	}
}

func newTestExecutor(t *testing.T, inv contractx.Inventory, bk contractx.BookingStore) *Executor {
	t.Helper()
	ex, err := NewExecutor(inv, bk)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	return ex
}

func TestExecutorSuccess(t *testing.T) {
	t.Parallel()

	inv := &fakeInventory{count: 2}
	bk := &fakeBookings{}
	ex := newTestExecutor(t, inv, bk)

	id, err := ex.Execute(context.Background(), testCommand())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if id != "bk-act-1" || inv.count != 1 || len(bk.records) != 1 {
		t.Fatalf("id=%q count=%d records=%d", id, inv.count, len(bk.records))
	}
	rec := bk.records[0]
	if rec.Status != contractx.BookingConfirmed || rec.TotalPrice != 6500 || rec.UserID != "user-1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestExecutorReplayIsIdempotent(t *testing.T) {
	t.Parallel()

	inv := &fakeInventory{count: 5}
	bk := &fakeBookings{}
	ex := newTestExecutor(t, inv, bk)

	first, err := ex.Execute(context.Background(), testCommand())
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	second, err := ex.Execute(context.Background(), testCommand())
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if first != second || inv.decrements != 1 || len(bk.records) != 1 {
		t.Fatalf("replay had side effects: first=%q second=%q decrements=%d records=%d",
			first, second, inv.decrements, len(bk.records))
	}
}

func TestExecutorRecorded(t *testing.T) {
	t.Parallel()

	ex := newTestExecutor(t, &fakeInventory{count: 1}, &fakeBookings{})
	ctx := context.Background()

	if id, err := ex.Recorded(ctx, "act-1"); err != nil || id != "" {
		t.Fatalf("Recorded() before commit = %q, %v", id, err)
	}
	booked, err := ex.Execute(ctx, testCommand())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if id, err := ex.Recorded(ctx, "act-1"); err != nil || id != booked {
		t.Fatalf("Recorded() after commit = %q, %v, want %q", id, err, booked)
	}
}

func TestExecutorOutOfStock(t *testing.T) {
	t.Parallel()

	inv := &fakeInventory{count: 0}
	bk := &fakeBookings{}
	ex := newTestExecutor(t, inv, bk)

	_, err := ex.Execute(context.Background(), testCommand())
	if !errors.Is(err, contractx.ErrOutOfStock) {
		t.Fatalf("Execute() error = %v, want ErrOutOfStock", err)
	}
	if len(bk.records) != 0 || inv.increments != 0 {
		t.Fatalf("out of stock must have no side effects: %+v", bk.records)
	}
}

func TestExecutorCompensatesFailedInsert(t *testing.T) {
	t.Parallel()

	inv := &fakeInventory{count: 1}
	bk := &fakeBookings{insertErr: errors.New("disk full")}
	ex := newTestExecutor(t, inv, bk)

	_, err := ex.Execute(context.Background(), testCommand())
	if !errors.Is(err, contractx.ErrTransient) {
		t.Fatalf("Execute() error = %v, want ErrTransient", err)
	}
	if errors.Is(err, contractx.ErrInconsistent) {
		t.Fatalf("compensated failure must not be inconsistent: %v", err)
	}
	if inv.count != 1 || inv.increments != 1 {
		t.Fatalf("count=%d increments=%d, want restored", inv.count, inv.increments)
	}
}

func TestExecutorReportsInconsistency(t *testing.T) {
	t.Parallel()

	inv := &fakeInventory{count: 1, incErr: errors.New("connection reset")}
	bk := &fakeBookings{insertErr: errors.New("disk full")}
	ex := newTestExecutor(t, inv, bk)

	_, err := ex.Execute(context.Background(), testCommand())
	if !errors.Is(err, contractx.ErrInconsistent) {
		t.Fatalf("Execute() error = %v, want ErrInconsistent", err)
	}
	var inc *contractx.InconsistencyError
	if !errors.As(err, &inc) {
		t.Fatalf("expected *InconsistencyError, got %T", err)
	}
	if inc.ItemID != "fl-1" || inc.UserID != "user-1" || inc.ActionID != "act-1" {
		t.Fatalf("unexpected inconsistency fields: %+v", inc)
	}
}

func TestExecutorCommitSurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	inv := &fakeInventory{count: 1, onDecrement: cancel}
	bk := &fakeBookings{}
	ex := newTestExecutor(t, inv, bk)

	id, err := ex.Execute(ctx, testCommand())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if id == "" || len(bk.records) != 1 {
		t.Fatalf("expected booking to be recorded after cancel, got %q", id)
	}
	if bk.ctxErr != nil {
		t.Fatalf("insert ran on a cancelled context: %v", bk.ctxErr)
	}
}

func TestExecutorCancelledBeforeDecrement(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := &fakeInventory{count: 1}
	ex := newTestExecutor(t, inv, &fakeBookings{})

	_, err := ex.Execute(ctx, testCommand())
	if !errors.Is(err, contractx.ErrTransient) || !contractx.IsRetryable(err) {
		t.Fatalf("Execute() error = %v, want retryable transient", err)
	}
	if inv.count != 1 {
		t.Fatalf("count=%d, want untouched", inv.count)
	}
}

func TestExecutorValidation(t *testing.T) {
	t.Parallel()

	ex := newTestExecutor(t, &fakeInventory{count: 1}, &fakeBookings{})
	cmd := testCommand()
	cmd.Domain = "train"
	if _, err := ex.Execute(context.Background(), cmd); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Execute() error = %v, want ErrValidation", err)
	}
}

func TestExecutorRaceOnLastUnit(t *testing.T) {
	t.Parallel()

	store := catalog.NewMemoryStore(contractx.CatalogItem{
		ID:             "ht-last",
		Domain:         contractx.DomainHotel,
		Price:          8000,
		AvailableCount: 1,
	})
	ex := newTestExecutor(t, store, store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ex.Execute(context.Background(), contractx.BookingCommand{
				ActionID: []string{"act-a", "act-b"}[i],
				Domain:   contractx.DomainHotel,
				ItemID:   "ht-last",
				UserID:   []string{"alice", "bob"}[i],
				Price:    8000,
			})
		}(i)
	}
	wg.Wait()

	var ok, outOfStock int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, contractx.ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || outOfStock != 1 {
		t.Fatalf("ok=%d out_of_stock=%d, want 1 and 1", ok, outOfStock)
	}
	if n, _ := store.Available(contractx.DomainHotel, "ht-last"); n != 0 {
		t.Fatalf("final count = %d, want 0", n)
	}
	if store.BookingCount() != 1 {
		t.Fatalf("BookingCount() = %d, want 1", store.BookingCount())
	}
}
