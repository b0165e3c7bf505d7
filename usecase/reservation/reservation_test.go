package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendhub/backend/domain"
)

// fakeReservations mirrors the store contract: the count re-check and the
// insert are one serialized decision per member.
type fakeReservations struct {
	mu       sync.Mutex
	loans    map[string]int
	admitted map[string][]*domain.ReservationRequest
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{
		loans:    make(map[string]int),
		admitted: make(map[string][]*domain.ReservationRequest),
	}
}

func (f *fakeReservations) CountActiveBorrows(_ context.Context, memberID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loans[memberID] + len(f.admitted[memberID]), nil
}

func (f *fakeReservations) Admit(_ context.Context, reservation *domain.ReservationRequest, maxActive int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	memberID := reservation.MemberID
	if f.loans[memberID]+len(f.admitted[memberID]) >= maxActive {
		return domain.ErrMaxBorrowLimitExceeded
	}
	f.admitted[memberID] = append(f.admitted[memberID], reservation)
	return nil
}

type recordingOutbox struct {
	mu       sync.Mutex
	enqueued []*domain.ReservationRequest
}

func (r *recordingOutbox) EnqueueReservation(_ context.Context, reservation *domain.ReservationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueued = append(r.enqueued, reservation)
	return nil
}

func newFixture() (*UseCase, *fakeReservations, *recordingOutbox) {
	store := newFakeReservations()
	outbox := &recordingOutbox{}
	uc := New(store, outbox, Policy{MaxActiveBorrows: 5, MaxReservationDays: 15}, nil)
	return uc, store, outbox
}

func day(d int) time.Time {
	return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateAdmitsAndEnqueues(t *testing.T) {
	uc, store, outbox := newFixture()
	ctx := context.Background()

	reservation, err := uc.Validate(ctx, "m1", "book-1", day(1), day(10))
	require.NoError(t, err)
	assert.NotEmpty(t, reservation.ID)
	assert.Len(t, store.admitted["m1"], 1)
	require.Len(t, outbox.enqueued, 1)
	assert.Equal(t, reservation.ID, outbox.enqueued[0].ID)
}

func TestValidateDateWindow(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr error
	}{
		{"single day", day(1), day(1), nil},
		{"exactly fifteen days", day(1), day(16), nil},
		{"sixteen days", day(1), day(17), domain.ErrInvalidDateRange},
		{"inverted range", day(10), day(1), domain.ErrInvalidDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _, _ := newFixture()
			_, err := uc.Validate(context.Background(), "m1", "book-1", tt.start, tt.end)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBorrowLimitWinsOverBadDates(t *testing.T) {
	uc, store, _ := newFixture()
	store.loans["m1"] = 5

	// the limit rejection fires before the window is even inspected
	_, err := uc.Validate(context.Background(), "m1", "book-1", day(10), day(1))
	assert.ErrorIs(t, err, domain.ErrMaxBorrowLimitExceeded)
}

func TestLoadCountsLoansAndPendingReservations(t *testing.T) {
	uc, store, _ := newFixture()
	ctx := context.Background()
	store.loans["m1"] = 3

	_, err := uc.Validate(ctx, "m1", "book-1", day(1), day(5))
	require.NoError(t, err)
	_, err = uc.Validate(ctx, "m1", "book-2", day(1), day(5))
	require.NoError(t, err)

	// 3 loans + 2 admitted reservations = at the limit
	_, err = uc.Validate(ctx, "m1", "book-3", day(1), day(5))
	assert.ErrorIs(t, err, domain.ErrMaxBorrowLimitExceeded)
}

func TestLimitIsPerMember(t *testing.T) {
	uc, store, _ := newFixture()
	store.loans["m1"] = 5

	_, err := uc.Validate(context.Background(), "m2", "book-1", day(1), day(5))
	assert.NoError(t, err)
}

func TestConcurrentAdmissionNeverOverAdmits(t *testing.T) {
	uc, store, _ := newFixture()
	ctx := context.Background()
	store.loans["m1"] = 3

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = uc.Validate(ctx, "m1", "book", day(1), day(5))
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrMaxBorrowLimitExceeded)
	}
	assert.Equal(t, 2, admitted)
	assert.Len(t, store.admitted["m1"], 2)
}
