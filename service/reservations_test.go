package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/service"
	"github.com/kevinaaaquil/library/store/stubs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newWorkflow(t *testing.T) (*service.Reservations, *stubs.MemoryDB) {
	t.Helper()
	db := stubs.NewMemoryDB()
	return service.NewReservations(db, db, service.NewLedger(db), zap.NewNop()), db
}

func seedBook(t *testing.T, db *stubs.MemoryDB, title string) primitive.ObjectID {
	t.Helper()
	id, err := db.InsertBook(context.Background(), &models.Book{
		Title:    title,
		Author:   "Іван Багряний",
		CoverURL: "https://covers.example.com/books/x.jpg",
		Status:   models.BookInStock,
	})
	require.NoError(t, err)
	return id
}

func validInput(bookID primitive.ObjectID) service.CreateReservationInput {
	return service.CreateReservationInput{
		BookID:      bookID.Hex(),
		FullName:    "Петро Іваненко",
		Phone:       "+380501234567",
		Subdivision: "2 рота",
	}
}

func bookStatus(t *testing.T, db *stubs.MemoryDB, id primitive.ObjectID) models.BookStatus {
	t.Helper()
	b, err := db.BookByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b.Status
}

func TestCreateReservesBook(t *testing.T) {
	ctx := context.Background()
	wf, db := newWorkflow(t)
	bookID := seedBook(t, db, "Тигролови")

	view, err := wf.Create(ctx, validInput(bookID))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationPending, view.Reservation.Status)
	assert.Equal(t, bookID, view.Reservation.BookID)
	assert.False(t, view.Reservation.ID.IsZero())
	require.NotNil(t, view.Book)
	assert.Equal(t, models.BookReserved, view.Book.Status)
	assert.Equal(t, models.BookReserved, bookStatus(t, db, bookID))

	_, err = wf.Create(ctx, validInput(bookID))
	assert.True(t, service.HasCode(err, service.CodeBookNotReservable), "got %v", err)
}

func TestCreateConcurrentOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	wf, db := newWorkflow(t)
	bookID := seedBook(t, db, "Холодний Яр")

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := wf.Create(ctx, validInput(bookID))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case service.HasCode(err, service.CodeBookNotReservable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)

	page, err := wf.List(ctx, 1, 20, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalItems)
}

func TestCreateValidationReportsAllFields(t *testing.T) {
	wf, db := newWorkflow(t)
	bookID := seedBook(t, db, "Жовтий князь")

	in := validInput(bookID)
	in.FullName = "  "
	in.Phone = ""
	_, err := wf.Create(context.Background(), in)

	apiErr, ok := service.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, service.CodeValidation, apiErr.Code)
	assert.Contains(t, apiErr.Fields, "fullName")
	assert.Contains(t, apiErr.Fields, "phone")
	assert.Equal(t, models.BookInStock, bookStatus(t, db, bookID))
}

func TestCreateUnknownBook(t *testing.T) {
	wf, _ := newWorkflow(t)
	for _, id := range []string{primitive.NewObjectID().Hex(), "not-an-object-id"} {
		in := validInput(primitive.NewObjectID())
		in.BookID = id
		_, err := wf.Create(context.Background(), in)
		assert.True(t, service.HasCode(err, service.CodeBookNotFound), "id %q: got %v", id, err)
	}
}

func TestCreateIssuedBookNotReservable(t *testing.T) {
	wf, db := newWorkflow(t)
	bookID := seedBook(t, db, "Місто")
	db.SetBookStatus(bookID, models.BookIssued)

	_, err := wf.Create(context.Background(), validInput(bookID))
	assert.True(t, service.HasCode(err, service.CodeBookNotReservable))
	assert.Equal(t, models.BookIssued, bookStatus(t, db, bookID))
}

type failingInsert struct {
	*stubs.MemoryDB
}

func (failingInsert) InsertReservation(ctx context.Context, r *models.Reservation) error {
	return errors.New("write concern timeout")
}

func TestCreateReleasesBookWhenInsertFails(t *testing.T) {
	db := stubs.NewMemoryDB()
	wf := service.NewReservations(failingInsert{db}, db, service.NewLedger(db), zap.NewNop())
	bookID := seedBook(t, db, "Intermezzo")

	_, err := wf.Create(context.Background(), validInput(bookID))
	require.Error(t, err)
	_, isAPI := service.AsAPIError(err)
	assert.False(t, isAPI)
	assert.Equal(t, models.BookInStock, bookStatus(t, db, bookID))
}

func TestReturnReleasesBook(t *testing.T) {
	ctx := context.Background()
	wf, db := newWorkflow(t)
	bookID := seedBook(t, db, "Енеїда")

	view, err := wf.Create(ctx, validInput(bookID))
	require.NoError(t, err)
	id := view.Reservation.ID.Hex()

	confirmed, err := wf.UpdateStatus(ctx, id, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, confirmed.Reservation.Status)
	assert.Equal(t, models.BookReserved, bookStatus(t, db, bookID))

	returned, err := wf.UpdateStatus(ctx, id, "returned")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationReturned, returned.Reservation.Status)
	require.NotNil(t, returned.Book)
	assert.Equal(t, models.BookInStock, returned.Book.Status)
	assert.Equal(t, models.BookInStock, bookStatus(t, db, bookID))

	_, err = wf.Create(ctx, validInput(bookID))
	assert.NoError(t, err)
}

func TestReturnedTwiceIsNoOp(t *testing.T) {
	ctx := context.Background()
	wf, db := newWorkflow(t)
	bookID := seedBook(t, db, "Кайдашева сім'я")

	first, err := wf.Create(ctx, validInput(bookID))
	require.NoError(t, err)
	_, err = wf.UpdateStatus(ctx, first.Reservation.ID.Hex(), "returned")
	require.NoError(t, err)

	second, err := wf.Create(ctx, validInput(bookID))
	require.NoError(t, err)

	// A repeated "returned" on the old reservation must not free the book held by the new one.
	view, err := wf.UpdateStatus(ctx, first.Reservation.ID.Hex(), "returned")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationReturned, view.Reservation.Status)
	assert.Equal(t, models.BookReserved, bookStatus(t, db, bookID))
	assert.Equal(t, models.ReservationPending, second.Reservation.Status)
}

func TestUpdateStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []string
		wantErr string
		want    models.BookStatus
	}{
		{"confirm then cancel keeps book reserved", []string{"confirmed", "cancelled"}, "", models.BookReserved},
		{"reject keeps book reserved", []string{"rejected"}, "", models.BookReserved},
		{"pending straight to returned", []string{"returned"}, "", models.BookInStock},
		{"confirmed back to pending", []string{"confirmed", "pending"}, service.CodeInvalidStatusTransition, models.BookReserved},
		{"rejected is terminal", []string{"rejected", "confirmed"}, service.CodeInvalidStatusTransition, models.BookReserved},
		{"returned is terminal", []string{"returned", "confirmed"}, service.CodeInvalidStatusTransition, models.BookInStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			wf, db := newWorkflow(t)
			bookID := seedBook(t, db, "Лісова пісня")
			view, err := wf.Create(ctx, validInput(bookID))
			require.NoError(t, err)

			for i, status := range tt.path {
				_, err = wf.UpdateStatus(ctx, view.Reservation.ID.Hex(), status)
				if i < len(tt.path)-1 {
					require.NoError(t, err)
				}
			}
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.True(t, service.HasCode(err, tt.wantErr), "got %v", err)
			}
			assert.Equal(t, tt.want, bookStatus(t, db, bookID))
		})
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	ctx := context.Background()
	wf, _ := newWorkflow(t)

	_, err := wf.UpdateStatus(ctx, primitive.NewObjectID().Hex(), "confirmed")
	assert.True(t, service.HasCode(err, service.CodeReservationNotFound))

	_, err = wf.UpdateStatus(ctx, "zzz", "confirmed")
	assert.True(t, service.HasCode(err, service.CodeReservationNotFound))

	_, err = wf.UpdateStatus(ctx, primitive.NewObjectID().Hex(), "lost")
	assert.True(t, service.HasCode(err, service.CodeValidation))
}

func TestListReservations(t *testing.T) {
	ctx := context.Background()
	wf, db := newWorkflow(t)
	for _, title := range []string{"Марина", "Чорна рада", "Захар Беркут"} {
		_, err := wf.Create(ctx, validInput(seedBook(t, db, title)))
		require.NoError(t, err)
	}

	page, err := wf.List(ctx, 1, 2, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 3, page.TotalItems)
	assert.EqualValues(t, 2, page.TotalPages)
	for _, item := range page.Items {
		require.NotNil(t, item.Book)
		assert.Equal(t, item.Reservation.BookID, item.Book.ID)
	}

	page, err = wf.List(ctx, 1, 20, "confirmed")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 0, page.TotalPages)

	_, err = wf.List(ctx, 0, 20, "")
	assert.True(t, service.HasCode(err, service.CodeInvalidParams))
	_, err = wf.List(ctx, 92233720368547760, 100, "")
	assert.True(t, service.HasCode(err, service.CodeInvalidParams))
}

func TestGetReservation(t *testing.T) {
	ctx := context.Background()
	wf, db := newWorkflow(t)
	bookID := seedBook(t, db, "Intermezzo")
	created, err := wf.Create(ctx, validInput(bookID))
	require.NoError(t, err)

	got, err := wf.Get(ctx, created.Reservation.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, created.Reservation.ID, got.Reservation.ID)
	require.NotNil(t, got.Book)
	assert.Equal(t, "Intermezzo", got.Book.Title)

	_, err = wf.Get(ctx, primitive.NewObjectID().Hex())
	assert.True(t, service.HasCode(err, service.CodeReservationNotFound))
}
