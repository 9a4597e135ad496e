package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ReservationStore interface {
	InsertReservation(ctx context.Context, r *models.Reservation) error
	ReservationByID(ctx context.Context, id primitive.ObjectID) (*models.Reservation, error)
	ListReservations(ctx context.Context, status models.ReservationStatus, page, pageSize int) ([]models.Reservation, int64, error)
	// UpdateReservationStatus must only write when the stored status still equals from, returning nil, nil otherwise.
	UpdateReservationStatus(ctx context.Context, id primitive.ObjectID, from, to models.ReservationStatus) (*models.Reservation, error)
}

type BookReader interface {
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	BooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Book, error)
}

type CreateReservationInput struct {
	BookID      string
	FullName    string
	Phone       string
	Subdivision string
	Comment     string
}

// ReservationView is a reservation joined with its book for display. Book is nil if the book was deleted.
type ReservationView struct {
	Reservation models.Reservation
	Book        *models.Book
}

type ReservationPage struct {
	Items []ReservationView
	utils.PaginationMeta
}

// Reservations is the reservation workflow: it creates reservations through the ledger and applies staff status changes.
type Reservations struct {
	reservations ReservationStore
	books        BookReader
	ledger       *Ledger
	logger       *zap.Logger
}

func NewReservations(reservations ReservationStore, books BookReader, ledger *Ledger, logger *zap.Logger) *Reservations {
	return &Reservations{reservations: reservations, books: books, ledger: ledger, logger: logger}
}

// Create reserves the book and records a pending reservation.
//
// The status pre-check only picks the error message for the common case; the ledger's atomic reserve is what keeps
// two concurrent requests from both getting the book.
func (s *Reservations) Create(ctx context.Context, in CreateReservationInput) (*ReservationView, error) {
	in.BookID = strings.TrimSpace(in.BookID)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subdivision = strings.TrimSpace(in.Subdivision)
	in.Comment = strings.TrimSpace(in.Comment)

	fields := map[string]string{}
	if in.BookID == "" {
		fields["bookId"] = "bookId is required"
	}
	if in.FullName == "" {
		fields["fullName"] = "fullName is required"
	}
	if in.Phone == "" {
		fields["phone"] = "phone is required"
	}
	if in.Subdivision == "" {
		fields["subdivision"] = "subdivision is required"
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}

	bookID, err := primitive.ObjectIDFromHex(in.BookID)
	if err != nil {
		return nil, errBookNotFound
	}
	book, err := s.books.BookByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("load book %s: %w", in.BookID, err)
	}
	if book == nil {
		return nil, errBookNotFound
	}
	if !book.Reservable() {
		return nil, errBookNotReservable
	}

	reserved, err := s.ledger.Reserve(ctx, bookID)
	if err != nil {
		return nil, err
	}

	r := &models.Reservation{
		BookID:      bookID,
		FullName:    in.FullName,
		Phone:       in.Phone,
		Subdivision: in.Subdivision,
		Comment:     in.Comment,
		Status:      models.ReservationPending,
	}
	if err := s.reservations.InsertReservation(ctx, r); err != nil {
		// Without a reservation row nothing would ever release the book.
		if _, relErr := s.ledger.Release(ctx, bookID); relErr != nil {
			s.logger.Error("release after failed reservation insert",
				zap.String("book_id", in.BookID), zap.Error(relErr))
		}
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	s.logger.Info("book reserved",
		zap.String("reservation_id", r.ID.Hex()),
		zap.String("book_id", in.BookID))
	return &ReservationView{Reservation: *r, Book: reserved}, nil
}

// UpdateStatus applies a staff status change. Moving to returned puts the book back in stock.
// Asking for the current status is a no-op, so a book is released at most once per reservation.
func (s *Reservations) UpdateStatus(ctx context.Context, id string, status string) (*ReservationView, error) {
	if !models.ValidReservationStatus(status) {
		return nil, NewValidationError(map[string]string{"status": "status must be one of pending, confirmed, rejected, cancelled, returned"})
	}
	next := models.ReservationStatus(status)

	rid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, errReservationNotFound
	}
	current, err := s.reservations.ReservationByID(ctx, rid)
	if err != nil {
		return nil, fmt.Errorf("load reservation %s: %w", id, err)
	}
	if current == nil {
		return nil, errReservationNotFound
	}
	if current.Status == next {
		return s.view(ctx, current)
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, invalidTransition(current.Status, next)
	}

	updated, err := s.reservations.UpdateReservationStatus(ctx, rid, current.Status, next)
	if err != nil {
		return nil, fmt.Errorf("update reservation %s: %w", id, err)
	}
	if updated == nil {
		// Deleted or changed by a concurrent request since we read it.
		latest, err := s.reservations.ReservationByID(ctx, rid)
		if err != nil {
			return nil, fmt.Errorf("reload reservation %s: %w", id, err)
		}
		if latest == nil {
			return nil, errReservationNotFound
		}
		return nil, invalidTransition(latest.Status, next)
	}

	s.logger.Info("reservation status changed",
		zap.String("reservation_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)))

	if next == models.ReservationReturned {
		// The status change is already committed; a failed release leaves the book reserved for staff to fix by hand.
		book, err := s.ledger.Release(ctx, updated.BookID)
		if err != nil {
			s.logger.Warn("book release after return failed",
				zap.String("reservation_id", id),
				zap.String("book_id", updated.BookID.Hex()),
				zap.Error(err))
		} else {
			return &ReservationView{Reservation: *updated, Book: book}, nil
		}
	}
	return s.view(ctx, updated)
}

// List returns reservations newest first, optionally filtered by status.
func (s *Reservations) List(ctx context.Context, page, pageSize int, status string) (*ReservationPage, error) {
	if page < 1 || pageSize < 1 {
		return nil, NewInvalidParams("Page and pageSize must be positive integers")
	}
	if page > models.MaxPage {
		return nil, NewInvalidParams(fmt.Sprintf("Page must not exceed %d", models.MaxPage))
	}
	if status != "" && !models.ValidReservationStatus(status) {
		return nil, NewValidationError(map[string]string{"status": "status must be one of pending, confirmed, rejected, cancelled, returned"})
	}
	items, total, err := s.reservations.ListReservations(ctx, models.ReservationStatus(status), page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(items))
	seen := make(map[primitive.ObjectID]bool)
	for _, r := range items {
		if !seen[r.BookID] {
			seen[r.BookID] = true
			ids = append(ids, r.BookID)
		}
	}
	books, err := s.books.BooksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load reservation books: %w", err)
	}
	byID := make(map[primitive.ObjectID]*models.Book, len(books))
	for i := range books {
		byID[books[i].ID] = &books[i]
	}

	views := make([]ReservationView, 0, len(items))
	for _, r := range items {
		views = append(views, ReservationView{Reservation: r, Book: byID[r.BookID]})
	}
	return &ReservationPage{
		Items:          views,
		PaginationMeta: utils.BuildPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *Reservations) Get(ctx context.Context, id string) (*ReservationView, error) {
	rid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, errReservationNotFound
	}
	r, err := s.reservations.ReservationByID(ctx, rid)
	if err != nil {
		return nil, fmt.Errorf("load reservation %s: %w", id, err)
	}
	if r == nil {
		return nil, errReservationNotFound
	}
	return s.view(ctx, r)
}

func (s *Reservations) view(ctx context.Context, r *models.Reservation) (*ReservationView, error) {
	book, err := s.books.BookByID(ctx, r.BookID)
	if err != nil {
		return nil, fmt.Errorf("load book %s: %w", r.BookID.Hex(), err)
	}
	return &ReservationView{Reservation: *r, Book: book}, nil
}

func invalidTransition(from, to models.ReservationStatus) *APIError {
	return NewConflict(CodeInvalidStatusTransition,
		fmt.Sprintf("Reservation status cannot change from %s to %s", from, to))
}
