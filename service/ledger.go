package service

import (
	"context"
	"fmt"

	"github.com/kevinaaaquil/library/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LedgerStore is the pair of status primitives the ledger needs. ReserveBook must be a single atomic
// conditional update (in_stock -> reserved) and return nil, nil when the condition did not match.
type LedgerStore interface {
	ReserveBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	ReleaseBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
}

// Ledger owns the status field of a book for the reservation flow.
type Ledger struct {
	store LedgerStore
}

func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store}
}

// Reserve takes a book out of availability. It returns book_not_reservable when the book is missing or not in stock;
// callers that need to tell those apart must look the book up first. No retry: a lost race is reported as is.
func (l *Ledger) Reserve(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	book, err := l.store.ReserveBook(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reserve book %s: %w", id.Hex(), err)
	}
	if book == nil {
		return nil, errBookNotReservable
	}
	return book, nil
}

// Release puts a book back in stock regardless of its current status.
func (l *Ledger) Release(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	book, err := l.store.ReleaseBook(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("release book %s: %w", id.Hex(), err)
	}
	if book == nil {
		return nil, errBookNotFound
	}
	return book, nil
}
