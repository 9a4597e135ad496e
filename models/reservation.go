package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationRejected  ReservationStatus = "rejected"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationReturned  ReservationStatus = "returned"
)

var ReservationStatuses = []ReservationStatus{
	ReservationPending,
	ReservationConfirmed,
	ReservationRejected,
	ReservationCancelled,
	ReservationReturned,
}

// reservationTransitions lists the statuses each status may move to.
// rejected, cancelled and returned are terminal.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationRejected, ReservationCancelled, ReservationReturned},
	ReservationConfirmed: {ReservationReturned, ReservationCancelled},
}

func ValidReservationStatus(s string) bool {
	for _, v := range ReservationStatuses {
		if string(v) == s {
			return true
		}
	}
	return false
}

// Active reports whether the reservation still holds its book.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// CanTransitionTo reports whether staff may move a reservation from s to next.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, v := range reservationTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

type Reservation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookID      primitive.ObjectID `bson:"bookId" json:"bookId"`
	FullName    string             `bson:"fullName" json:"fullName"`
	Phone       string             `bson:"phone" json:"phone"`
	Subdivision string             `bson:"subdivision" json:"subdivision"`
	Comment     string             `bson:"comment,omitempty" json:"comment,omitempty"`
	Status      ReservationStatus  `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
