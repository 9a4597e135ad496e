package handlers

import (
	"time"

	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/service"
)

type bookListItem struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	CoverURL        string `json:"coverUrl"`
	Status          string `json:"status"`
	Description     string `json:"description,omitempty"`
	Difficulty      string `json:"difficulty,omitempty"`
	PopularityScore *int   `json:"popularityScore,omitempty"`
}

type bookSearchItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	CoverURL string `json:"coverUrl"`
	Status   string `json:"status"`
}

type bookDetail struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	CoverURL        string   `json:"coverUrl"`
	Status          string   `json:"status"`
	Description     string   `json:"description,omitempty"`
	Difficulty      string   `json:"difficulty,omitempty"`
	PopularityScore int      `json:"popularityScore"`
	SectionTags     []string `json:"sectionTags"`
}

type reservationBook struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Status string `json:"status"`
}

type reservationResponse struct {
	ID          string           `json:"id"`
	BookID      string           `json:"bookId"`
	Status      string           `json:"status"`
	CreatedAt   string           `json:"createdAt"`
	FullName    string           `json:"fullName"`
	Phone       string           `json:"phone"`
	Subdivision string           `json:"subdivision"`
	Comment     string           `json:"comment,omitempty"`
	Book        *reservationBook `json:"book,omitempty"`
}

type categoryResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IconURL string `json:"iconUrl"`
	Href    string `json:"href,omitempty"`
}

func toListItem(b models.Book) bookListItem {
	score := b.PopularityScore
	return bookListItem{
		ID:              b.ID.Hex(),
		Title:           b.Title,
		Author:          b.Author,
		CoverURL:        b.CoverURL,
		Status:          string(b.Status),
		Description:     b.Description,
		Difficulty:      string(b.Difficulty),
		PopularityScore: &score,
	}
}

func toListItems(books []models.Book) []bookListItem {
	out := make([]bookListItem, 0, len(books))
	for _, b := range books {
		out = append(out, toListItem(b))
	}
	return out
}

func toSearchItems(books []models.Book) []bookSearchItem {
	out := make([]bookSearchItem, 0, len(books))
	for _, b := range books {
		out = append(out, bookSearchItem{
			ID:       b.ID.Hex(),
			Title:    b.Title,
			Author:   b.Author,
			CoverURL: b.CoverURL,
			Status:   string(b.Status),
		})
	}
	return out
}

func toBookDetail(b *models.Book) bookDetail {
	tags := make([]string, 0, len(b.SectionTags))
	for _, t := range b.SectionTags {
		tags = append(tags, string(t))
	}
	return bookDetail{
		ID:              b.ID.Hex(),
		Title:           b.Title,
		Author:          b.Author,
		CoverURL:        b.CoverURL,
		Status:          string(b.Status),
		Description:     b.Description,
		Difficulty:      string(b.Difficulty),
		PopularityScore: b.PopularityScore,
		SectionTags:     tags,
	}
}

func toReservation(v service.ReservationView) reservationResponse {
	r := v.Reservation
	out := reservationResponse{
		ID:          r.ID.Hex(),
		BookID:      r.BookID.Hex(),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339Nano),
		FullName:    r.FullName,
		Phone:       r.Phone,
		Subdivision: r.Subdivision,
		Comment:     r.Comment,
	}
	if v.Book != nil {
		out.Book = &reservationBook{
			ID:     v.Book.ID.Hex(),
			Title:  v.Book.Title,
			Author: v.Book.Author,
			Status: string(v.Book.Status),
		}
	}
	return out
}

func toCategories(items []models.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(items))
	for _, c := range items {
		out = append(out, categoryResponse{
			ID:      c.ID.Hex(),
			Name:    c.Name,
			IconURL: c.IconURL,
			Href:    c.Href,
		})
	}
	return out
}
