package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/service"
	"go.uber.org/zap"
)

// RawBook is one entry of books.json.
type RawBook struct {
	ID          int    `json:"id"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

type libraryFile struct {
	Library *[]RawBook `json:"library"`
}

// LoadLibrary decodes a books.json document.
func LoadLibrary(r io.Reader) ([]RawBook, error) {
	var f libraryFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode books json: %w", err)
	}
	if f.Library == nil {
		return nil, fmt.Errorf(`invalid books json: missing "library" array`)
	}
	return *f.Library, nil
}

type rawCategory struct {
	Name    string `json:"name"`
	IconURL string `json:"iconUrl"`
	Href    string `json:"href"`
}

// LoadCategories decodes a JSON array of {name, iconUrl, href?}.
func LoadCategories(r io.Reader) ([]models.Category, error) {
	var raw []rawCategory
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode categories json: %w", err)
	}
	out := make([]models.Category, 0, len(raw))
	for i, c := range raw {
		name, icon := strings.TrimSpace(c.Name), strings.TrimSpace(c.IconURL)
		if name == "" || icon == "" {
			return nil, fmt.Errorf("category %d: name and iconUrl are required", i)
		}
		out = append(out, models.Category{Name: name, IconURL: icon, Href: strings.TrimSpace(c.Href)})
	}
	return out, nil
}

// SectionTags curates home sections by position in books.json:
// the first twenty are recommended, 40 and later are new, every fifth is a commander pick.
func SectionTags(id int) []models.SectionTag {
	var tags []models.SectionTag
	if id <= 20 {
		tags = append(tags, models.SectionRecommended)
	}
	if id >= 40 {
		tags = append(tags, models.SectionNew)
	}
	if id%5 == 0 {
		tags = append(tags, models.SectionCommander)
	}
	return tags
}

// Transformer turns books.json entries into catalog books.
type Transformer struct {
	Covers     *CoverIndex
	PublicBase string
	Logger     *zap.Logger
}

// CoverFile returns the matched local cover file for raw, if any.
func (t *Transformer) CoverFile(raw RawBook) (string, bool) {
	if t.Covers == nil {
		return "", false
	}
	return t.Covers.Match(raw.Title)
}

// Book builds the stored book. Without a local cover the original imageUrl is kept.
func (t *Transformer) Book(raw RawBook) models.Book {
	cover := raw.ImageURL
	if file, ok := t.CoverFile(raw); ok {
		cover = service.PublicCoverURL(t.PublicBase, service.CoverKey(file, ""))
	} else {
		t.Logger.Warn("no local cover image found, keeping original imageUrl",
			zap.String("title", raw.Title),
			zap.String("author", raw.Author),
			zap.String("image_url", raw.ImageURL))
	}
	return models.Book{
		Title:           strings.TrimSpace(raw.Title),
		Author:          strings.TrimSpace(raw.Author),
		CoverURL:        cover,
		Description:     strings.TrimSpace(raw.Description),
		Status:          models.BookInStock,
		PopularityScore: 100 - raw.ID,
		SectionTags:     SectionTags(raw.ID),
	}
}
