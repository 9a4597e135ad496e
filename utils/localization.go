package utils

import "github.com/kevinaaaquil/library/models"

// StatusOption is a book status with its display label.
type StatusOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// DifficultyOption is a difficulty level with its display label.
type DifficultyOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var statusLabels = map[models.BookStatus]string{
	models.BookInStock:  "В наявності",
	models.BookReserved: "Заброньована",
	models.BookIssued:   "Видана",
}

var difficultyLabels = map[models.Difficulty]string{
	models.DifficultyBasic:    "Базовий",
	models.DifficultyMedium:   "Середній",
	models.DifficultyAdvanced: "Поглиблений",
}

// StatusOptions lists every book status in declaration order.
func StatusOptions() []StatusOption {
	out := make([]StatusOption, 0, len(models.BookStatuses))
	for _, s := range models.BookStatuses {
		out = append(out, StatusOption{Value: string(s), Label: statusLabels[s]})
	}
	return out
}

// DifficultyOptions lists every difficulty in declaration order.
func DifficultyOptions() []DifficultyOption {
	out := make([]DifficultyOption, 0, len(models.Difficulties))
	for _, d := range models.Difficulties {
		out = append(out, DifficultyOption{ID: string(d), Label: difficultyLabels[d]})
	}
	return out
}
