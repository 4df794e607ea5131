package feed

import (
	"math"

	"tripshare/internal/model"
)

// CommentCount is the number of comments on exp, including the creator's own.
func CommentCount(exp model.Experience) int {
	return len(exp.Comments)
}

// AverageRating is the mean rating rounded to one decimal, or 0 for no input.
func AverageRating(experiences []model.Experience) float64 {
	if len(experiences) == 0 {
		return 0
	}
	total := 0
	for _, exp := range experiences {
		total += exp.Rating
	}
	avg := float64(total) / float64(len(experiences))
	return math.Round(avg*10) / 10
}

// Stats summarises a user's experiences for their profile.
func Stats(experiences []model.Experience) model.ProfileStats {
	comments := 0
	for _, exp := range experiences {
		comments += CommentCount(exp)
	}
	return model.ProfileStats{
		ExperienceCount: len(experiences),
		CommentCount:    comments,
		AverageRating:   AverageRating(experiences),
	}
}
