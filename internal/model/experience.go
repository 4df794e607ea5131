package model

import (
	"errors"
	"strings"
	"time"
)

// Category classifies an experience.
type Category string

const (
	CategoryRestaurant    Category = "restaurant"
	CategoryCafe          Category = "cafe"
	CategoryNature        Category = "nature"
	CategoryCulture       Category = "culture"
	CategoryAttraction    Category = "attraction"
	CategoryNightlife     Category = "nightlife"
	CategoryAccommodation Category = "accommodation"
	CategoryShopping      Category = "shopping"
	CategoryOther         Category = "other"

	// CategoryAll is only meaningful as a feed filter.
	CategoryAll Category = "all"
)

// Categories lists every assignable category in display order.
var Categories = []Category{
	CategoryRestaurant,
	CategoryCafe,
	CategoryNature,
	CategoryCulture,
	CategoryAttraction,
	CategoryNightlife,
	CategoryAccommodation,
	CategoryShopping,
	CategoryOther,
}

// Valid reports whether c can be assigned to an experience.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts an assignable category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Experience is a user's post about a place.
type Experience struct {
	ID            string       `json:"id"`
	CreatorID     string       `json:"creator_id"`
	PlaceName     string       `json:"place_name"`
	Type          Category     `json:"type"`
	Location      string       `json:"location"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
	Description   string       `json:"description"`
	Tips          string       `json:"tips"`
	Rating        int          `json:"rating"`
	Images        []string     `json:"images"`
	FeaturedImage string       `json:"featured_image"`
	CreatedAt     time.Time    `json:"created_at"`
	Comments      []Comment    `json:"comments"`
	Creator       *UserSummary `json:"creator,omitempty"`
}

// Experience constraints
const (
	MinRating           = 1
	MaxRating           = 5
	MaxExperienceImages = 10
)

// CreateExperienceInput is the request body for POST /experiences.
type CreateExperienceInput struct {
	PlaceName     string       `json:"place_name"`
	Type          string       `json:"type"`
	Location      string       `json:"location"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
	Description   string       `json:"description"`
	Tips          string       `json:"tips"`
	Rating        int          `json:"rating"`
	Images        []string     `json:"images"`
	FeaturedImage string       `json:"featured_image,omitempty"`
}

// Normalize trims the input and checks every creation rule.
// On success FeaturedImage is always one of Images.
func (in *CreateExperienceInput) Normalize() (Category, error) {
	in.PlaceName = strings.TrimSpace(in.PlaceName)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	in.Tips = strings.TrimSpace(in.Tips)
	in.FeaturedImage = strings.TrimSpace(in.FeaturedImage)

	if in.PlaceName == "" || in.Location == "" || in.Description == "" {
		return "", ErrMissingFields
	}

	category, err := ParseCategory(in.Type)
	if err != nil {
		return "", err
	}

	if in.Rating < MinRating || in.Rating > MaxRating {
		return "", ErrInvalidRating
	}

	images := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		return "", ErrNoImages
	}
	if len(images) > MaxExperienceImages {
		return "", ErrTooManyImages
	}
	in.Images = images

	if in.FeaturedImage == "" {
		in.FeaturedImage = images[0]
	} else if !contains(images, in.FeaturedImage) {
		return "", ErrFeaturedImageNotInImages
	}

	if in.Coordinates != nil && !in.Coordinates.Valid() {
		return "", ErrInvalidCoordinates
	}

	return category, nil
}

// FeedQuery holds the feed search parameters.
type FeedQuery struct {
	Term     string
	Type     Category
	Near     *Coordinates
	RadiusKm float64
}

// ProfileStats aggregates a user's experiences.
type ProfileStats struct {
	ExperienceCount int     `json:"experience_count"`
	CommentCount    int     `json:"comment_count"`
	AverageRating   float64 `json:"average_rating"`
}

// FeedResponse is the feed search response.
type FeedResponse struct {
	Experiences []Experience `json:"experiences"`
	Count       int          `json:"count"`
}

// Experience errors
var (
	ErrExperienceNotFound       = errors.New("experience not found")
	ErrNotExperienceOwner       = errors.New("not the owner of this experience")
	ErrInvalidCategory          = errors.New("invalid category")
	ErrInvalidRating            = errors.New("rating must be between 1 and 5")
	ErrNoImages                 = errors.New("at least one image is required")
	ErrTooManyImages            = errors.New("too many images")
	ErrFeaturedImageNotInImages = errors.New("featured image must be one of the images")
	ErrInvalidCoordinates       = errors.New("invalid coordinates")
)

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
