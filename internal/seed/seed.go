// Package seed provides the demo dataset: three travellers, three
// experiences and two comments. Every demo account uses DemoPassword.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"tripshare/internal/model"
	"tripshare/internal/repository"
)

const DemoPassword = "demo123"

// Dataset is the full demo content.
type Dataset struct {
	Users       []model.User
	Experiences []model.Experience
	Comments    []model.Comment
}

func strPtr(s string) *string { return &s }

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

const pexels = "https://images.pexels.com/photos/"

// Build hashes DemoPassword with cost and returns the dataset.
func Build(cost int) (*Dataset, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	h := string(hash)

	users := []model.User{
		{
			ID: "1", Username: "yael_travel", FullName: "Yael Cohen", Email: "yael@example.com",
			PasswordHash: h,
			ProfileImage: strPtr(pexels + "774909/pexels-photo-774909.jpeg?auto=compress&cs=tinysrgb&w=150&h=150&fit=crop"),
			Bio:          strPtr("Loves travelling and discovering new places. Always looking for the next experience!"),
		},
		{
			ID: "2", Username: "omer_foodie", FullName: "Omer Levi", Email: "omer@example.com",
			PasswordHash: h,
			ProfileImage: strPtr(pexels + "91227/pexels-photo-91227.jpeg?auto=compress&cs=tinysrgb&w=150&h=150&fit=crop"),
			Bio:          strPtr("Food and nature lover. Life is better with good food and a great view."),
		},
		{
			ID: "3", Username: "dana_explorer", FullName: "Dana Rosen", Email: "dana@example.com",
			PasswordHash: h,
			ProfileImage: strPtr(pexels + "733872/pexels-photo-733872.jpeg?auto=compress&cs=tinysrgb&w=150&h=150&fit=crop"),
			Bio:          strPtr("World explorer and coffee addict. Camera always ready for the next shot."),
		},
	}

	experiences := []model.Experience{
		{
			ID: "1", CreatorID: "1", PlaceName: "Franco Restaurant", Type: model.CategoryRestaurant,
			Location:    "Tel Aviv - Port",
			Coordinates: &model.Coordinates{Lat: 32.0853, Lng: 34.7818},
			Description: "An amazing Italian restaurant with a sea view. Romantic atmosphere and perfect food. We sat on the terrace and felt like we were on holiday in Italy.",
			Tips:        "Book ahead, especially for the weekend. The truffle mushroom pasta is a must! Paid parking nearby.",
			Rating:      5,
			Images: []string{
				pexels + "262978/pexels-photo-262978.jpeg?auto=compress&cs=tinysrgb&w=800",
				pexels + "1099680/pexels-photo-1099680.jpeg?auto=compress&cs=tinysrgb&w=800",
				pexels + "914388/pexels-photo-914388.jpeg?auto=compress&cs=tinysrgb&w=800",
			},
			CreatedAt: ts("2024-01-15T10:30:00Z"),
		},
		{
			ID: "2", CreatorID: "2", PlaceName: "Ein Gedi Reserve", Type: model.CategoryNature,
			Location:    "Dead Sea",
			Coordinates: &model.Coordinates{Lat: 31.4618, Lng: 35.3889},
			Description: "A wonderful hike to the Ein Gedi waterfalls. The trail is accessible to everyone and the view is breathtaking. The water is cool and refreshing.",
			Tips:        "Arrive early (7:00-8:00) to avoid the heat and the crowds. Bring plenty of water and a camera! Restrooms and a snack bar at the entrance.",
			Rating:      4,
			Images: []string{
				pexels + "417074/pexels-photo-417074.jpeg?auto=compress&cs=tinysrgb&w=800",
				pexels + "1591447/pexels-photo-1591447.jpeg?auto=compress&cs=tinysrgb&w=800",
			},
			CreatedAt: ts("2024-01-10T08:00:00Z"),
		},
		{
			ID: "3", CreatorID: "3", PlaceName: "Cafe Nordau", Type: model.CategoryCafe,
			Location:    "Tel Aviv - Sheinkin",
			Coordinates: &model.Coordinates{Lat: 32.0668, Lng: 34.7758},
			Description: "A magical cafe on Sheinkin street with a bohemian vibe. Excellent coffee, perfect for working or meeting friends.",
			Tips:        "Their iced coffee with almond milk is the best in town! Strong WiFi and comfortable seating. Open late.",
			Rating:      4,
			Images: []string{
				pexels + "1307698/pexels-photo-1307698.jpeg?auto=compress&cs=tinysrgb&w=800",
				pexels + "2074130/pexels-photo-2074130.jpeg?auto=compress&cs=tinysrgb&w=800",
			},
			CreatedAt: ts("2024-01-08T14:20:00Z"),
		},
	}
	for i := range experiences {
		experiences[i].FeaturedImage = experiences[i].Images[0]
	}

	comments := []model.Comment{
		{
			ID: "1", ExperienceID: "1", CommenterID: "2",
			Content:   "Sounds amazing! Have to try it next time I'm in Tel Aviv",
			CreatedAt: ts("2024-01-15T12:00:00Z"),
		},
		{
			ID: "2", ExperienceID: "3", CommenterID: "1",
			Content:   "Love this place! The coffee really is excellent ❤️",
			CreatedAt: ts("2024-01-08T16:30:00Z"),
		},
	}

	return &Dataset{Users: users, Experiences: experiences, Comments: comments}, nil
}

// Load writes the dataset through the repositories. Users that already
// exist are left alone, so Load can run against a seeded database.
func Load(ctx context.Context, d *Dataset, users repository.UserRepository, experiences repository.ExperienceRepository, comments repository.CommentRepository) error {
	fresh := make(map[string]bool, len(d.Users))
	for i := range d.Users {
		u := d.Users[i]
		err := users.Create(ctx, &u)
		switch {
		case err == nil:
			fresh[u.ID] = true
		case errors.Is(err, model.ErrUsernameTaken), errors.Is(err, model.ErrEmailTaken):
			log.Info().Str("username", u.Username).Msg("seed: user exists, skipping")
		default:
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}

	for i := range d.Experiences {
		e := d.Experiences[i]
		if !fresh[e.CreatorID] {
			continue
		}
		if err := experiences.Create(ctx, &e); err != nil {
			return fmt.Errorf("seed experience %s: %w", e.ID, err)
		}
	}

	for i := range d.Comments {
		c := d.Comments[i]
		creatorID, err := experiences.GetCreatorID(ctx, c.ExperienceID)
		if err != nil || !fresh[creatorID] {
			continue
		}
		if err := comments.Create(ctx, &c); err != nil {
			return fmt.Errorf("seed comment %s: %w", c.ID, err)
		}
	}

	log.Info().Int("users", len(fresh)).Msg("seed: demo data loaded")
	return nil
}
