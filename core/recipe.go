package core

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known difficulty levels
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// CookTime buckets recipes by preparation time
type CookTime string

const (
	CookTimeAny   CookTime = ""
	CookTimeQuick CookTime = "quick"
	CookTimeLong  CookTime = "long"
)

// Bucket bounds in minutes, both inclusive
const (
	QuickCookTime = 30
	LongCookTime  = 60
)

func (c CookTime) Valid() bool {
	switch c {
	case CookTimeAny, CookTimeQuick, CookTimeLong:
		return true
	}
	return false
}

// Matches reports whether a recipe taking minutes falls in bucket c
func (c CookTime) Matches(minutes int) bool {
	switch c {
	case CookTimeQuick:
		return minutes <= QuickCookTime
	case CookTimeLong:
		return minutes >= LongCookTime
	}
	return true
}

type Recipe struct {
	ID               int        `json:"id"`
	Owner            string     `json:"owner"`
	Title            string     `json:"title"`
	ShortDescription string     `json:"short_description"`
	Ingredients      string     `json:"ingredients"`
	Steps            string     `json:"steps"`
	CookTime         int        `json:"cook_time"` // minutes
	Difficulty       Difficulty `json:"difficulty"`
	ImageURL         string     `json:"image_url,omitempty"`
	LikesCount       int        `json:"likes_count"`
	CommentsCount    int        `json:"comments_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// RecipeInput carries the writable fields of a recipe
type RecipeInput struct {
	Title            string     `json:"title"`
	ShortDescription string     `json:"short_description"`
	Ingredients      string     `json:"ingredients"`
	Steps            string     `json:"steps"`
	CookTime         int        `json:"cook_time"`
	Difficulty       Difficulty `json:"difficulty"`
	ImageURL         string     `json:"image_url,omitempty"`
}

type Profile struct {
	ID             int       `json:"id"`
	Owner          string    `json:"owner"`
	Name           string    `json:"name"`
	Content        string    `json:"content"`
	Image          string    `json:"image,omitempty"`
	RecipesCount   int       `json:"recipes_count"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProfileInput carries the writable fields of a profile
type ProfileInput struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

type Like struct {
	ID        int       `json:"id"`
	Owner     string    `json:"owner"`
	Recipe    int       `json:"recipe"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        int       `json:"id"`
	Owner     string    `json:"owner"`
	Recipe    int       `json:"recipe"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Follower struct {
	ID        int       `json:"id"`
	Owner     string    `json:"owner"`
	Followed  int       `json:"followed"` // profile ID
	CreatedAt time.Time `json:"created_at"`
}

// Page is the paginated list envelope returned by list endpoints
type Page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []T    `json:"results"`
}
