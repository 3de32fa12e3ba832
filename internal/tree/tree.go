// Package tree maps a user's accumulated points to the growth stages of their tree.
package tree

import "math"

const (
	PointsPerCompletion = 2
	MaxPoints           = 1000
)

type Stage struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	MinPoints int    `json:"min_points"`
	MaxPoints int    `json:"max_points"`
}

// Stages are contiguous and cover [0, MaxPoints].
var Stages = []Stage{
	{ID: 1, Name: "Seed", Emoji: "🌰", MinPoints: 0, MaxPoints: 99},
	{ID: 2, Name: "Sprout", Emoji: "🌱", MinPoints: 100, MaxPoints: 299},
	{ID: 3, Name: "Sapling", Emoji: "🌿", MinPoints: 300, MaxPoints: 499},
	{ID: 4, Name: "Young Tree", Emoji: "🌳", MinPoints: 500, MaxPoints: 699},
	{ID: 5, Name: "Mature Tree", Emoji: "🌲", MinPoints: 700, MaxPoints: 999},
	{ID: 6, Name: "Mighty Tree", Emoji: "🌴", MinPoints: 1000, MaxPoints: 1000},
}

// Snapshot is everything a client needs to draw the tree.
type Snapshot struct {
	Points                  int     `json:"points"`
	Stage                   Stage   `json:"stage"`
	OverallPercentage       float64 `json:"overall_percentage"`
	StageProgressPercentage int     `json:"stage_progress_percentage"`
}

func Clamp(points int) int {
	return min(max(points, 0), MaxPoints)
}

// StageFor returns the stage containing points, the first stage if none does.
func StageFor(points int) Stage {
	for _, s := range Stages {
		if points >= s.MinPoints && points <= s.MaxPoints {
			return s
		}
	}
	return Stages[0]
}

// OverallPercentage is progress towards MaxPoints. Below 1% it keeps one decimal,
// above it is rounded to a whole number.
func OverallPercentage(points int) float64 {
	exact := float64(Clamp(points)) / MaxPoints * 100
	if exact < 1 {
		return math.Round(exact*10) / 10
	}
	return math.Min(math.Round(exact), 100)
}

// StageProgressPercentage is progress through the current stage; 100 at the last stage.
func StageProgressPercentage(points int) int {
	points = Clamp(points)
	stage := StageFor(points)
	if stage.ID == Stages[len(Stages)-1].ID {
		return 100
	}
	span := stage.MaxPoints - stage.MinPoints
	return int(math.Round(float64(points-stage.MinPoints) / float64(span) * 100))
}

func SnapshotOf(points int) Snapshot {
	points = Clamp(points)
	return Snapshot{
		Points:                  points,
		Stage:                   StageFor(points),
		OverallPercentage:       OverallPercentage(points),
		StageProgressPercentage: StageProgressPercentage(points),
	}
}
