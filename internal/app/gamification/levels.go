package gamification

// Level is one tier of the contributor progression ladder. Ranges are
// inclusive and contiguous; the top tier has no upper bound.
type Level struct {
	Ordinal int    `json:"ordinal"`
	Name    string `json:"name"`
	Min     int    `json:"min"`
	Max     int    `json:"max"` // -1 means unbounded
}

// Levels is the full ladder, lowest tier first.
var Levels = []Level{
	{Ordinal: 1, Name: "Piede Tenero", Min: 0, Max: 49},
	{Ordinal: 2, Name: "Capo Sestiglia", Min: 50, Max: 149},
	{Ordinal: 3, Name: "Esploratore/Guida", Min: 150, Max: 274},
	{Ordinal: 4, Name: "Giovane Capo", Min: 275, Max: 399},
	{Ordinal: 5, Name: "Sentinella", Min: 400, Max: 599},
	{Ordinal: 6, Name: "Capo Brevettato", Min: 600, Max: -1},
}

// LevelForPoints returns the tier whose range contains points. Falls back to
// the top tier, which also covers any gap that a future ladder edit could
// introduce.
func LevelForPoints(points int) Level {
	for _, l := range Levels {
		if points >= l.Min && (l.Max < 0 || points <= l.Max) {
			return l
		}
	}
	return Levels[len(Levels)-1]
}

// PointsToNextLevel returns how many points are missing to enter the next
// tier, or 0 when already at the top.
func PointsToNextLevel(points int) int {
	current := LevelForPoints(points)
	for _, l := range Levels {
		if l.Ordinal == current.Ordinal+1 {
			return l.Min - points
		}
	}
	return 0
}
