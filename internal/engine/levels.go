package engine

// Level maps a per-subject correct-answer count onto a title.
type Level struct {
	Min   int    `json:"min"`
	Title string `json:"title"`
}

var levels = []Level{
	{Min: 0, Title: "Novice"},
	{Min: 20, Title: "Apprentice"},
	{Min: 50, Title: "Scholar"},
	{Min: 100, Title: "Expert"},
	{Min: 250, Title: "Master"},
	{Min: 500, Title: "Grandmaster"},
}

// LevelFor returns the highest level whose threshold the count meets.
func LevelFor(correct int) Level {
	current := levels[0]
	for _, l := range levels {
		if correct >= l.Min {
			current = l
		}
	}
	return current
}
