package main

// Achievement definitions
type AchievementDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var Achievements = []AchievementDef{
	{"first_catch", "First Catch", "Win your first round"},
	{"school", "School of Fish", "Win 10 rounds"},
	{"shoal", "Shoal", "Win 100 rounds"},
	{"deep_sea", "Deep Sea", "Clear 40 rows in a single round"},
	{"trawler", "Trawler", "Clear 1000 rows in total"},
	{"big_fish", "Big Fish", "Score 500 points in a single round"},
	{"hoarder", "Gnu Hoarder", "End a round holding 50 gnus"},
	{"photo_finish", "Photo Finish", "Win a round by fewer than 10 points"},
	{"regular", "Regular", "Play for 1 hour total"},
}

// CheckAchievements checks if any new achievements should be unlocked for
// the given seat of a finished round. Returns the newly unlocked ones.
func CheckAchievements(db *DB, r RoundResult, seat int) []AchievementDef {
	if db == nil || seat < 0 || seat >= len(r.Seats) || r.Seats[seat].AuthID == 0 {
		return nil
	}
	s := r.Seats[seat]

	stats, err := db.GetStats(s.AuthID)
	if err != nil || stats == nil {
		return nil
	}

	existing, err := db.GetAchievements(s.AuthID)
	if err != nil {
		return nil
	}
	has := make(map[string]bool, len(existing))
	for _, a := range existing {
		has[a] = true
	}

	margin := -1
	if s.Won {
		for i, o := range r.Seats {
			if i != seat {
				margin = s.Score - o.Score
			}
		}
	}

	var unlocked []AchievementDef

	check := func(id string) bool {
		if has[id] {
			return false
		}
		switch id {
		case "first_catch":
			return stats.Wins >= 1
		case "school":
			return stats.Wins >= 10
		case "shoal":
			return stats.Wins >= 100
		case "deep_sea":
			return s.Rows >= 40
		case "trawler":
			return stats.TotalRows >= 1000
		case "big_fish":
			return s.Score >= 500
		case "hoarder":
			return s.Gnus >= 50
		case "photo_finish":
			return margin >= 0 && margin < 10
		case "regular":
			return stats.Playtime >= 3600
		}
		return false
	}

	for _, def := range Achievements {
		if check(def.ID) {
			if newlyUnlocked, err := db.UnlockAchievement(s.AuthID, def.ID); err == nil && newlyUnlocked {
				unlocked = append(unlocked, def)
			}
		}
	}

	return unlocked
}
