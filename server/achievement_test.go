package main

import "testing"

func TestCheckAchievements(t *testing.T) {
	db := openTestDB(t)
	alice := mustCreatePlayer(t, db, "alice")
	bob := mustCreatePlayer(t, db, "bob")

	r := RoundResult{RoomID: "r", Seats: []SeatResult{
		{Name: "alice", AuthID: alice, Score: 520, Rows: 41, Gnus: 3},
		{Name: "bob", AuthID: bob, Score: 525, Rows: 2, Gnus: 60, Won: true},
	}}
	if _, err := db.RecordRound(r); err != nil {
		t.Fatal(err)
	}

	ids := func(defs []AchievementDef) map[string]bool {
		m := make(map[string]bool)
		for _, d := range defs {
			m[d.ID] = true
		}
		return m
	}

	got := ids(CheckAchievements(db, r, 0))
	if len(got) != 2 || !got["deep_sea"] || !got["big_fish"] {
		t.Errorf("alice unlocked %v", got)
	}
	got = ids(CheckAchievements(db, r, 1))
	if len(got) != 4 || !got["first_catch"] || !got["big_fish"] || !got["hoarder"] || !got["photo_finish"] {
		t.Errorf("bob unlocked %v", got)
	}

	if again := CheckAchievements(db, r, 1); len(again) != 0 {
		t.Errorf("achievements unlocked twice: %v", again)
	}
	stored, err := db.GetAchievements(bob)
	if err != nil || len(stored) != 4 {
		t.Errorf("stored = %v, %v", stored, err)
	}
}

func TestCheckAchievementsSkipsGuests(t *testing.T) {
	db := openTestDB(t)
	r := RoundResult{Seats: []SeatResult{{Name: "guest", Score: 900, Won: true}}}
	if got := CheckAchievements(db, r, 0); got != nil {
		t.Errorf("guest unlocked %v", got)
	}
	if got := CheckAchievements(nil, r, 0); got != nil {
		t.Errorf("nil db unlocked %v", got)
	}
	if got := CheckAchievements(db, r, 5); got != nil {
		t.Errorf("bad seat unlocked %v", got)
	}
}
