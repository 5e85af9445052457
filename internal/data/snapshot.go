package data

import (
	"time"

	"realm/internal/catalog"
	"realm/internal/inventory"
	"realm/internal/stats"
)

// SkillState is a skill as persisted. Timers are stored as remaining time
// because the server clock does not survive a restart.
type SkillState struct {
	Key      string        `json:"key"`
	Learned  bool          `json:"learned"`
	Level    int           `json:"level"`
	Cast     time.Duration `json:"cast"`
	Cooldown time.Duration `json:"cooldown"`
	Buff     time.Duration `json:"buff"`
}

type BuffState struct {
	Key       string        `json:"key"`
	Level     int           `json:"level"`
	Remaining time.Duration `json:"remaining"`
}

type QuestState struct {
	Key       string `json:"key"`
	Progress  int    `json:"progress"`
	Completed bool   `json:"completed"`
}

// CharacterSnapshot is everything needed to put a character back into the
// world.
type CharacterSnapshot struct {
	Account         string           `json:"account"`
	Name            string           `json:"name"`
	Class           string           `json:"class"`
	Position        catalog.Position `json:"position"`
	Level           int              `json:"level"`
	Experience      int64            `json:"experience"`
	SkillExperience int64            `json:"skill_experience"`
	Gold            int64            `json:"gold"`
	Health          int              `json:"health"`
	Mana            int              `json:"mana"`
	Attributes      stats.Attributes `json:"attributes"`
	Inventory       []inventory.Item `json:"inventory"`
	Equipment       []inventory.Item `json:"equipment"`
	Skills          []SkillState     `json:"skills"`
	Buffs           []BuffState      `json:"buffs"`
	Quests          []QuestState     `json:"quests"`
}

// Summary is the short form listed on the character selection screen.
type Summary struct {
	Name  string `json:"name"`
	Class string `json:"class"`
	Level int    `json:"level"`
}

func (c CharacterSnapshot) Summary() Summary {
	return Summary{Name: c.Name, Class: c.Class, Level: c.Level}
}
