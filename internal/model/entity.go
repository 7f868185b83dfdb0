package model

import "time"

// HeroRole is a hero's battlefield role.
type HeroRole string

const (
	RoleMarshal   HeroRole = "marshal"
	RoleWarrior   HeroRole = "warrior"
	RoleTactician HeroRole = "tactician"
)

// Hero represents one scanned hero.
type Hero struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Level     int      `json:"level"`
	Stars     int      `json:"stars"`
	Role      HeroRole `json:"role,omitempty"`
	Specialty string   `json:"specialty,omitempty"`
	Rarity    string   `json:"rarity,omitempty"`
	Power     int64    `json:"power"`

	Might    int `json:"might,omitempty"`
	Strategy int `json:"strategy,omitempty"`
	Siege    int `json:"siege,omitempty"`
	Armor    int `json:"armor,omitempty"`

	TalentsConfigured  bool     `json:"talents_configured"`
	TalentBuild        string   `json:"talent_build,omitempty"`
	TalentIssues       []string `json:"talent_issues,omitempty"`
	OptimizationStatus string   `json:"optimization_status,omitempty"`

	Notes       string    `json:"notes,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// EquipmentItem represents one scanned piece of equipment.
type EquipmentItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slot   string `json:"slot,omitempty"`
	Rarity string `json:"rarity,omitempty"` // green, blue, purple, gold
	Level  int    `json:"level"`
	Stars  int    `json:"stars"`

	MainStat       string         `json:"main_stat,omitempty"`
	MainStatValue  int            `json:"main_stat_value,omitempty"`
	SecondaryStats map[string]int `json:"secondary_stats,omitempty"`

	GemSlots   int    `json:"gem_slots,omitempty"`
	EquippedTo string `json:"equipped_to,omitempty"`

	Notes       string    `json:"notes,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// Building represents one scanned building.
type Building struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Level    int    `json:"level"`
	MaxLevel int    `json:"max_level,omitempty"`

	IsProduction   bool            `json:"is_production"`
	ProductionRate *ProductionRate `json:"production_rate,omitempty"`

	Notes       string    `json:"notes,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// ProductionRate describes a production building's output.
type ProductionRate struct {
	Resource string `json:"resource"`
	PerHour  int64  `json:"per_hour"`
	Capacity int64  `json:"capacity,omitempty"`
}

// Resources holds the player's resource stocks.
type Resources struct {
	Wood  int64 `json:"wood"`
	Food  int64 `json:"food"`
	Stone int64 `json:"stone"`
	Gold  int64 `json:"gold"`
	Gems  int64 `json:"gems,omitempty"`
}

// PlayerProfile represents the scanned player profile.
type PlayerProfile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Level        int       `json:"level"`
	Power        int64     `json:"power"`
	Civilization string    `json:"civilization,omitempty"`
	Alliance     string    `json:"alliance,omitempty"`
	Resources    Resources `json:"resources"`
	LastUpdated  time.Time `json:"last_updated"`
}
