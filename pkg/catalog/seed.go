package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spawnwatch/spawnwatch/pkg/recur"
)

// DefaultSeed returns the built-in spawn catalog used when the store holds
// no persisted events and no seed file is configured.
func DefaultSeed() []Event {
	return []Event{
		{
			ID:          "1",
			Name:        "Ruud Cow",
			Location:    "Lorencia",
			Rewards:     []string{"100 ~ 1000 Ruud"},
			Rule:        &recur.Rule{Kind: recur.KindHourly, Minute: 0},
			Description: "Spawns every hour",
		},
		{
			ID:       "2",
			Name:     "Red Monkey",
			Location: "Ferea",
			Rewards: []string{
				"Blessed Decoration Ring - 1 day",
				"Ability Enhancement Stone x5",
				"Ability Crystal x5",
			},
			Rule: &recur.Rule{Kind: recur.KindDaily, Daily: []string{"00:30", "03:30", "06:30", "16:30", "19:30", "21:30"}},
		},
		{
			ID:          "3",
			Name:        "Power Chicken",
			Location:    "Noria",
			Rewards:     []string{"150 WC", "200 ~ 2500 Ruud"},
			Rule:        &recur.Rule{Kind: recur.KindInterval, EveryHours: 3},
			Description: "Every 3 hours",
		},
		{
			ID:       "4",
			Name:     "Fire Flame",
			Location: "Vulcanus",
			Rewards: []string{
				"Jewel of Harmony",
				"Jewel of Creation",
				"Elemental Rune",
				"Golden Sentence",
			},
			Rule: &recur.Rule{Kind: recur.KindDaily, Daily: []string{"03:00", "06:00", "16:30", "19:30"}},
		},
		{
			ID:       "5",
			Name:     "White Sheep",
			Location: "Elbeland",
			Rewards:  []string{"300 GP", "300 ~ 2000 Ruud"},
			Rule:     &recur.Rule{Kind: recur.KindDaily, Daily: []string{"01:00", "03:00", "15:30", "20:00", "22:30"}},
		},
		{
			ID:          "6",
			Name:        "Brown Horse",
			Location:    "Devias",
			Rewards:     []string{"50 WC", "150 ~ 500 Ruud", "Jewel of Chaos"},
			Rule:        &recur.Rule{Kind: recur.KindHourly, Minute: 30},
			Description: "Every hour at :30",
		},
		{
			ID:          "7",
			Name:        "Dead Fear Gems",
			Location:    "Lorencia",
			Rewards:     []string{"50 WC", "Jewel of Harmony", "Gemstone"},
			Rule:        &recur.Rule{Kind: recur.KindHourly, Minute: 50},
			Description: "Every hour at :50",
		},
		{
			ID:          "8",
			Name:        "Jewel Puppy",
			Location:    "Noria",
			Rewards:     []string{"Guaranteed x2 Jewel", "1 ~ 3 random jewels"},
			Rule:        &recur.Rule{Kind: recur.KindHourly, Minute: 35},
			Description: "Every hour at :35",
		},
		{
			ID:          "9",
			Name:        "Metal Balrog",
			Location:    "Devias 4",
			Rewards:     []string{"1000 WC", "2000 ~ 5000 Ruud"},
			Rule:        &recur.Rule{Kind: recur.KindDaily, Daily: []string{"02:00"}},
			Description: "Daily",
		},
	}
}

// seedFile is the YAML layout of an on-disk seed override.
type seedFile struct {
	Events []Event `yaml:"events"`
}

// LoadSeedFile reads a YAML seed catalog from path.
func LoadSeedFile(path string) ([]Event, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(f.Events) == 0 {
		return nil, fmt.Errorf("seed file %s contains no events", path)
	}
	return f.Events, nil
}
