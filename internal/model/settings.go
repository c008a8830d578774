package model

import "time"

type DisplayMode string

const (
	DisplayLight  DisplayMode = "light"
	DisplayDark   DisplayMode = "dark"
	DisplaySystem DisplayMode = "system"
)

// SoundSettings controls how reminders sound and vibrate.
type SoundSettings struct {
	Enabled   bool   `json:"enabled"`
	SoundID   string `json:"soundId"`
	Vibration bool   `json:"vibration"`
	Volume    int    `json:"volume"`
}

func DefaultSoundSettings() SoundSettings {
	return SoundSettings{Enabled: true, SoundID: "chime", Vibration: true, Volume: 80}
}

// Settings are the user preferences persisted next to the task tree.
type Settings struct {
	Theme           string        `json:"theme"`
	DisplayMode     DisplayMode   `json:"displayMode"`
	Sound           SoundSettings `json:"sound"`
	CarryForward    bool          `json:"carryForward"`
	RotationEnabled bool          `json:"rotationEnabled"`
}

func DefaultSettings() Settings {
	return Settings{
		Theme:           DefaultTheme,
		DisplayMode:     DisplaySystem,
		Sound:           DefaultSoundSettings(),
		CarryForward:    true,
		RotationEnabled: true,
	}
}

// Sound describes a two-tone reminder chime.
type Sound struct {
	ID       string
	Name     string
	Emoji    string
	Freq1    float64
	Freq2    float64
	Duration time.Duration
}

var Sounds = []Sound{
	{ID: "chime", Name: "Chime", Emoji: "🔔", Freq1: 800, Freq2: 1000, Duration: 500 * time.Millisecond},
	{ID: "bell", Name: "Bell", Emoji: "🛎️", Freq1: 600, Freq2: 900, Duration: 600 * time.Millisecond},
	{ID: "ding", Name: "Ding", Emoji: "✨", Freq1: 1200, Freq2: 1400, Duration: 300 * time.Millisecond},
	{ID: "pop", Name: "Pop", Emoji: "💫", Freq1: 400, Freq2: 600, Duration: 200 * time.Millisecond},
	{ID: "gentle", Name: "Gentle", Emoji: "🌊", Freq1: 500, Freq2: 700, Duration: 800 * time.Millisecond},
	{ID: "alert", Name: "Alert", Emoji: "⚡", Freq1: 1000, Freq2: 1200, Duration: 400 * time.Millisecond},
}

// FindSound returns the sound with the id, or the chime when the id is unknown.
func FindSound(id string) Sound {
	for _, s := range Sounds {
		if s.ID == id {
			return s
		}
	}
	return Sounds[0]
}

// Palette is what a celebration effect is drawn with.
type Palette struct {
	Colors []string
	Emojis []string
}

type Theme struct {
	ID      string
	Name    string
	Icon    string
	Palette Palette
}

const DefaultTheme = "clarity"

var Themes = []Theme{
	{ID: "clarity", Name: "Clarity", Icon: "✨", Palette: Palette{Colors: []string{"#6366f1", "#a855f7", "#ec4899", "#fbbf24", "#10b981", "#3b82f6"}}},
	{ID: "midnight", Name: "Midnight", Icon: "🌙", Palette: Palette{Colors: []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6"}}},
	{ID: "love", Name: "Love", Icon: "💕", Palette: Palette{
		Colors: []string{"#ec4899", "#f472b6", "#fb7185", "#f43f5e", "#fda4af"},
		Emojis: []string{"❤️", "💕", "💖", "💗", "💘", "💝", "😍", "🥰", "💋", "🏹"},
	}},
	{ID: "nature", Name: "Nature", Icon: "🌿", Palette: Palette{
		Colors: []string{"#10b981", "#34d399", "#6ee7b7", "#a3e635", "#22c55e"},
		Emojis: []string{"🌿", "🍃", "🌱", "🌸", "🦋", "🌺", "🌻", "🍀"},
	}},
	{ID: "ocean", Name: "Ocean", Icon: "🌊", Palette: Palette{
		Colors: []string{"#06b6d4", "#22d3ee", "#0ea5e9", "#38bdf8", "#7dd3fc"},
		Emojis: []string{"🌊", "🐚", "🐬", "🐳", "🦀", "⚓", "🏖️", "🐠"},
	}},
	{ID: "sunset", Name: "Sunset", Icon: "🌅", Palette: Palette{
		Colors: []string{"#f97316", "#fb923c", "#fbbf24", "#f59e0b", "#ef4444"},
		Emojis: []string{"🌅", "☀️", "🌞", "🔥", "✨", "🌟"},
	}},
	{ID: "galaxy", Name: "Galaxy", Icon: "🌌", Palette: Palette{
		Colors: []string{"#8b5cf6", "#a855f7", "#d946ef", "#c084fc", "#e879f9"},
		Emojis: []string{"🌌", "⭐", "🌟", "💫", "✨", "🚀", "🛸", "🌙"},
	}},
	{ID: "candy", Name: "Candy", Icon: "🍭", Palette: Palette{
		Colors: []string{"#e879f9", "#f0abfc", "#f472b6", "#fb7185", "#a78bfa"},
		Emojis: []string{"🍬", "🍭", "🍫", "🧁", "🎂", "🍩", "🍪", "🎀"},
	}},
	{ID: "minimalist", Name: "Minimalist", Icon: "◻️", Palette: Palette{Colors: []string{"#374151", "#6b7280", "#9ca3af", "#d1d5db", "#f3f4f6"}}},
}

// FindTheme falls back to the default theme for unknown ids.
func FindTheme(id string) Theme {
	for _, t := range Themes {
		if t.ID == id {
			return t
		}
	}
	return Themes[0]
}
