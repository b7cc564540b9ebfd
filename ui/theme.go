package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kasuganosora/gjtracker/tracker"
)

const (
	IconSkill   = "🎯"
	IconFaculty = "🧠"
	IconFactor  = "🧩"
	IconLevelUp = "⬆️"
	IconLoose   = "🪢"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconBell    = "🔔"
)

// Palette is the set of colors of one theme.
type Palette struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Good    lipgloss.Color
	Warn    lipgloss.Color
	Bad     lipgloss.Color
	Muted   lipgloss.Color
	Gold    lipgloss.Color
}

var palettes = map[string]Palette{
	"light": {
		Primary: lipgloss.Color("25"),
		Accent:  lipgloss.Color("127"),
		Good:    lipgloss.Color("28"),
		Warn:    lipgloss.Color("166"),
		Bad:     lipgloss.Color("160"),
		Muted:   lipgloss.Color("243"),
		Gold:    lipgloss.Color("136"),
	},
	"dark": {
		Primary: lipgloss.Color("63"),
		Accent:  lipgloss.Color("205"),
		Good:    lipgloss.Color("42"),
		Warn:    lipgloss.Color("214"),
		Bad:     lipgloss.Color("196"),
		Muted:   lipgloss.Color("244"),
		Gold:    lipgloss.Color("220"),
	},
	"orange": {
		Primary: lipgloss.Color("208"),
		Accent:  lipgloss.Color("202"),
		Good:    lipgloss.Color("70"),
		Warn:    lipgloss.Color("220"),
		Bad:     lipgloss.Color("124"),
		Muted:   lipgloss.Color("180"),
		Gold:    lipgloss.Color("214"),
	},
}

// Theme holds the styles used by the CLI.
type Theme struct {
	Name   string
	Emojis bool

	Title lipgloss.Style
	H2    lipgloss.Style
	Key   lipgloss.Style
	Muted lipgloss.Style
	Good  lipgloss.Style
	Warn  lipgloss.Style
	Bad   lipgloss.Style
	Gold  lipgloss.Style
	Panel lipgloss.Style
}

// New returns the theme for the settings. Unknown theme names fall back to
// light.
func New(set tracker.Settings) Theme {
	name := set.Theme
	p, ok := palettes[name]
	if !ok {
		name, p = "light", palettes["light"]
	}
	return Theme{
		Name:   name,
		Emojis: set.Emojis,
		Title:  lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		H2:     lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Key:    lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Muted:  lipgloss.NewStyle().Foreground(p.Muted),
		Good:   lipgloss.NewStyle().Bold(true).Foreground(p.Good),
		Warn:   lipgloss.NewStyle().Bold(true).Foreground(p.Warn),
		Bad:    lipgloss.NewStyle().Bold(true).Foreground(p.Bad),
		Gold:   lipgloss.NewStyle().Bold(true).Foreground(p.Gold),
		Panel:  lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(p.Muted).Padding(0, 1),
	}
}

// Heading renders a title, prefixed with icon when emojis are on.
func (t Theme) Heading(icon, title string) string {
	if t.Emojis && strings.TrimSpace(icon) != "" {
		title = icon + " " + title
	}
	return t.Title.Render(title)
}

func (t Theme) LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", t.Key.Render(label+":"), value)
}

// Grade renders the letter grade of level: low grades muted, A- and A good,
// S and Z gold.
func (t Theme) Grade(level int) string {
	g := tracker.LevelGrade(level)
	switch {
	case level >= tracker.EnhancedLevel:
		return t.Gold.Render(g)
	case level >= 4:
		return t.Good.Render(g)
	default:
		return t.Muted.Render(g)
	}
}

// TypeIcon is the item type's icon, or "" when emojis are off.
func (t Theme) TypeIcon(typ tracker.ItemType) string {
	if !t.Emojis {
		return ""
	}
	switch typ {
	case tracker.TypeSkill:
		return IconSkill
	case tracker.TypeFaculty:
		return IconFaculty
	case tracker.TypeFactor:
		return IconFactor
	}
	return ""
}

// EmojiBadge decorates a few well-known names when emojis are on.
func (t Theme) EmojiBadge(name string) string {
	if !t.Emojis {
		return ""
	}
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "fox"):
		return "🦊"
	case strings.Contains(n, "fly"):
		return "🪶"
	}
	return ""
}

// ItemLine renders one row of an item listing.
func (t Theme) ItemLine(it *tracker.Item) string {
	var b strings.Builder
	if icon := t.TypeIcon(it.Type); icon != "" {
		b.WriteString(icon + " ")
	}
	b.WriteString(t.Key.Render(it.Name))
	if badge := t.EmojiBadge(it.Name); badge != "" {
		b.WriteString(" " + badge)
	}
	fmt.Fprintf(&b, " %s lvl %d %s tier %d", t.Muted.Render("("+it.ID+")"), it.Level, t.Grade(it.Level), it.Tier)
	if it.Enhanced {
		b.WriteString(" " + t.Gold.Render("enhanced"))
	}
	if it.IsPrime {
		b.WriteString(" " + t.Muted.Render("prime"))
	}
	return b.String()
}

// Outcome renders a level-up result.
func (t Theme) Outcome(name string, r tracker.LevelUpResult) string {
	switch r.Outcome {
	case tracker.OutcomeLeveledUp:
		return t.Good.Render(fmt.Sprintf("%s: level %d → %d", name, r.From, r.To)) + " " + t.Grade(r.To)
	case tracker.OutcomeCapped:
		return t.Warn.Render(fmt.Sprintf("%s: held at level %d", name, r.To))
	case tracker.OutcomeAtMax:
		return t.Muted.Render(fmt.Sprintf("%s is already at level %d", name, r.To))
	case tracker.OutcomeBlocked:
		return t.Bad.Render(fmt.Sprintf("%s: prerequisites not met", name))
	case tracker.OutcomeDeclined:
		return t.Muted.Render(fmt.Sprintf("%s: enhancement declined, still level %d", name, r.To))
	}
	return name
}
