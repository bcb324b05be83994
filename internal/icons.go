package internal

// Icon is a symbolic tag a subscription is drawn with
type Icon string

const (
	IconDefault       Icon = "default"
	IconEntertainment Icon = "entertainment"
	IconMusic         Icon = "music"
	IconStreaming     Icon = "streaming"
	IconSoftware      Icon = "software"
	IconGaming        Icon = "gaming"
	IconShopping      Icon = "shopping"
	IconHealth        Icon = "health"
	IconBusiness      Icon = "business"
	IconFinance       Icon = "finance"
	IconNews          Icon = "news"
	IconBookOpen      Icon = "bookOpen"
	IconBrain         Icon = "brain"
	IconBuilding      Icon = "building"
	IconCloud         Icon = "cloud"
	IconCode          Icon = "code"
	IconFitness       Icon = "fitness"
	IconDomain        Icon = "domain"
	IconEducation     Icon = "education"
	IconHome          Icon = "home"
	IconMonitorPlay   Icon = "monitorPlay"
	IconPodcast       Icon = "podcast"
	IconStartup       Icon = "startup"
	IconHosting       Icon = "hosting"
	IconSecurity      Icon = "security"
	IconMobile        Icon = "mobile"
	IconEcommerce     Icon = "ecommerce"
	IconFood          Icon = "food"
	IconInternet      Icon = "internet"
	IconUtilities     Icon = "utilities"
	IconMovies        Icon = "movies"
	IconBooks         Icon = "books"
	IconVideo         Icon = "video"
	IconAI            Icon = "ai"
	IconCompany       Icon = "company"
)

// IconGroup is a heading in the icon picker
type IconGroup struct {
	Name  string
	Icons []Icon
}

var iconGroups = []IconGroup{
	{Name: "Entertainment", Icons: []Icon{IconStreaming, IconMusic, IconGaming, IconMovies, IconPodcast, IconNews, IconBooks, IconVideo}},
	{Name: "Productivity & Software", Icons: []Icon{IconSoftware, IconCode, IconCloud, IconHosting, IconSecurity, IconAI}},
	{Name: "Finance & Business", Icons: []Icon{IconBusiness, IconFinance, IconStartup, IconCompany, IconEcommerce}},
	{Name: "Lifestyle & Health", Icons: []Icon{IconHealth, IconFitness, IconShopping, IconFood, IconEducation, IconHome, IconInternet, IconMobile, IconUtilities, IconDomain}},
	{Name: "Other", Icons: []Icon{IconDefault}},
}

// icons not offered in the picker but accepted in stored data
var extraIcons = []Icon{IconEntertainment, IconBookOpen, IconBrain, IconBuilding, IconMonitorPlay}

// glyphs maps each icon to the short marker used in terminal tables
var glyphs = map[Icon]string{
	IconDefault:       "•",
	IconEntertainment: "🎬",
	IconMusic:         "🎵",
	IconStreaming:     "📺",
	IconSoftware:      "💾",
	IconGaming:        "🎮",
	IconShopping:      "🛍",
	IconHealth:        "❤",
	IconBusiness:      "💼",
	IconFinance:       "💰",
	IconNews:          "📰",
	IconBookOpen:      "📖",
	IconBrain:         "🧠",
	IconBuilding:      "🏢",
	IconCloud:         "☁",
	IconCode:          "⌨",
	IconFitness:       "🏋",
	IconDomain:        "🌐",
	IconEducation:     "🎓",
	IconHome:          "🏠",
	IconMonitorPlay:   "🖥",
	IconPodcast:       "🎙",
	IconStartup:       "🚀",
	IconHosting:       "🗄",
	IconSecurity:      "🔒",
	IconMobile:        "📱",
	IconEcommerce:     "🛒",
	IconFood:          "🍔",
	IconInternet:      "📶",
	IconUtilities:     "💡",
	IconMovies:        "🎞",
	IconBooks:         "📚",
	IconVideo:         "📹",
	IconAI:            "🤖",
	IconCompany:       "🏭",
}

// Valid reports whether the icon is one of the known tags
func (i Icon) Valid() bool {
	_, ok := glyphs[i]
	return ok
}

// Glyph returns the terminal marker for the icon, falling back to the default one
func (i Icon) Glyph() string {
	if g, ok := glyphs[i]; ok {
		return g
	}
	return glyphs[IconDefault]
}

// Group returns the picker group the icon belongs to ("Other" when it has none)
func (i Icon) Group() string {
	for _, g := range iconGroups {
		for _, ic := range g.Icons {
			if ic == i {
				return g.Name
			}
		}
	}
	return "Other"
}

// IconOrDefault maps unknown or empty tags to IconDefault
func IconOrDefault(s string) Icon {
	if i := Icon(s); i.Valid() {
		return i
	}
	return IconDefault
}

// IconGroups returns the picker groups in display order
func IconGroups() []IconGroup {
	out := make([]IconGroup, len(iconGroups))
	for i, g := range iconGroups {
		out[i] = IconGroup{Name: g.Name, Icons: append([]Icon(nil), g.Icons...)}
	}
	return out
}

// AllIcons lists every known tag, picker icons first
func AllIcons() []Icon {
	var out []Icon
	for _, g := range iconGroups {
		out = append(out, g.Icons...)
	}
	return append(out, extraIcons...)
}
