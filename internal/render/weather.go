package render

// IconKey selects a weather icon.
type IconKey struct {
	Code  int
	IsDay bool
}

// IconTable maps WMO weather codes to icon file names.
type IconTable struct {
	Icons         map[IconKey]string
	DayFallback   string
	NightFallback string
}

// DefaultIconTable covers the WMO codes reported by Open-Meteo. Icons are
// light-on-transparent artwork; the compositor inverts them.
func DefaultIconTable() IconTable {
	t := IconTable{
		Icons:         make(map[IconKey]string),
		DayFallback:   "sunny.png",
		NightFallback: "clear-night.png",
	}
	t.set("sunny.png", "clear-night.png", 0)
	t.set("partly-cloudy.png", "partly-cloudy-night.png", 1, 2)
	t.both("cloudy.png", 3)
	t.both("humidity.png", 45, 48)
	t.both("rain.png", 51, 53, 55, 61, 63)
	t.both("heavy_rain.png", 65, 80, 81, 82)
	t.both("snow.png", 71, 73, 75, 77, 85, 86)
	t.both("severe_thunderstorm.png", 95, 96, 99)
	return t
}

func (t IconTable) set(day, night string, codes ...int) {
	for _, c := range codes {
		t.Icons[IconKey{Code: c, IsDay: true}] = day
		t.Icons[IconKey{Code: c, IsDay: false}] = night
	}
}

func (t IconTable) both(name string, codes ...int) {
	t.set(name, name, codes...)
}

// Lookup returns the icon for a reading, falling back by day/night for
// unmapped codes.
func (t IconTable) Lookup(code int, isDay bool) string {
	if name, ok := t.Icons[IconKey{Code: code, IsDay: isDay}]; ok {
		return name
	}
	if isDay {
		return t.DayFallback
	}
	return t.NightFallback
}
