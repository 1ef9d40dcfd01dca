package planetary

import (
	"fmt"
	"strings"
	"time"
)

// Planet is one of the seven classical planets that rule the hours.
type Planet string

const (
	Sun     Planet = "Sun"
	Venus   Planet = "Venus"
	Mercury Planet = "Mercury"
	Moon    Planet = "Moon"
	Saturn  Planet = "Saturn"
	Jupiter Planet = "Jupiter"
	Mars    Planet = "Mars"
)

// ChaldeanOrder is the cyclic sequence used to assign rulers to successive hours.
var ChaldeanOrder = [7]Planet{Sun, Venus, Mercury, Moon, Saturn, Jupiter, Mars}

var planetColors = map[Planet]string{
	Sun:     "#FFD700",
	Venus:   "#2E8B57",
	Mercury: "#FF8C00",
	Moon:    "#C0C0C0",
	Saturn:  "#1C1C1C",
	Jupiter: "#1E50A0",
	Mars:    "#B22222",
}

// weekday -> ruler of the first hour of that day.
var dayRulers = [7]Planet{
	time.Sunday:    Sun,
	time.Monday:    Moon,
	time.Tuesday:   Mars,
	time.Wednesday: Mercury,
	time.Thursday:  Jupiter,
	time.Friday:    Venus,
	time.Saturday:  Saturn,
}

// PlanetAt returns ChaldeanOrder[i mod 7]. Negative indexes wrap around.
func PlanetAt(i int) Planet {
	n := len(ChaldeanOrder)
	return ChaldeanOrder[((i%n)+n)%n]
}

// Index returns the position of p in ChaldeanOrder, or -1.
func (p Planet) Index() int {
	for i, q := range ChaldeanOrder {
		if q == p {
			return i
		}
	}
	return -1
}

// Color returns the display colour of the planet as a hex string.
func (p Planet) Color() string {
	if c, ok := planetColors[p]; ok {
		return c
	}
	return "#808080"
}

// ParsePlanet matches a planet name case-insensitively.
func ParsePlanet(s string) (Planet, error) {
	for _, p := range ChaldeanOrder {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown planet %q", s)
}

// DayRuler returns the planet traditionally ruling the given weekday.
func DayRuler(d time.Weekday) Planet {
	return dayRulers[d%7]
}

// WeekdayOffset is the start offset that makes hour 0 of a day fall to its ruler.
func WeekdayOffset(d time.Weekday) int {
	return DayRuler(d).Index()
}
