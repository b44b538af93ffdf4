// Package calendar holds the exchange trading calendar: session hours,
// timezone and holiday closures. A built-in NSE calendar is the default;
// a YAML file replaces it for other venues or yearly holiday updates.
package calendar

import "time"

// Calendar은 거래소 세션 스케줄의 전체 정의
type Calendar struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Session  Session  `yaml:"session" json:"session"`
	Holidays []string `yaml:"holidays" json:"holidays"` // YYYY-MM-DD, exchange-local
}

// Meta 메타 정보
type Meta struct {
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"`
}

// Session is the regular trading window in exchange-local time.
type Session struct {
	Open  string `yaml:"open" json:"open"`   // HH:MM
	Close string `yaml:"close" json:"close"` // HH:MM
}

// Default returns the built-in NSE cash-session calendar with no holiday
// closures listed.
func Default() *Calendar {
	return &Calendar{
		Meta: Meta{
			CalendarID: "nse_cash",
			Version:    "1",
			Timezone:   "Asia/Kolkata",
		},
		Session: Session{Open: "09:15", Close: "15:30"},
	}
}

// Location resolves the exchange timezone. A loaded calendar has the zone
// validated at load time, so the fixed-IST fallback only applies to the
// built-in default on systems without a zone database.
func (c *Calendar) Location() *time.Location {
	loc, err := time.LoadLocation(c.Meta.Timezone)
	if err != nil {
		return time.FixedZone("IST", int((5*time.Hour + 30*time.Minute).Seconds()))
	}
	return loc
}

// IsTradingDay reports whether the exchange opens at all on the given day:
// a weekday that is not a listed holiday, evaluated in exchange-local time.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	local := t.In(c.Location())
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	date := local.Format("2006-01-02")
	for _, holiday := range c.Holidays {
		if holiday == date {
			return false
		}
	}
	return true
}

// InSession reports whether the regular session is open at the given
// instant: a trading day with the local clock inside [open, close].
func (c *Calendar) InSession(t time.Time) bool {
	if !c.IsTradingDay(t) {
		return false
	}
	local := t.In(c.Location())
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= sessionMinutes(c.Session.Open) && minutes <= sessionMinutes(c.Session.Close)
}

// sessionMinutes converts HH:MM to minutes since midnight. Bounds are
// validated at load time.
func sessionMinutes(hhmm string) int {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0
	}
	return parsed.Hour()*60 + parsed.Minute()
}
