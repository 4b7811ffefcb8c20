package models

import "time"

// displayLayout renders timestamps the way users expect them in mail and
// listings: 02.01.2006, 15:04:05.
const displayLayout = "02.01.2006, 15:04:05"

// displayZone is the fixed presentation time zone. Timestamps are stored in
// UTC and converted here at the boundary, never re-stored converted.
var displayZone = loadDisplayZone()

func loadDisplayZone() *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		// Hosts without tzdata still render correctly: Moscow has no DST.
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// FormatDisplayTime converts a stored UTC timestamp to the display zone and
// renders it for listings and notification bodies.
func FormatDisplayTime(t time.Time) string {
	return t.In(displayZone).Format(displayLayout)
}
