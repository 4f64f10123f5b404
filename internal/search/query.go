package search

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"instainstru/internal/model"
)

// TimeOfDay is a minute-of-day range a student wants the lesson in.
type TimeOfDay struct {
	Label    string `json:"label"`
	StartMin int    `json:"start_min"`
	EndMin   int    `json:"end_min"`
}

var timesOfDay = map[string]TimeOfDay{
	"morning":   {Label: "morning", StartMin: 6 * 60, EndMin: 12 * 60},
	"afternoon": {Label: "afternoon", StartMin: 12 * 60, EndMin: 17 * 60},
	"evening":   {Label: "evening", StartMin: 17 * 60, EndMin: 22 * 60},
}

var levels = map[string]string{
	"beginner": "beginner", "beginners": "beginner", "novice": "beginner",
	"intermediate": "intermediate",
	"advanced":     "advanced", "expert": "advanced",
}

// Words that describe the lesson format rather than the subject.
var fillerWords = map[string]struct{}{
	"lesson": {}, "lessons": {}, "class": {}, "classes": {}, "teacher": {}, "teachers": {},
	"instructor": {}, "instructors": {}, "tutor": {}, "tutors": {}, "coach": {}, "session": {},
	"sessions": {}, "hour": {}, "per": {}, "hr": {}, "cheap": {}, "next": {},
}

// maxQueryDollars bounds price hints; larger numbers are ignored.
const maxQueryDollars = 100000

// A bare "5-10" is an age or a count, so a range needs a dollar sign, a
// price word in front or a currency word after it.
var rangeRes = []*regexp.Regexp{
	regexp.MustCompile(`\$(\d+)\s*(?:-|to)\s*\$?(\d+)\b`),
	regexp.MustCompile(`\b(\d+)\s*(?:-|to)\s*\$(\d+)\b`),
	regexp.MustCompile(`\b(?:between|price|prices|budget)\s+\$?(\d+)\s*(?:-|to|and)\s*\$?(\d+)\b`),
	regexp.MustCompile(`\b(\d+)\s*(?:-|to)\s*(\d+)\s*(?:dollars|usd|bucks)\b`),
}

var (
	maxRe   = regexp.MustCompile(`\b(?:under|below|less than|cheaper than|max|up to)\s+\$?(\d+)\b`)
	minRe   = regexp.MustCompile(`\b(?:over|above|more than|at least)\s+\$?(\d+)\b`)
	weekend = regexp.MustCompile(`this weekend|weekend`)
)

// dollarsToCents converts a matched dollar amount, rejecting values too
// large to be a lesson price.
func dollarsToCents(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v > maxQueryDollars {
		return 0, false
	}
	return v * 100, true
}

// Query is the structured form of a free-text search.
type Query struct {
	Raw           string      `json:"raw"`
	Terms         []string    `json:"terms"`
	MinPriceCents int64       `json:"min_price_cents,omitempty"`
	MaxPriceCents int64       `json:"max_price_cents,omitempty"`
	Dates         []time.Time `json:"dates,omitempty"`
	TimeOfDay     *TimeOfDay  `json:"time_of_day,omitempty"`
	Level         string      `json:"level,omitempty"`
}

// ParseQuery extracts price, date, time-of-day and level hints from q. The
// remaining meaningful words become Terms. Relative dates resolve against now
// in now's location.
func ParseQuery(q string, now time.Time) Query {
	out := Query{Raw: q}
	text := strings.ToLower(q)

	for _, re := range rangeRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		lo, okLo := dollarsToCents(m[1])
		hi, okHi := dollarsToCents(m[2])
		if okLo && okHi {
			if lo > hi {
				lo, hi = hi, lo
			}
			out.MinPriceCents, out.MaxPriceCents = lo, hi
		}
		text = strings.Replace(text, m[0], " ", 1)
		break
	}
	if m := maxRe.FindStringSubmatch(text); m != nil {
		if v, ok := dollarsToCents(m[1]); ok {
			out.MaxPriceCents = v
		}
		text = strings.Replace(text, m[0], " ", 1)
	}
	if m := minRe.FindStringSubmatch(text); m != nil {
		if v, ok := dollarsToCents(m[1]); ok {
			out.MinPriceCents = v
		}
		text = strings.Replace(text, m[0], " ", 1)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if loc := weekend.FindStringIndex(text); loc != nil {
		out.Dates = weekendDates(today)
		text = text[:loc[0]] + " " + text[loc[1]:]
	}

	for _, w := range Tokenize(text) {
		switch {
		case w == "today":
			out.Dates = append(out.Dates, today)
		case w == "tomorrow":
			out.Dates = append(out.Dates, today.AddDate(0, 0, 1))
		case isWeekday(w):
			out.Dates = append(out.Dates, nextWeekday(today, weekdays[w]))
		case timesOfDay[w].Label != "":
			tod := timesOfDay[w]
			out.TimeOfDay = &tod
		case levels[w] != "":
			out.Level = levels[w]
		case len(w) < 2 || IsStopWord(w):
		default:
			if _, filler := fillerWords[w]; filler {
				continue
			}
			out.Terms = append(out.Terms, w)
		}
	}
	return out
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

func isWeekday(w string) bool {
	_, ok := weekdays[w]
	return ok
}

// nextWeekday returns the first date on or after today falling on wd.
func nextWeekday(today time.Time, wd time.Weekday) time.Time {
	diff := (int(wd) - int(today.Weekday()) + 7) % 7
	return today.AddDate(0, 0, diff)
}

func weekendDates(today time.Time) []time.Time {
	if today.Weekday() == time.Sunday {
		return []time.Time{today}
	}
	sat := nextWeekday(today, time.Saturday)
	return []time.Time{sat, sat.AddDate(0, 0, 1)}
}

// Score rates how well an offering matches the query terms: the share of
// terms found in the offering's keywords, plus a bonus when the service name
// contains the whole phrase. A query without terms matches everything.
func Score(q Query, o model.Offering) float64 {
	if len(q.Terms) == 0 {
		return 1
	}
	kw := make(map[string]struct{}, len(o.Keywords))
	for _, k := range o.Keywords {
		kw[k] = struct{}{}
	}
	matched := 0
	for _, t := range q.Terms {
		for _, v := range Variants(t) {
			if _, ok := kw[v]; ok {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return 0
	}
	score := float64(matched) / float64(len(q.Terms))
	if strings.Contains(strings.ToLower(o.ServiceName), strings.Join(q.Terms, " ")) {
		score += 0.5
	}
	return score
}

// InPriceRange reports whether the offering's hourly rate satisfies the query's bounds.
func InPriceRange(q Query, o model.Offering) bool {
	if q.MinPriceCents > 0 && o.HourlyRateCents < q.MinPriceCents {
		return false
	}
	if q.MaxPriceCents > 0 && o.HourlyRateCents > q.MaxPriceCents {
		return false
	}
	return true
}

// Rank filters offerings by price and relevance and orders them by score,
// then by price ascending.
func Rank(q Query, offerings []model.Offering) []model.SearchHit {
	hits := make([]model.SearchHit, 0, len(offerings))
	for _, o := range offerings {
		if !InPriceRange(q, o) {
			continue
		}
		s := Score(q, o)
		if s == 0 {
			continue
		}
		hits = append(hits, model.SearchHit{Offering: o, Score: s})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].HourlyRateCents < hits[j].HourlyRateCents
	})
	return hits
}
