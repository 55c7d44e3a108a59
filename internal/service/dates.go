package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"
)

// ParseDate resolves a plan date. Empty input means today; ISO dates are
// taken literally; anything else is read as a phrase such as "tomorrow".
// The result is midnight of the resolved day in loc.
func ParseDate(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	now = now.In(loc)
	if raw == "" || strings.EqualFold(raw, "today") {
		return midnight(now, loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	if !knownPhrase(raw) {
		return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
	}
	t, err := naturaldate.Parse(raw, now, naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised date %q: %w", raw, err)
	}
	if t.Equal(now) {
		return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
	}
	return midnight(t.In(loc), loc), nil
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseDateTime resolves a due timestamp from RFC3339, a zone-less local
// timestamp, or a phrase such as "friday 5pm".
func ParseDateTime(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	if !knownPhrase(raw) {
		return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
	}
	now = now.In(loc)
	t, err := naturaldate.Parse(raw, now, naturaldate.WithDirection(naturaldate.Future))
	if err != nil || t.Equal(now) {
		return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
	}
	return t.In(loc), nil
}

// naturaldate skips words it does not know, so "someday maybe" would still
// land on a date. Phrases are only handed to it when every word is one of
// these.
var phraseWords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`
		today tomorrow yesterday now noon midnight morning afternoon evening night tonight
		next last this coming past previous in on at by from ago the of a an and end
		day days week weeks month months year years hour hours minute minutes weekend
		monday tuesday wednesday thursday friday saturday sunday
		mon tue tues wed thu thur thurs fri sat sun
		january february march april may june july august september october november december
		jan feb mar apr jun jul aug sep sept oct nov dec
		one two three four five six seven eight nine ten eleven twelve
		first second third fourth fifth am pm`) {
		phraseWords[w] = true
	}
}

var phraseNumber = regexp.MustCompile(`^\d{1,4}(st|nd|rd|th|am|pm)?$|^\d{1,2}:\d{2}(am|pm)?$`)

func knownPhrase(raw string) bool {
	words := strings.Fields(strings.ToLower(strings.NewReplacer(",", " ", ".", " ").Replace(raw)))
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !phraseWords[w] && !phraseNumber.MatchString(w) {
			return false
		}
	}
	return true
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
