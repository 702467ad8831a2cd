package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reShortHour = regexp.MustCompile(`^[0-9]:[0-5][0-9]$`)

func lower(s string) string {
	return strings.ToLower(s)
}

func padHour(s string) string {
	if reShortHour.MatchString(s) {
		return "0" + s
	}
	return s
}

func SanitizeID(input string) string {
	return Pipeline{strings.TrimSpace, lower}.Apply(input)
}

func SanitizeDate(input string) string {
	return strings.TrimSpace(input)
}

func SanitizeTimeOfDay(input string) string {
	return Pipeline{strings.TrimSpace, padHour}.Apply(input)
}

func SanitizeStatus(input string) string {
	return Pipeline{strings.TrimSpace, lower}.Apply(input)
}
