package lore

import (
	"strconv"
	"strings"
)

// ParseLabel trims s and rejects empty labels.
func ParseLabel(s string) (Label, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", Inputf("label must not be empty")
	}
	return Label(s), nil
}

// ParseDescriptor trims s and rejects empty descriptor names.
func ParseDescriptor(s string) (Descriptor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", Inputf("descriptor name must not be empty")
	}
	return Descriptor(s), nil
}

// ParseYear parses a (possibly negative) year.
func ParseYear(s string) (Year, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, &InputError{Msg: "invalid year " + strconv.Quote(s), Err: numErr(err)}
	}
	return Year(n), nil
}

// ParseDay parses a day number. Empty input yields NoDay.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoDay, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return NoDay, &InputError{Msg: "invalid day " + strconv.Quote(s), Err: numErr(err)}
	}
	return DayOf(uint32(n)), nil
}

// ParseDayFilter parses day search text: a day number, or "-" to match
// history items without a day.
func ParseDayFilter(s string) (Day, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return NoDay, Inputf("empty day filter")
	case "-":
		return NoDay, nil
	}
	return ParseDay(s)
}

// ParseTimestamp parses a history item timestamp.
func ParseTimestamp(s string) (Timestamp, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &InputError{Msg: "invalid timestamp " + strconv.Quote(s), Err: numErr(err)}
	}
	return Timestamp(n), nil
}

// ParseProperties parses "key=value" pairs separated by commas.
func ParseProperties(s string) (map[string]string, error) {
	props := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, Inputf("invalid property %q, want key=value", pair)
		}
		props[k] = strings.TrimSpace(v)
	}
	if len(props) == 0 {
		return nil, nil
	}
	return props, nil
}

// numErr strips the strconv prefix, which repeats the input.
func numErr(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}
