package domain

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Status is the closed set of task lifecycle states. The canonical wire form
// is the integer code; the legacy string tags from the first schema revision
// are accepted on decode only, nowhere else.
type Status int

const (
	StatusInProgress Status = iota
	StatusDone
	StatusTesting
	StatusReturned

	statusCount
)

var legacyStatusTags = map[string]Status{
	"в процессе": StatusInProgress,
	"завершено":  StatusDone,
}

// Valid reports whether s is one of the defined enumeration values.
func (s Status) Valid() bool {
	return s >= StatusInProgress && s < statusCount
}

// Next cycles to the following status, wrapping after the last one.
func (s Status) Next() Status {
	return (s + 1) % statusCount
}

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "InProgress"
	case StatusDone:
		return "Done"
	case StatusTesting:
		return "Testing"
	case StatusReturned:
		return "Returned"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Label returns the user-facing display name.
func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "В процессе"
	case StatusDone:
		return "Завершено"
	case StatusTesting:
		return "Тестирование"
	case StatusReturned:
		return "Возвращена"
	}
	return s.String()
}

// ParseStatus converts a query-parameter code into a Status.
func ParseStatus(code string) (Status, error) {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return 0, fmt.Errorf("invalid status code %q", code)
	}
	s := Status(n)
	if !s.Valid() {
		return 0, fmt.Errorf("unknown status code %d", n)
	}
	return s, nil
}

func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(s))), nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	if n, err := strconv.Atoi(string(bytes.TrimSpace(data))); err == nil {
		v := Status(n)
		if !v.Valid() {
			return fmt.Errorf("unknown status code %d", n)
		}
		*s = v
		return nil
	}
	var tag string
	if err := sonic.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("invalid status value %s", data)
	}
	v, ok := legacyStatusTags[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return fmt.Errorf("unknown status tag %q", tag)
	}
	*s = v
	return nil
}
