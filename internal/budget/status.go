package budget

import "fmt"

// Status is the qualitative classification of the remaining balance.
type Status int

// Status values, from most to least comfortable.
const (
	Healthy Status = iota
	Warning
	Critical
	Exhausted
)

var statusNames = [...]string{"healthy", "warning", "critical", "exhausted"}

// Classify maps a remaining balance to a Status relative to total.
func Classify(total, remaining float64) Status {
	switch {
	case remaining <= 0:
		return Exhausted
	case remaining < total/4:
		return Critical
	case remaining < total/2:
		return Warning
	default:
		return Healthy
	}
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("budget: unknown status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("budget: unknown status %q", b)
}
