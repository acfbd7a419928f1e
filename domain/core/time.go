package core

import (
	"time"
)

// Timestamp is a UTC wall-clock instant. Sessions and batches stamp their
// start with it and derive their duration from it.
type Timestamp time.Time

// Now returns the current instant in UTC
func Now() Timestamp {
	return Timestamp(time.Now().UTC())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time { return time.Time(t) }

// Since returns the time elapsed since t
func (t Timestamp) Since() time.Duration {
	return time.Since(time.Time(t))
}

func (t Timestamp) String() string {
	return time.Time(t).Format(time.RFC3339Nano)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	parsed, err := time.Parse(`"`+time.RFC3339Nano+`"`, string(data))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed.UTC())
	return nil
}
