package checkpointer

import (
	"fmt"
	"time"
)

// Enumerate returns a function which will return keys with a counter
// integer suffix. Each time the returned function is called, the
// counter suffix will be one higher than on the previous call, with
// the first call returning start+1.
func Enumerate(start int, name, extension string) func() string {
	i := start
	return func() string {
		i++
		return fmt.Sprintf("%v%v%v", name, i, extension)
	}
}

// Timestamp returns a function which will append to a key the number
// of nanoseconds since January 1, 1970
func Timestamp(name, extension string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v%v", name, time.Now().UnixNano(),
			extension)
	}
}

// Fixed returns a function which always returns key, so that each
// snapshot overwrites the previous one
func Fixed(key string) func() string {
	return func() string {
		return key
	}
}
