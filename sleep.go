package events

import "time"

// sleep blocks for seconds, used by processFileDescriptors when the loop
// has a positive timeout but the monitor has no file-descriptor sources at
// all to wait on (not even the urgent pipe).
func sleep(seconds float64) {
	time.Sleep(time.Duration(seconds * float64(time.Second)))
}
