package core

import (
	"errors"
	"os"
	"time"
)

// statNewest returns the most recent modification time among paths,
// erroring if none of them exist.
func statNewest(paths ...string) (time.Time, error) {
	var newest time.Time
	found := false
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		found = true
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	if !found {
		return time.Time{}, errors.New("no such file")
	}
	return newest, nil
}
