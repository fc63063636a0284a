// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package retry

import (
	"time"
)

// Run calls f up to attempts times, sleeping between tries, and returns the
// last error if every attempt fails.
func Run(f func() error, attempts int, sleep time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(sleep)
		}

		err = f()
		if err == nil {
			return nil
		}
	}
	return err
}

// RunWithExpBackoff is Run with the sleep duration multiplied by factor after
// every failed attempt.
func RunWithExpBackoff(f func() error, attempts int, sleep time.Duration, factor float64) error {
	var err error
	delay := sleep
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * factor)
		}

		err = f()
		if err == nil {
			return nil
		}
	}
	return err
}
