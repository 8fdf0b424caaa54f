//go:build tinygo

package main

import "context"

// On-device builds have no window to drive, so main is nothing but boot
// and the dispatcher.
func main() {
	s := boot()
	s.run(context.Background())
}
