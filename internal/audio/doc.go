// Package audio reads and writes the system playback level as a 0-100
// percentage. Every operation opens the mixer element, performs one read
// or write and closes it again, so no handle outlives a single call.
package audio
