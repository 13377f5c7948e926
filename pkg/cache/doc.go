// Package cache provides a generic, thread-safe LRU cache.
//
// livenotify uses it as a bounded memory of notification ids that were already
// counted as read, so repeated mark-read calls for notifications no longer
// visible in the store do not drift the unread counter.
//
//	c := cache.NewLRUCache[string, struct{}](256)
//	c.Put("n1", struct{}{})
//	c.Contains("n1") // true
package cache
