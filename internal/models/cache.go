package models

import "time"

type CacheEntry struct {
	Data        []byte
	ContentType string
	FileName    string
	Expires     time.Time
}
