package cache

import (
	"crypto/sha1"
	"fmt"
	"time"
)

const (
	EnrichedTTL = 90 * time.Second
	ArticleTTL  = 10 * time.Minute
)

// EnrichedKey builds the key for one enriched-articles filter combination.
func EnrichedKey(risk, category, source string, limit int32) string {
	hash := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%s|%d", risk, category, source, limit)))
	return fmt.Sprintf("cache:v1:enriched:%x", hash)
}

// ArticleKey builds the key for one article record.
func ArticleKey(id string) string {
	return fmt.Sprintf("intel:article:%s", id)
}
