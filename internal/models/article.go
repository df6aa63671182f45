package models

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/google/uuid"
)

// Article is a single news search result, optionally enriched with the
// extracted page content. Built per request and never persisted.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Link        string   `json:"link"`
	Publication string   `json:"publication"`
	Journalist  string   `json:"journalist"`
	FullText    string   `json:"full_text,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// BuildArticleID hashes the result link to form a deterministic ID,
// falling back to a random one when the feed item carried no link.
func BuildArticleID(link string) string {
	if link == "" {
		return uuid.NewString()
	}
	s := sha1.Sum([]byte(link))
	return hex.EncodeToString(s[:])
}
