package domain

import "time"

// Model is a catalog entry for a downloadable language model
type Model struct {
	ID           string
	Name         string
	Author       string
	Summary      string
	Architecture string
	Parameters   string // e.g. "7B", "70B"
	SizeBytes    int64
	Downloads    int64
	Tags         []string
	Featured     bool
	Released     time.Time
}

// CatalogStats summarizes the catalog contents
type CatalogStats struct {
	Models   int
	Featured int
}
