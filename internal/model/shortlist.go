package model

import "time"

// ShortlistEntry is a company a session has marked for follow-up.
type ShortlistEntry struct {
	SessionID   string    `json:"session_id"`
	CompanyName string    `json:"company_name"`
	AddedAt     time.Time `json:"added_at"`
}

// ShortlistNames returns the company names of entries as a lookup set.
func ShortlistNames(entries []ShortlistEntry) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		set[e.CompanyName] = true
	}
	return set
}
