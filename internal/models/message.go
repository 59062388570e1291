package models

// Message is a decoded push payload as persisted by the store. ID is assigned
// by the store on insert and never reused.
type Message struct {
	ID   int64  `json:"id"`
	Data string `json:"data"`
}
