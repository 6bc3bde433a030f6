package checkin

import "errors"

var ErrNotFound = errors.New("check-in not found")

type CheckIn struct {
	ID         string  `json:"id"`
	MemberID   string  `json:"member_id"`
	Label      string  `json:"label"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Accuracy   float64 `json:"accuracy"`
	Source     string  `json:"source"`
	CapturedAt int64   `json:"captured_at"`
}
