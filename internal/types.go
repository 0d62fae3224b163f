package internal

import "time"

type PitchRequest struct {
	ID             string    `json:"id"`
	MVPDescription string    `json:"mvp_description"`
	Timestamp      time.Time `json:"timestamp"`
}
