package theater

import "github.com/circleapp/theater/internal/content"

type Peer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Snapshot struct {
	Action      string  `json:"action"`
	ContentType string  `json:"content_type"`
	ContentURL  string  `json:"content_url"`
	CurrentTime float64 `json:"current_time"`
	CurrentPage int     `json:"current_page,omitempty"`
	TotalPages  int     `json:"total_pages,omitempty"`
	IsPlaying   bool    `json:"is_playing"`
	Duration    float64 `json:"duration,omitempty"`
	UpdatedBy   string  `json:"updated_by"`
	UpdatedAt   int64   `json:"updated_at"`
}

type Session struct {
	ID               string       `json:"id"`
	HostName         string       `json:"host_name"`
	Content          content.Item `json:"content"`
	ScheduledAt      string       `json:"scheduled_at,omitempty"`
	ScheduledDisplay string       `json:"scheduled_display,omitempty"`
	ScheduledDate    string       `json:"scheduled_date,omitempty"`
	IsToday          bool         `json:"is_today"`
	Timezone         string       `json:"timezone,omitempty"`
	Peers            []Peer       `json:"peers"`
	Snapshot         *Snapshot    `json:"snapshot"`
}
