package session

type Session struct {
	HostName    string `redis:"host_name"`
	ContentID   string `redis:"content_id"`
	ContentType string `redis:"content_type"`
	ContentURL  string `redis:"content_url"`
	ScheduledAt string `redis:"scheduled_at"`
	Timezone    string `redis:"timezone"`
	CreatedAt   int64  `redis:"created_at"`
}

type Peer struct {
	Name     string `redis:"name"`
	JoinedAt int64  `redis:"joined_at"`
}

// Snapshot is the last stateful sync message applied to a session.
type Snapshot struct {
	Action      string  `redis:"action"`
	ContentType string  `redis:"content_type"`
	ContentURL  string  `redis:"content_url"`
	CurrentTime float64 `redis:"current_time"`
	CurrentPage int     `redis:"current_page"`
	TotalPages  int     `redis:"total_pages"`
	IsPlaying   bool    `redis:"is_playing"`
	Duration    float64 `redis:"duration"`
	UpdatedBy   string  `redis:"updated_by"`
	UpdatedAt   int64   `redis:"updated_at"`
}
