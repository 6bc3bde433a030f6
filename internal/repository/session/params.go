package session

type SetSessionParams struct {
	SessionID   string
	HostName    string
	ContentID   string
	ContentType string
	ContentURL  string
	ScheduledAt string
	Timezone    string
	CreatedAt   int64
}

type SetPeerParams struct {
	SessionID string
	PeerID    string
	Name      string
	JoinedAt  int64
}

type GetPeerParams struct {
	SessionID string
	PeerID    string
}

type RemovePeerParams struct {
	SessionID string
	PeerID    string
}

type SetSnapshotParams struct {
	SessionID string
	Snapshot  Snapshot
}
