package theater

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownAction      = errors.New("unknown action")
	ErrUnknownContentType = errors.New("unknown content type")
	ErrPositionMismatch   = errors.New("position does not match content type")
)

type Action int

const (
	ActionStart Action = iota + 1
	ActionStop
	ActionPlay
	ActionPause
	ActionSeek
	ActionPage
	ActionSyncRequest
)

var actionNames = map[Action]string{
	ActionStart:       "start",
	ActionStop:        "stop",
	ActionPlay:        "play",
	ActionPause:       "pause",
	ActionSeek:        "seek",
	ActionPage:        "page",
	ActionSyncRequest: "sync_request",
}

// Actions lists every action in wire order.
func Actions() []Action {
	return []Action{ActionStart, ActionStop, ActionPlay, ActionPause, ActionSeek, ActionPage, ActionSyncRequest}
}

func ParseAction(s string) (Action, error) {
	for a, name := range actionNames {
		if name == s {
			return a, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}

	return fmt.Sprintf("Action(%d)", int(a))
}

func (a Action) MarshalText() ([]byte, error) {
	name, ok := actionNames[a]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, int(a))
	}

	return []byte(name), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}

	*a = parsed
	return nil
}

// Stateful reports whether the action changes the shared playback state.
func (a Action) Stateful() bool {
	switch a {
	case ActionStart, ActionStop, ActionPlay, ActionPause, ActionSeek, ActionPage:
		return true
	case ActionSyncRequest:
		return false
	}

	return false
}

type ContentType int

const (
	ContentVideo ContentType = iota + 1
	ContentPDF
	ContentYouTube
)

var contentTypeNames = map[ContentType]string{
	ContentVideo:   "video",
	ContentPDF:     "pdf",
	ContentYouTube: "youtube",
}

func ParseContentType(s string) (ContentType, error) {
	for ct, name := range contentTypeNames {
		if name == s {
			return ct, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownContentType, s)
}

func (ct ContentType) String() string {
	if name, ok := contentTypeNames[ct]; ok {
		return name
	}

	return fmt.Sprintf("ContentType(%d)", int(ct))
}

func (ct ContentType) MarshalText() ([]byte, error) {
	name, ok := contentTypeNames[ct]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownContentType, int(ct))
	}

	return []byte(name), nil
}

func (ct *ContentType) UnmarshalText(text []byte) error {
	parsed, err := ParseContentType(string(text))
	if err != nil {
		return err
	}

	*ct = parsed
	return nil
}

// TimeBased reports whether positions of this content are measured in seconds
// rather than pages.
func (ct ContentType) TimeBased() bool {
	switch ct {
	case ContentVideo, ContentYouTube:
		return true
	case ContentPDF:
		return false
	}

	return false
}

// Message is one playback control event exchanged between two viewers.
// Optional fields are nil when the sender did not set them.
type Message struct {
	Action      Action      `json:"action"`
	ContentType ContentType `json:"contentType"`
	ContentURL  string      `json:"contentUrl"`
	CurrentTime *float64    `json:"currentTime,omitempty"`
	CurrentPage *int        `json:"currentPage,omitempty"`
	TotalPages  *int        `json:"totalPages,omitempty"`
	IsPlaying   *bool       `json:"isPlaying,omitempty"`
	Duration    *float64    `json:"duration,omitempty"`
	SenderID    string      `json:"senderId"`
	SenderName  string      `json:"senderName,omitempty"`
	Timestamp   *int64      `json:"timestamp,omitempty"`
}

type Option func(*Message)

func WithCurrentTime(seconds float64) Option {
	return func(m *Message) {
		m.CurrentTime = &seconds
	}
}

func WithPage(page, totalPages int) Option {
	return func(m *Message) {
		m.CurrentPage = &page
		m.TotalPages = &totalPages
	}
}

func WithPlaying(isPlaying bool) Option {
	return func(m *Message) {
		m.IsPlaying = &isPlaying
	}
}

func WithDuration(seconds float64) Option {
	return func(m *Message) {
		m.Duration = &seconds
	}
}

func WithSenderName(name string) Option {
	return func(m *Message) {
		m.SenderName = name
	}
}

func WithTimestamp(unixMilli int64) Option {
	return func(m *Message) {
		m.Timestamp = &unixMilli
	}
}

// NewMessage builds an outbound message. It performs no validation: options
// that are not supplied leave their fields undefined.
func NewMessage(action Action, contentType ContentType, contentURL, senderID string, opts ...Option) Message {
	m := Message{
		Action:      action,
		ContentType: contentType,
		ContentURL:  contentURL,
		SenderID:    senderID,
	}
	for _, opt := range opts {
		opt(&m)
	}

	return m
}

// Decode parses a JSON payload. Only the structural shape is checked.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("failed to decode message: %w", err)
	}

	return m, nil
}

func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

func (m Message) TimeBased() bool {
	return m.ContentType.TimeBased()
}

// Position returns the position that is meaningful for the content type:
// seconds for time based content, the page number for documents.
func (m Message) Position() (float64, bool) {
	switch m.ContentType {
	case ContentVideo, ContentYouTube:
		if m.CurrentTime == nil {
			return 0, false
		}
		return *m.CurrentTime, true
	case ContentPDF:
		if m.CurrentPage == nil {
			return 0, false
		}
		return float64(*m.CurrentPage), true
	}

	return 0, false
}

// Validate checks that the message carries a position only in the field its
// content type uses.
func (m Message) Validate() error {
	if _, ok := actionNames[m.Action]; !ok {
		return ErrUnknownAction
	}
	if _, ok := contentTypeNames[m.ContentType]; !ok {
		return ErrUnknownContentType
	}

	if m.TimeBased() {
		if m.CurrentPage != nil || m.TotalPages != nil {
			return fmt.Errorf("%w: %s carries a page", ErrPositionMismatch, m.ContentType)
		}
		return nil
	}

	if m.CurrentTime != nil {
		return fmt.Errorf("%w: %s carries a time", ErrPositionMismatch, m.ContentType)
	}

	return nil
}
