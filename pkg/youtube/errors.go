package youtube

// Error codes reported by the embedded player.
const (
	CodeInvalidParam       = 2
	CodeHTML5Error         = 5
	CodeNotFound           = 100
	CodeEmbedNotAllowed    = 101
	CodeEmbedNotAllowedAlt = 150
)

const genericErrorMessage = "An error occurred while playing the video."

var errorMessages = map[int]string{
	CodeInvalidParam:       "Invalid video ID.",
	CodeHTML5Error:         "The video cannot be played in this player.",
	CodeNotFound:           "Video not found or is private.",
	CodeEmbedNotAllowed:    "This video cannot be embedded.",
	CodeEmbedNotAllowedAlt: "This video cannot be embedded.",
}

// ErrorMessage maps a player error code to a user facing message.
func ErrorMessage(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return genericErrorMessage
}
