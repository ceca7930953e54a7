package domain

// NotificationKind identifies a user-facing notification category.
type NotificationKind string

const (
	NotificationEntryAdded          NotificationKind = "entry_added"
	NotificationEntryUpdated        NotificationKind = "entry_updated"
	NotificationEntryDeleted        NotificationKind = "entry_deleted"
	NotificationEntryFailed         NotificationKind = "entry_failed"
	NotificationMicrophoneDenied    NotificationKind = "microphone_denied"
	NotificationTranscriptionFailed NotificationKind = "transcription_failed"
	NotificationManualTranscription NotificationKind = "manual_transcription"
)

// Notification is handed to the notification sink. Detail carries optional
// diagnostic text for logs.
type Notification struct {
	Kind   NotificationKind `json:"kind"`
	Detail string           `json:"detail,omitempty"`
}

// Title returns the short heading for the notification.
func (n Notification) Title() string {
	switch n.Kind {
	case NotificationEntryAdded:
		return "Entry added"
	case NotificationEntryUpdated:
		return "Entry updated"
	case NotificationEntryDeleted:
		return "Entry deleted"
	case NotificationEntryFailed:
		return "Error"
	case NotificationMicrophoneDenied:
		return "Microphone Access Denied"
	case NotificationTranscriptionFailed:
		return "Transcription Failed"
	case NotificationManualTranscription:
		return "Manual Transcription Required"
	default:
		return "Notice"
	}
}

// Description returns the body text for the notification.
func (n Notification) Description() string {
	switch n.Kind {
	case NotificationEntryAdded:
		return "Your journal entry has been saved"
	case NotificationEntryUpdated:
		return "Your journal entry has been updated"
	case NotificationEntryDeleted:
		return "Your journal entry has been removed"
	case NotificationEntryFailed:
		return "Failed to save journal entry"
	case NotificationMicrophoneDenied:
		return "Please allow microphone access to record your journal entry."
	case NotificationTranscriptionFailed:
		return "Could not transcribe your audio. Please edit the transcript manually."
	case NotificationManualTranscription:
		return "Speech recognition is unavailable. Please type your journal entry."
	default:
		return n.Detail
	}
}

// Destructive reports whether the notification describes a failure.
func (n Notification) Destructive() bool {
	switch n.Kind {
	case NotificationEntryFailed, NotificationMicrophoneDenied, NotificationTranscriptionFailed:
		return true
	default:
		return false
	}
}
