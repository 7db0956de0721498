package entity

const (
	EmailStatusNew              int16 = 0
	EmailStatusProcessing       int16 = 1
	EmailStatusSuccess          int16 = 10
	EmailStatusTemporaryFailure int16 = 40
	EmailStatusUnknownFailure   int16 = 49
	EmailStatusPermanentFailure int16 = 50
)

// StatusLabel maps a status code to its API name.
func StatusLabel(status int16) string {
	switch status {
	case EmailStatusNew:
		return "new"
	case EmailStatusProcessing:
		return "processing"
	case EmailStatusSuccess:
		return "success"
	case EmailStatusTemporaryFailure:
		return "temporary_failure"
	case EmailStatusUnknownFailure:
		return "unknown_failure"
	case EmailStatusPermanentFailure:
		return "permanent_failure"
	default:
		return "unknown"
	}
}

type EmailHistory struct {
	RequestID string
	Recipient string
	Subject   string
	Content   string
	// MessageID is the provider-assigned id recorded after a successful send.
	MessageID string
	Status    int16
	Retries   int
}
