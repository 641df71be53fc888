package interfaces

// Publisher delivers engine and session events to interested consumers.
// There is no implicit process-wide broadcast; observers register against
// the concrete bus in infrastructure.
type Publisher interface {
	Publish(topic string, payload any)
}
