package domain

// ItemStatus is the lifecycle state of one input item during dispatch.
type ItemStatus string

const (
	ItemStatusPending          ItemStatus = "pending"
	ItemStatusValidating       ItemStatus = "validating"
	ItemStatusResolvingChannel ItemStatus = "resolving_channel"
	ItemStatusSending          ItemStatus = "sending"
	ItemStatusCompleted        ItemStatus = "completed"
	ItemStatusFailed           ItemStatus = "failed"
)

// InputItem is one host input item with the parameters resolved for it.
type InputItem struct {
	ChannelID     string
	UserID        string
	PhoneNumberTo string
	Message       string
	// JSON is the item's original data, echoed back when the item fails.
	JSON map[string]any
}

// SendRequest is the payload posted to the send endpoint.
type SendRequest struct {
	PhoneNumberFrom string `json:"phone_number_from"`
	PhoneNumberTo   string `json:"phone_number_to"`
	Message         string `json:"message"`
	ChannelID       string `json:"channel_id"`
	UserID          string `json:"user_id"`
}

// SendResult holds the provider's structured response, passed through verbatim.
type SendResult struct {
	Response map[string]any
}

// ItemResult is the success-or-error outcome of one input item.
type ItemResult struct {
	ItemIndex int
	Status    ItemStatus
	Response  map[string]any
	Input     map[string]any
	Err       error
}

func (r ItemResult) Succeeded() bool { return r.Status == ItemStatusCompleted }
