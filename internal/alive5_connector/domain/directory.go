package domain

import "strings"

const (
	unnamedChannelLabel = "Unnamed Channel"
	unnamedAgentLabel   = "Unnamed Agent"
)

// Credentials is the stored credential object used for every Alive5 call.
type Credentials struct {
	APIKey  string
	BaseURL string
}

// Resolve picks the credential object for one call. An empty c means the configured defaults,
// used as a whole. A caller key may borrow the default base URL, but a caller base URL never
// borrows the default key, so the configured key only ever goes to the configured host.
func (c Credentials) Resolve(defaults Credentials) (Credentials, error) {
	switch {
	case c.APIKey == "" && c.BaseURL == "":
		return defaults, nil
	case c.APIKey == "":
		return Credentials{}, ErrIncompleteCredentials
	case c.BaseURL == "":
		c.BaseURL = defaults.BaseURL
	}
	return c, nil
}

// Agent is a user allowed to send messages on behalf of a channel.
type Agent struct {
	ID         string `json:"user_id"`
	ScreenName string `json:"screen_name"`
}

// Channel is a messaging endpoint with one phone number and its agents.
type Channel struct {
	ID          string  `json:"channel_id"`
	Label       string  `json:"channel_label"`
	PhoneNumber string  `json:"channel_phone_number"`
	Agents      []Agent `json:"agents"`
}

// Selectable reports whether the channel has a usable SMS number.
// Numbers that are empty, the literal "undefined", or lack a leading '+' are excluded.
func (c Channel) Selectable() bool {
	return c.PhoneNumber != "" && c.PhoneNumber != "undefined" && strings.HasPrefix(c.PhoneNumber, "+")
}

// Option is a single dropdown entry offered to the host.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Directory is the full list of channels and their agents, in provider order.
type Directory []Channel

// Find returns the channel with the given id.
func (d Directory) Find(channelID string) (Channel, bool) {
	if channelID == "" {
		return Channel{}, false
	}
	for _, ch := range d {
		if ch.ID == channelID {
			return ch, true
		}
	}
	return Channel{}, false
}

// Selectable returns the channels eligible for SMS, preserving order.
func (d Directory) Selectable() []Channel {
	out := make([]Channel, 0, len(d))
	for _, ch := range d {
		if ch.Selectable() {
			out = append(out, ch)
		}
	}
	return out
}

// ChannelOptions maps the selectable channels to dropdown options.
func (d Directory) ChannelOptions() []Option {
	channels := d.Selectable()
	opts := make([]Option, 0, len(channels))
	for _, ch := range channels {
		name := ch.Label
		if name == "" {
			name = unnamedChannelLabel
		}
		opts = append(opts, Option{Name: name, Value: ch.ID})
	}
	return opts
}

// AgentOptions maps the channel's agents to dropdown options.
func (c Channel) AgentOptions() []Option {
	opts := make([]Option, 0, len(c.Agents))
	for _, a := range c.Agents {
		name := a.ScreenName
		if name == "" {
			name = unnamedAgentLabel
		}
		opts = append(opts, Option{Name: name, Value: a.ID})
	}
	return opts
}
