package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteFetch indicates the channel directory could not be fetched or decoded.
	ErrRemoteFetch = errors.New("remote fetch failed")
	// ErrChannelNotFound indicates the selected channel id is no longer in the directory.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrInvalidPhoneNumber indicates a sender or recipient number is not in E.164 format.
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	// ErrSend indicates the send call failed at the transport level or was rejected.
	ErrSend = errors.New("send failed")
	// ErrInvalidResponse indicates the send call succeeded but returned a non-object body.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrIncompleteCredentials indicates a base URL override arrived without its own API key.
	ErrIncompleteCredentials = errors.New("a base URL override requires its own API key")
)

// RemoteFetchError carries the underlying cause of a failed directory fetch.
type RemoteFetchError struct {
	Err error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("failed to fetch channel directory: %v", e.Err)
}

func (e *RemoteFetchError) Unwrap() []error { return []error{ErrRemoteFetch, e.Err} }

type ChannelNotFoundError struct {
	ChannelID string
}

func (e *ChannelNotFoundError) Error() string {
	return fmt.Sprintf("channel with ID %s not found", e.ChannelID)
}

func (e *ChannelNotFoundError) Unwrap() error { return ErrChannelNotFound }

type InvalidPhoneNumberError struct {
	Field  PhoneField
	Number string
}

func (e *InvalidPhoneNumberError) Error() string {
	return fmt.Sprintf("invalid %q phone number format. Must be in E.164 format (e.g., +1234567890)", string(e.Field))
}

func (e *InvalidPhoneNumberError) Unwrap() error { return ErrInvalidPhoneNumber }

// SendError describes a failed send call. StatusCode is zero for transport failures.
type SendError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *SendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("alive5 send failed: status %d: %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("alive5 send failed: %v", e.Err)
	}
	return "alive5 send failed: " + e.Message
}

func (e *SendError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSend, e.Err}
	}
	return []error{ErrSend}
}

// InvalidResponseError is returned when a 2xx send response body is not a JSON object.
type InvalidResponseError struct {
	Body string
	Err  error
}

func (e *InvalidResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("alive5 returned a non-object response: %v", e.Err)
	}
	return "alive5 returned a non-object response"
}

func (e *InvalidResponseError) Unwrap() error { return ErrInvalidResponse }

// ItemError attributes a dispatch failure to the input item that caused it.
type ItemError struct {
	ItemIndex int
	Err       error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.ItemIndex, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// ErrorKind returns a stable, machine-readable name for err.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPhoneNumber):
		return "invalid_phone_number"
	case errors.Is(err, ErrChannelNotFound):
		return "channel_not_found"
	case errors.Is(err, ErrRemoteFetch):
		return "remote_fetch"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrSend):
		return "send"
	case errors.Is(err, ErrIncompleteCredentials):
		return "invalid_credentials"
	default:
		return "internal"
	}
}

// IsValidationError reports whether err was caused by the caller's input rather than the remote API.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidPhoneNumber) || errors.Is(err, ErrChannelNotFound)
}
