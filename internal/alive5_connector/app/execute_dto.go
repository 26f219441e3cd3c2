package app

import (
	"errors"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
)

// ExecuteItem is one host input item on the wire. Field contents are checked per item by the
// dispatcher, so a bad item fails alone instead of rejecting the batch.
type ExecuteItem struct {
	ChannelID     string         `json:"channel_id"`
	UserID        string         `json:"user_id"`
	PhoneNumberTo string         `json:"phone_number_to"`
	Message       string         `json:"message"`
	JSON          map[string]any `json:"json,omitempty"`
}

// ExecuteRequest is the execute payload accepted over HTTP and NATS.
// NodeID and the credential fields are only read from NATS jobs; HTTP carries them in the
// path and headers.
type ExecuteRequest struct {
	NodeID         string        `json:"node_id,omitempty"`
	APIKey         string        `json:"api_key,omitempty"`
	BaseURL        string        `json:"base_url,omitempty" validate:"omitempty,url"`
	ContinueOnFail bool          `json:"continue_on_fail"`
	Items          []ExecuteItem `json:"items" validate:"required,min=1,max=1000,dive"`
}

func (r ExecuteRequest) InputItems() []domain.InputItem {
	items := make([]domain.InputItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.InputItem{
			ChannelID:     it.ChannelID,
			UserID:        it.UserID,
			PhoneNumberTo: it.PhoneNumberTo,
			Message:       it.Message,
			JSON:          it.JSON,
		})
	}
	return items
}

// ItemOutput is emitted per input item: the provider response on success, or the
// original item data plus the error on failure.
type ItemOutput struct {
	JSON       map[string]any `json:"json"`
	Error      string         `json:"error,omitempty"`
	ErrorKind  string         `json:"error_kind,omitempty"`
	PairedItem int            `json:"paired_item"`
}

type ExecuteResponse struct {
	ExecutionID string       `json:"execution_id,omitempty"`
	Items       []ItemOutput `json:"items,omitempty"`
	Error       string       `json:"error,omitempty"`
	ErrorKind   string       `json:"error_kind,omitempty"`
	ItemIndex   *int         `json:"item_index,omitempty"`
}

// NewExecuteResponse renders the outcome of Dispatcher.Execute.
func NewExecuteResponse(exec *Execution, err error) ExecuteResponse {
	var resp ExecuteResponse
	if exec != nil {
		resp.ExecutionID = exec.ID
	}
	if err != nil {
		resp.Error = err.Error()
		resp.ErrorKind = domain.ErrorKind(err)
		var itemErr *domain.ItemError
		if errors.As(err, &itemErr) {
			idx := itemErr.ItemIndex
			resp.ItemIndex = &idx
		}
		return resp
	}

	resp.Items = make([]ItemOutput, 0, len(exec.Results))
	for _, r := range exec.Results {
		out := ItemOutput{PairedItem: r.ItemIndex}
		if r.Succeeded() {
			out.JSON = r.Response
		} else {
			out.JSON = r.Input
			out.Error = r.Err.Error()
			out.ErrorKind = domain.ErrorKind(r.Err)
		}
		if out.JSON == nil {
			out.JSON = map[string]any{}
		}
		resp.Items = append(resp.Items, out)
	}
	return resp
}
