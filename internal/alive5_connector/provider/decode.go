package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
)

var errNotJSONObject = errors.New("body is not a JSON object")

// normalizeJSONObject returns the JSON object held by body. The API sometimes answers with a
// JSON string whose content is the object itself; both shapes are accepted.
func normalizeJSONObject(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("decode string-encoded body: %w", err)
		}
		trimmed = bytes.TrimSpace([]byte(inner))
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotJSONObject
	}
	if !json.Valid(trimmed) {
		return nil, errors.New("body is not valid JSON")
	}
	return trimmed, nil
}

func decodeJSONObject(body []byte) (map[string]any, error) {
	obj, err := normalizeJSONObject(body)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(obj, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type directoryEnvelope struct {
	Data *struct {
		Items []wireChannel `json:"Items"`
	} `json:"data"`
}

type wireChannel struct {
	ChannelID          string          `json:"channel_id"`
	ChannelLabel       string          `json:"channel_label"`
	ChannelPhoneNumber string          `json:"channel_phone_number"`
	Agents             json.RawMessage `json:"agents"`
}

type wireAgent struct {
	UserID     string `json:"user_id"`
	ScreenName string `json:"screen_name"`
}

func decodeDirectory(body []byte) (domain.Directory, error) {
	obj, err := normalizeJSONObject(body)
	if err != nil {
		return nil, err
	}
	var env directoryEnvelope
	if err := json.Unmarshal(obj, &env); err != nil {
		return nil, fmt.Errorf("decode directory envelope: %w", err)
	}
	if env.Data == nil {
		return domain.Directory{}, nil
	}

	dir := make(domain.Directory, 0, len(env.Data.Items))
	for _, item := range env.Data.Items {
		ch := domain.Channel{
			ID:          item.ChannelID,
			Label:       item.ChannelLabel,
			PhoneNumber: item.ChannelPhoneNumber,
		}
		// A channel whose agents field is missing or not a list simply has no agents.
		agentsRaw := bytes.TrimSpace(item.Agents)
		if len(agentsRaw) > 0 && agentsRaw[0] == '[' {
			var agents []wireAgent
			if err := json.Unmarshal(agentsRaw, &agents); err == nil {
				ch.Agents = make([]domain.Agent, 0, len(agents))
				for _, a := range agents {
					ch.Agents = append(ch.Agents, domain.Agent{ID: a.UserID, ScreenName: a.ScreenName})
				}
			}
		}
		dir = append(dir, ch)
	}
	return dir, nil
}
