package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directoryJSON = `{"data":{"Items":[
	{"channel_id":"c1","channel_label":"Sales","channel_phone_number":"+18320000000","agents":[{"user_id":"u1","screen_name":"Ann"}]},
	{"channel_id":"c2","channel_label":"Web","channel_phone_number":"undefined","agents":"none"},
	{"channel_id":"c3","channel_label":"Ops","channel_phone_number":null}
]}}`

func newTestClient(server *httptest.Server) *Alive5Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAlive5Client(logger, server.Client())
}

func TestAlive5Client_GetName(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Equal(t, "alive5", NewAlive5Client(logger, nil).GetName())
}

func TestAlive5Client_FetchDirectory_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/public/1.1/objects/channels-and-users/list", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get(APIKeyHeader))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, directoryJSON)
	}))
	defer server.Close()

	client := newTestClient(server)
	dir, err := client.FetchDirectory(context.Background(), domain.Credentials{APIKey: "test-api-key", BaseURL: server.URL + "/public/1.1/"})
	require.NoError(t, err)
	require.Len(t, dir, 3)

	assert.Equal(t, domain.Channel{
		ID: "c1", Label: "Sales", PhoneNumber: "+18320000000",
		Agents: []domain.Agent{{ID: "u1", ScreenName: "Ann"}},
	}, dir[0])
	assert.Empty(t, dir[1].Agents, "non-list agents are treated as no agents")
	assert.Equal(t, "", dir[2].PhoneNumber)
}

func TestAlive5Client_FetchDirectory_StringEncodedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		encoded, err := json.Marshal(directoryJSON)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "text/plain")
		w.Write(encoded)
	}))
	defer server.Close()

	dir, err := newTestClient(server).FetchDirectory(context.Background(), domain.Credentials{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)
	require.Len(t, dir, 3)
	assert.Equal(t, "Sales", dir[0].Label)
}

func TestAlive5Client_FetchDirectory_MissingItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer server.Close()

	dir, err := newTestClient(server).FetchDirectory(context.Background(), domain.Credentials{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)
	assert.Empty(t, dir)
}

func TestAlive5Client_FetchDirectory_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"http error with message", http.StatusUnauthorized, `{"message":"Invalid API key"}`, "Invalid API key"},
		{"non json body", http.StatusOK, `<html>gateway</html>`, "not a JSON object"},
		{"broken json", http.StatusOK, `{"data":`, "not valid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			dir, err := newTestClient(server).FetchDirectory(context.Background(), domain.Credentials{APIKey: "k", BaseURL: server.URL})
			require.Error(t, err)
			assert.Nil(t, dir)
			assert.True(t, errors.Is(err, domain.ErrRemoteFetch))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestAlive5Client_FetchDirectory_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewAlive5Client(logger, nil).FetchDirectory(context.Background(), domain.Credentials{APIKey: "k", BaseURL: server.URL})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRemoteFetch))
}

func TestAlive5Client_SendSMS_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/conversations/sms/send", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get(APIKeyHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{
			"phone_number_from": "+18320000000",
			"phone_number_to":   "+19995551234",
			"message":           "hi",
			"channel_id":        "c1",
			"user_id":           "u1",
		}, body)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"data":{"message_id":"m-1"}}`)
	}))
	defer server.Close()

	res, err := newTestClient(server).SendSMS(context.Background(), domain.Credentials{APIKey: "test-api-key", BaseURL: server.URL}, domain.SendRequest{
		PhoneNumberFrom: "+18320000000",
		PhoneNumberTo:   "+19995551234",
		Message:         "hi",
		ChannelID:       "c1",
		UserID:          "u1",
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, true, res.Response["success"])
	assert.Equal(t, map[string]any{"message_id": "m-1"}, res.Response["data"])
}

func TestAlive5Client_SendSMS_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"Invalid recipient number"}`)
	}))
	defer server.Close()

	res, err := newTestClient(server).SendSMS(context.Background(), domain.Credentials{APIKey: "k", BaseURL: server.URL}, domain.SendRequest{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, domain.ErrSend))

	var sendErr *domain.SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, http.StatusBadRequest, sendErr.StatusCode)
	assert.Equal(t, "Invalid recipient number", sendErr.Message)
}

func TestAlive5Client_SendSMS_NonObjectResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "OK")
	}))
	defer server.Close()

	_, err := newTestClient(server).SendSMS(context.Background(), domain.Credentials{APIKey: "k", BaseURL: server.URL}, domain.SendRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidResponse))
	assert.False(t, errors.Is(err, domain.ErrSend))
}

func TestAlive5Client_SendSMS_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewAlive5Client(logger, nil).SendSMS(context.Background(), domain.Credentials{APIKey: "k", BaseURL: server.URL}, domain.SendRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSend))
}

func TestAlive5Client_TestCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/account", r.URL.Path)
		if r.Header.Get(APIKeyHeader) != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Unauthorized"}`)
			return
		}
		fmt.Fprint(w, `{"data":{"account":"acme"}}`)
	}))
	defer server.Close()

	client := newTestClient(server)
	require.NoError(t, client.TestCredentials(context.Background(), domain.Credentials{APIKey: "good-key", BaseURL: server.URL}))

	err := client.TestCredentials(context.Background(), domain.Credentials{APIKey: "bad-key", BaseURL: server.URL})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCredentialsRejected))
}

func TestNormalizeJSONObject(t *testing.T) {
	obj, err := normalizeJSONObject([]byte(`  {"a":1} `))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(obj))

	obj, err = normalizeJSONObject([]byte(`"{\"a\":1}"`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(obj))

	_, err = normalizeJSONObject([]byte(`[1,2]`))
	assert.ErrorIs(t, err, errNotJSONObject)

	_, err = normalizeJSONObject([]byte(`"plain text"`))
	assert.ErrorIs(t, err, errNotJSONObject)

	_, err = normalizeJSONObject(nil)
	assert.ErrorIs(t, err, errNotJSONObject)
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate([]byte("  short  ")))

	// 199 ASCII bytes followed by a 2-byte rune straddles the limit.
	body := strings.Repeat("a", maxLoggedBodyLen-1) + "é" + "tail"
	got := truncate([]byte(body))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", maxLoggedBodyLen-1)+"...", got)

	multi := strings.Repeat("日本", 100)
	got = truncate([]byte(multi))
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxLoggedBodyLen+len("..."))
}
