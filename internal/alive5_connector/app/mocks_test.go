package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
	"github.com/stretchr/testify/mock"
)

// MockAlive5API stands in for provider.Alive5Client.
type MockAlive5API struct {
	mock.Mock
}

func (m *MockAlive5API) FetchDirectory(ctx context.Context, creds domain.Credentials) (domain.Directory, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Directory), args.Error(1)
}

func (m *MockAlive5API) SendSMS(ctx context.Context, creds domain.Credentials, req domain.SendRequest) (*domain.SendResult, error) {
	args := m.Called(ctx, creds, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SendResult), args.Error(1)
}

func (m *MockAlive5API) TestCredentials(ctx context.Context, creds domain.Credentials) error {
	args := m.Called(ctx, creds)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testCreds = domain.Credentials{APIKey: "test-api-key", BaseURL: "https://alive5.test/public/1.1"}

func salesDirectory() domain.Directory {
	return domain.Directory{
		{
			ID: "c1", Label: "Sales", PhoneNumber: "+18320000000",
			Agents: []domain.Agent{{ID: "u1", ScreenName: "Ann"}},
		},
	}
}
