package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
)

// DirectoryFetcher returns the full channel directory for a credential object.
type DirectoryFetcher interface {
	FetchDirectory(ctx context.Context, creds domain.Credentials) (domain.Directory, error)
}

// CredentialsTester checks that a credential object can reach the API.
type CredentialsTester interface {
	TestCredentials(ctx context.Context, creds domain.Credentials) error
}

// OptionsService backs the host's two dropdown callbacks.
type OptionsService struct {
	fetcher DirectoryFetcher
	tester  CredentialsTester
	cache   *DirectoryCache
	logger  *slog.Logger
}

func NewOptionsService(fetcher DirectoryFetcher, tester CredentialsTester, cache *DirectoryCache, logger *slog.Logger) *OptionsService {
	return &OptionsService{
		fetcher: fetcher,
		tester:  tester,
		cache:   cache,
		logger:  logger.With("service", "alive5_options"),
	}
}

// ListChannels fetches the directory, caches it for nodeID and returns the SMS-capable channels.
// A fetch failure is returned so the host can block configuration, and drops the node's cached
// directory.
func (s *OptionsService) ListChannels(ctx context.Context, nodeID string, creds domain.Credentials) ([]domain.Option, error) {
	dir, err := s.fetcher.FetchDirectory(ctx, creds)
	if err != nil {
		optionRequestsCounter.WithLabelValues("channels", "error").Inc()
		s.logger.ErrorContext(ctx, "Error fetching channels", "node_id", nodeID, "error", err)
		s.cache.Invalidate(nodeID)
		return nil, fmt.Errorf("failed to load channels: %w", err)
	}
	s.cache.Put(nodeID, creds, dir)
	optionRequestsCounter.WithLabelValues("channels", "remote").Inc()

	opts := dir.ChannelOptions()
	s.logger.DebugContext(ctx, "Loaded channel options", "node_id", nodeID, "channels", len(dir), "selectable", len(opts))
	return opts, nil
}

// ListAgents returns the agents of channelID. It never fails: an empty channel id, an unknown
// channel or an unreachable API all yield an empty list.
func (s *OptionsService) ListAgents(ctx context.Context, nodeID string, creds domain.Credentials, channelID string) []domain.Option {
	if channelID == "" {
		optionRequestsCounter.WithLabelValues("agents", "none").Inc()
		return []domain.Option{}
	}

	if dir, ok := s.cache.Get(nodeID, creds); ok {
		if ch, found := dir.Find(channelID); found {
			optionRequestsCounter.WithLabelValues("agents", "cache").Inc()
			return ch.AgentOptions()
		}
		s.logger.DebugContext(ctx, "Channel missing from cached directory, refetching", "node_id", nodeID, "channel_id", channelID)
	}

	dir, err := s.fetcher.FetchDirectory(ctx, creds)
	if err != nil {
		optionRequestsCounter.WithLabelValues("agents", "error").Inc()
		s.logger.ErrorContext(ctx, "Error fetching agents", "node_id", nodeID, "channel_id", channelID, "error", err)
		return []domain.Option{}
	}
	s.cache.Put(nodeID, creds, dir)
	optionRequestsCounter.WithLabelValues("agents", "remote").Inc()

	ch, found := dir.Find(channelID)
	if !found {
		s.logger.InfoContext(ctx, "Selected channel not found in directory", "node_id", nodeID, "channel_id", channelID)
		return []domain.Option{}
	}
	return ch.AgentOptions()
}

// TestCredentials runs the connectivity probe for a credential object.
func (s *OptionsService) TestCredentials(ctx context.Context, creds domain.Credentials) error {
	if err := s.tester.TestCredentials(ctx, creds); err != nil {
		s.logger.WarnContext(ctx, "Credential test failed", "base_url", creds.BaseURL, "error", err)
		return err
	}
	return nil
}
