package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/bilibili"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/cache"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/config"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/match"
)

type MockSearchClient struct {
	mock.Mock
}

func (m *MockSearchClient) Search(ctx context.Context, keyword string) (*bilibili.SearchResponse, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bilibili.SearchResponse), args.Error(1)
}

type staticConfig struct {
	cfg config.Config
}

func (s staticConfig) Snapshot() config.Config { return s.cfg }

func searchResponse(results ...bilibili.SearchResult) *bilibili.SearchResponse {
	resp := &bilibili.SearchResponse{}
	resp.Data.Result = results
	return resp
}

func TestResolveSelectsBestCandidate(t *testing.T) {
	client := new(MockSearchClient)
	client.On("Search", mock.Anything, "晴天 周杰伦 MV/PV").Return(searchResponse(
		bilibili.SearchResult{Title: `<em class="keyword">晴天</em> Official MV`, Duration: "3:45", Play: 10000, Bvid: "BV1"},
		bilibili.SearchResult{Title: "Unrelated", Duration: "3:44", Play: 1, Bvid: "BV2"},
	), nil)

	svc := New(client, cache.New(nil), staticConfig{config.Default()})
	track := match.Track{Title: "晴天", Artist: "周杰伦", DurationMs: 225000}

	id, err := svc.Resolve(context.Background(), track)
	require.NoError(t, err)
	assert.Equal(t, "BV1", id)
	client.AssertExpectations(t)
}

func TestResolveCachesSelection(t *testing.T) {
	client := new(MockSearchClient)
	client.On("Search", mock.Anything, mock.Anything).Return(searchResponse(
		bilibili.SearchResult{Title: "晴天 MV", Duration: "3:45", Play: 10000, Bvid: "BV1"},
	), nil).Once()

	svc := New(client, cache.New(nil), staticConfig{config.Default()})
	track := match.Track{Title: "晴天", Artist: "周杰伦", DurationMs: 225000}

	for i := 0; i < 2; i++ {
		id, err := svc.Resolve(context.Background(), track)
		require.NoError(t, err)
		assert.Equal(t, "BV1", id)
	}
	client.AssertExpectations(t)
}

func TestResolveDoesNotCacheMisses(t *testing.T) {
	client := new(MockSearchClient)
	client.On("Search", mock.Anything, mock.Anything).Return(searchResponse(
		bilibili.SearchResult{Title: "Unrelated", Duration: "3:44", Play: 1, Bvid: "BV2"},
	), nil).Twice()

	svc := New(client, cache.New(nil), staticConfig{config.Default()})
	track := match.Track{Title: "晴天", Artist: "周杰伦", DurationMs: 225000}

	for i := 0; i < 2; i++ {
		id, err := svc.Resolve(context.Background(), track)
		require.NoError(t, err)
		assert.Equal(t, "", id)
	}
	client.AssertExpectations(t)
}

func TestResolvePropagatesSearchFailure(t *testing.T) {
	client := new(MockSearchClient)
	client.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("request blocked")).Twice()

	svc := New(client, cache.New(nil), staticConfig{config.Default()})
	track := match.Track{Title: "晴天", Artist: "周杰伦", DurationMs: 225000}

	// Failures propagate and are not cached.
	for i := 0; i < 2; i++ {
		_, err := svc.Resolve(context.Background(), track)
		assert.Error(t, err)
	}
	client.AssertExpectations(t)
}

func TestResolveEmptyResults(t *testing.T) {
	client := new(MockSearchClient)
	client.On("Search", mock.Anything, mock.Anything).Return(&bilibili.SearchResponse{}, nil)

	svc := New(client, cache.New(nil), staticConfig{config.Default()})
	id, err := svc.Resolve(context.Background(), match.Track{Title: "晴天", DurationMs: 1000})
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestResolveUsesKeywordTemplate(t *testing.T) {
	cfg := config.Default()
	cfg.SearchKeyword = "{name} PV"

	client := new(MockSearchClient)
	client.On("Search", mock.Anything, "晴天 PV").Return(&bilibili.SearchResponse{}, nil)

	svc := New(client, cache.New(nil), staticConfig{cfg})
	_, err := svc.Resolve(context.Background(), match.Track{Title: "晴天 (Live)", Artist: "周杰伦"})
	require.NoError(t, err)
	client.AssertExpectations(t)
}
