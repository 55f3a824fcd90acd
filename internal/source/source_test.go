package source_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/source"
	"github.com/stretchr/testify/require"
)

func pagesFetcher(pages map[string]source.Page, calls *[]string) source.FetchPage {
	return func(_ context.Context, token string) (source.Page, error) {
		*calls = append(*calls, token)
		page, ok := pages[token]
		if !ok {
			return source.Page{}, errors.New("unknown token " + token)
		}
		return page, nil
	}
}

func TestPager(t *testing.T) {
	start := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

	t.Run("pages are presented as one sequence", func(t *testing.T) {
		var calls []string
		pages := map[string]source.Page{
			"":   {Events: []source.Event{{ID: "ev1", StartTime: start}, {ID: "ev2"}}, NextToken: "p2"},
			"p2": {Events: []source.Event{}, NextToken: "p3"},
			"p3": {Events: []source.Event{{ID: "ev3"}}},
		}
		events, err := source.Collect(context.Background(), source.NewPager(pagesFetcher(pages, &calls)))
		require.NoError(t, err)
		require.Equal(t, []string{"", "p2", "p3"}, calls)

		ids := make([]string, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		require.Equal(t, []string{"ev1", "ev2", "ev3"}, ids)
		require.Equal(t, start, events[0].StartTime)
	})

	t.Run("sequence is single pass", func(t *testing.T) {
		var calls []string
		pages := map[string]source.Page{"": {Events: []source.Event{{ID: "ev1"}}}}
		p := source.NewPager(pagesFetcher(pages, &calls))

		require.True(t, p.Next(context.Background()))
		require.False(t, p.Next(context.Background()))
		require.False(t, p.Next(context.Background()))
		require.NoError(t, p.Err())
		require.Len(t, calls, 1)
	})

	t.Run("failed page stops the sequence", func(t *testing.T) {
		var calls []string
		pages := map[string]source.Page{"": {Events: []source.Event{{ID: "ev1"}}, NextToken: "missing"}}
		p := source.NewPager(pagesFetcher(pages, &calls))

		events, err := source.Collect(context.Background(), p)
		require.Error(t, err)
		require.Len(t, events, 1)
		require.False(t, p.Next(context.Background()))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var calls []string
		p := source.NewPager(pagesFetcher(map[string]source.Page{}, &calls))

		require.False(t, p.Next(ctx))
		require.ErrorIs(t, p.Err(), context.Canceled)
		require.Empty(t, calls)
	})

	t.Run("slice", func(t *testing.T) {
		events, err := source.Collect(context.Background(), source.FromSlice([]source.Event{{ID: "a"}, {ID: "b"}}))
		require.NoError(t, err)
		require.Len(t, events, 2)

		events, err = source.Collect(context.Background(), source.FromSlice(nil))
		require.NoError(t, err)
		require.Empty(t, events)
	})
}
