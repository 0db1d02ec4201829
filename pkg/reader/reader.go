package reader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cuemby/flashflood/pkg/flashflood"
	"github.com/cuemby/flashflood/pkg/journal"
	"github.com/cuemby/flashflood/pkg/timeutil"
)

// RangeFetcher fetches url starting at byte offset from to the end of the
// resource, the same way a presigned GET with a Range header would. The
// returned body is read sequentially and closed by the caller.
type RangeFetcher interface {
	FetchRange(ctx context.Context, url string, from int64) (io.ReadCloser, error)
}

// HTTPRangeFetcher is the default RangeFetcher, backed by an *http.Client.
type HTTPRangeFetcher struct {
	Client *http.Client
}

// NewHTTPRangeFetcher builds an HTTPRangeFetcher. A nil client falls back
// to http.DefaultClient.
func NewHTTPRangeFetcher(client *http.Client) *HTTPRangeFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRangeFetcher{Client: client}
}

// FetchRange issues a GET with a "bytes=from-" Range header.
func (f *HTTPRangeFetcher) FetchRange(ctx context.Context, url string, from int64) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("reader: build request: %w", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-", from))

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reader: fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("reader: fetch %s: unexpected status %s", url, resp.Status)
	}
	return resp.Body, nil
}

// ReplayEventStream replays the events of stream that fall within
// (from, to] by locating the first in-range event's offset, issuing one
// range fetch from that offset to the end of the blob, and decoding events
// sequentially until one past the range is seen.
//
// It mirrors the engine's own Replay, but works from a manifest and a
// presigned URL alone: no store access is needed, only an HTTP client.
func ReplayEventStream(ctx context.Context, fetcher RangeFetcher, stream flashflood.EventStream, from, to *time.Time) (flashflood.EventIterator, error) {
	searchRange := timeutil.NewDateRange(from, to)

	startIdx := -1
	for i, e := range stream.Events {
		date, err := timeutil.Parse(e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("reader: parse event timestamp %q: %w", e.Timestamp, err)
		}
		if searchRange.Contains(date) {
			startIdx = i
			break
		}
	}
	if startIdx == -1 {
		return func() (journal.Event, bool, error) { return journal.Event{}, false, nil }, nil
	}

	body, err := fetcher.FetchRange(ctx, stream.StreamURL, stream.Events[startIdx].Offset)
	if err != nil {
		return nil, err
	}

	idx := startIdx
	closed := false
	return func() (journal.Event, bool, error) {
		for idx < len(stream.Events) {
			e := stream.Events[idx]
			date, err := timeutil.Parse(e.Timestamp)
			if err != nil {
				body.Close()
				return journal.Event{}, false, fmt.Errorf("reader: parse event timestamp %q: %w", e.Timestamp, err)
			}

			if searchRange.Contains(date) {
				data := make([]byte, e.Size)
				if _, err := io.ReadFull(body, data); err != nil {
					body.Close()
					return journal.Event{}, false, fmt.Errorf("reader: read event %s: %w", e.EventID, err)
				}
				idx++
				return journal.Event{EventID: e.EventID, Date: date, Data: data}, true, nil
			}

			if searchRange.Future().Contains(date) {
				break
			}
			idx++
		}
		if !closed {
			closed = true
			body.Close()
		}
		return journal.Event{}, false, nil
	}, nil
}
