// Clipfeed - Personalized Video Feed Interest Engine
// Copyright 2026 Clipfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clipfeed/clipfeed

package feed

import (
	"context"
	"time"

	"github.com/clipfeed/clipfeed/internal/vector"
)

// InterestGroup is one weighted embedding cluster within a user's profile.
type InterestGroup struct {
	// Embedding is the cluster's representative vector, unit-normalized
	// except in the degenerate zero-magnitude case.
	Embedding vector.Embedding `json:"embedding"`

	// Weight is the cluster's interest strength, always in [0, 1].
	Weight float64 `json:"weight"`
}

// Profile is a user's evolving interest model: an ordered sequence of
// interest groups. Order is insertion order; an empty sequence means a
// new user. The profile is exclusively mutated by the engine's engagement
// path; everything else treats it as read-only.
type Profile struct {
	// Groups is the ordered interest group sequence.
	Groups []InterestGroup `json:"groups"`

	// UpdatedAt is when the profile last absorbed an observation.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	out := Profile{
		Groups:    make([]InterestGroup, len(p.Groups)),
		UpdatedAt: p.UpdatedAt,
	}
	for i, g := range p.Groups {
		out.Groups[i] = InterestGroup{
			Embedding: vector.Clone(g.Embedding),
			Weight:    g.Weight,
		}
	}
	return out
}

// Item is a candidate content item with the metadata ranking needs.
type Item struct {
	// ID uniquely identifies the item.
	ID string `json:"id"`

	// UploaderID identifies the user who posted the item.
	UploaderID string `json:"uploader_id"`

	// Embedding is the item's semantic vector. Empty until the asynchronous
	// processing pipeline has produced it; the ranker tolerates that.
	Embedding vector.Embedding `json:"embedding,omitempty"`

	// Views is the total view count.
	Views int64 `json:"views"`

	// Likes is the total like count.
	Likes int64 `json:"likes"`

	// Comments is the total comment count.
	Comments int64 `json:"comments"`

	// DurationMillis is the item's playback length in milliseconds.
	DurationMillis int64 `json:"duration_millis"`

	// TotalWatchTimeSeconds accumulates watch time across first views.
	TotalWatchTimeSeconds float64 `json:"total_watch_time_seconds"`

	// UploadedAt is when the item was posted.
	UploadedAt time.Time `json:"uploaded_at"`
}

// EngagementEvent is one raw interaction with an item.
type EngagementEvent struct {
	// WatchTimeSeconds is how long the user watched.
	WatchTimeSeconds float64 `json:"watch_time_seconds"`

	// Liked indicates the user liked the item.
	Liked bool `json:"liked"`

	// Commented indicates the user commented on the item.
	Commented bool `json:"commented"`

	// ViewedComments indicates the user opened the comment section.
	ViewedComments bool `json:"viewed_comments"`

	// ItemDurationMillis is the item's playback length in milliseconds.
	// A non-positive duration scores zero engagement.
	ItemDurationMillis int64 `json:"item_duration_millis"`
}

// RankResult is the scored outcome for one (user, item) pair.
type RankResult struct {
	// Item is the ranked content item.
	Item Item `json:"item"`

	// InterestScore is the profile-match component, roughly in [0, 1].
	InterestScore float64 `json:"interest_score"`

	// InterestPercent is InterestScore scaled to 0-100 for presentation.
	InterestPercent float64 `json:"interest_percent"`

	// RankScore is the combined score used for ordering and sampling.
	// It is a weighted blend and only meaningful relative to other items.
	RankScore float64 `json:"rank_score"`
}

// Ranking is a user's cached, sorted candidate ranking.
// It is a disposable derived value, never a source of truth.
type Ranking struct {
	// Results is sorted descending by RankScore (stable order on ties).
	Results []RankResult `json:"results"`

	// Watched is the watched-id set the ranking was computed against.
	// It may be stale relative to the user's current watch history.
	Watched map[string]struct{} `json:"-"`
}

// FeedRequest asks for a batch of items for one user.
type FeedRequest struct {
	// UserID is the requesting user.
	UserID string `json:"user_id"`

	// BatchSize is the number of items wanted. Defaults to
	// Config.DefaultBatchSize and is capped at Config.MaxBatchSize.
	BatchSize int `json:"batch_size,omitempty"`

	// ExcludeIDs are item ids already on the client's screen.
	ExcludeIDs []string `json:"exclude_ids,omitempty"`

	// FollowersOnly restricts the feed to followed uploaders.
	FollowersOnly bool `json:"followers_only,omitempty"`

	// RequestID is a unique identifier for tracing. Generated if empty.
	RequestID string `json:"request_id,omitempty"`
}

// FeedResponse is the delivered batch plus diagnostics.
type FeedResponse struct {
	// Items is the sampled batch, at most BatchSize entries.
	Items []RankResult `json:"items"`

	// TotalRanked is the number of candidates in the underlying ranking.
	TotalRanked int `json:"total_ranked"`

	// Eligible is how many ranked items survived the visibility filters.
	Eligible int `json:"eligible"`

	// Metadata contains timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// UserID is the user the feed is for.
	UserID string `json:"user_id"`

	// CacheHit indicates the ranking was served from cache.
	CacheHit bool `json:"cache_hit"`

	// LatencyMS is the total feed latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// Category is one entry of the fixed category catalog used by
// preference reporting.
type Category struct {
	// Label is the human-readable category name.
	Label string `json:"label"`

	// Embedding is the category's representative vector.
	Embedding vector.Embedding `json:"embedding"`
}

// Visibility carries the per-request exclusion sets the feed filter
// chain consumes. Producing these sets (reporting, blocking, following)
// is the surrounding application's concern.
type Visibility struct {
	// Existing holds the ids of items that still exist. Cached rankings
	// can reference items deleted since the ranking was computed.
	Existing map[string]struct{}

	// Reported holds item ids with more than one report against them.
	Reported map[string]struct{}

	// Blocked holds user ids blocked by or blocking the requester.
	Blocked map[string]struct{}

	// Following holds user ids the requester follows.
	Following map[string]struct{}
}

// ProfileStore loads and saves user interest profiles.
// A missing profile loads as an empty one, not an error.
type ProfileStore interface {
	LoadProfile(ctx context.Context, userID string) (Profile, error)
	SaveProfile(ctx context.Context, userID string, p Profile) error
}

// CandidateSource lists candidate items and the id sets feed filtering
// needs. Implementations own their own timeout/retry policy.
type CandidateSource interface {
	// ListCandidates returns all items not in exclude. A nil or empty
	// exclude set returns the full pool.
	ListCandidates(ctx context.Context, exclude map[string]struct{}) ([]Item, error)

	// GetItem returns one item by id.
	GetItem(ctx context.Context, itemID string) (Item, error)

	// PutItem stores or updates a content item record.
	PutItem(ctx context.Context, item Item) error

	// WatchedIDs returns the ids the user has already watched.
	WatchedIDs(ctx context.Context, userID string) (map[string]struct{}, error)

	// MarkWatched records that the user watched the item and reports
	// whether this was the user's first watch of it. Idempotent.
	MarkWatched(ctx context.Context, userID, itemID string) (bool, error)

	// Visibility returns the exclusion sets for the user's feed.
	Visibility(ctx context.Context, userID string) (Visibility, error)
}

// RankingCache memoizes per-user rankings for a bounded time window.
// Implementations must be safe for concurrent use; a failing or absent
// cache degrades to recomputation, never to an error.
type RankingCache interface {
	Get(userID string) (*Ranking, bool)
	Set(userID string, r *Ranking, ttl time.Duration)
	Delete(userID string)
}

// Catalog exposes the fixed, versioned category list for preference
// reporting.
type Catalog interface {
	Categories() []Category
}
