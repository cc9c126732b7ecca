package announce

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kozaktomas/recall/internal/audio"
	"github.com/kozaktomas/recall/internal/database"
	"github.com/kozaktomas/recall/internal/tts"
)

// ErrEmptyText is returned when a phrase normalizes to nothing.
var ErrEmptyText = errors.New("announcement text is empty")

// Request asks the cache for one spoken phrase.
type Request struct {
	PersonID string // attribution only, not part of the phrase key
	Text     string
	VoiceID  string
	ModelID  string
	// Regenerate forces a fresh synthesis even when a cached object exists.
	// The new audio replaces the old one under the same phrase key.
	Regenerate bool
}

// Announcement is the cache's answer: where the audio lives and whether it
// was already there.
type Announcement struct {
	PhraseKey string
	ObjectKey string
	URL       string
	SizeBytes int64
	Cached    bool
}

// Cache is the content-addressed announcement cache. Concurrent requests for
// the same phrase key collapse into a single synthesis; completed audio is
// stored durably so later requests never touch the synthesis provider.
// Failures are never cached: the next request retries.
type Cache struct {
	store    audio.Store
	records  database.AnnouncementRepository
	provider tts.Provider
	group    singleflight.Group
	timeout  time.Duration
}

// NewCache creates an announcement cache. The timeout bounds one synthesis
// call including the audio upload.
func NewCache(store audio.Store, records database.AnnouncementRepository, provider tts.Provider, timeout time.Duration) *Cache {
	return &Cache{
		store:    store,
		records:  records,
		provider: provider,
		timeout:  timeout,
	}
}

// Ensure returns the audio for a phrase, synthesizing it first if needed.
//
// The fast path reads the durable record and verifies the object still
// exists. The slow path runs under singleflight so that N concurrent callers
// of a cold phrase produce exactly one provider call, and under a detached
// context so a caller hanging up does not waste an in-flight synthesis:
// remaining waiters and all future callers still get the result.
//
// Regeneration shares the same flight as plain requests, so the one-call-per
// phrase-key bound holds even when the two race. A regenerate caller that
// joins a flight answered from the cache forgets the flight and runs a fresh
// synthesis instead.
func (c *Cache) Ensure(ctx context.Context, req Request) (*Announcement, error) {
	normalized := NormalizeText(req.Text)
	if normalized == "" {
		return nil, ErrEmptyText
	}
	key := PhraseKey(normalized, req.VoiceID, req.ModelID)

	if !req.Regenerate {
		if ann, err := c.lookup(ctx, key); err != nil {
			return nil, err
		} else if ann != nil {
			return ann, nil
		}
	}

	for {
		ch := c.group.DoChan(key, func() (any, error) {
			synthCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
			defer cancel()
			return c.synthesize(synthCtx, key, normalized, req)
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			ann := res.Val.(*Announcement)
			if req.Regenerate && ann.Cached {
				// Another caller's flight was answered from the cache;
				// that does not count as regeneration.
				c.group.Forget(key)
				continue
			}
			return ann, nil
		case <-ctx.Done():
			// The flight keeps running for the other waiters.
			return nil, ctx.Err()
		}
	}
}

// lookup serves the fast path: a durable record whose object is still in
// storage. A record pointing at a vanished object is treated as a miss.
func (c *Cache) lookup(ctx context.Context, key string) (*Announcement, error) {
	record, err := c.records.Get(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read announcement record: %w", err)
	}

	exists, err := c.store.Exists(ctx, record.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check announcement audio: %w", err)
	}
	if !exists {
		log.Printf("announcement %s has a record but no audio object, resynthesizing", key)
		return nil, nil
	}

	url, err := c.store.URL(ctx, record.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build audio URL: %w", err)
	}
	return &Announcement{
		PhraseKey: key,
		ObjectKey: record.ObjectKey,
		URL:       url,
		SizeBytes: record.SizeBytes,
		Cached:    true,
	}, nil
}

// synthesize runs the slow path inside a flight: double-check the durable
// store, call the provider, upload the audio, record the result.
func (c *Cache) synthesize(ctx context.Context, key, normalized string, req Request) (*Announcement, error) {
	// Another instance may have filled the cache while this flight queued.
	if !req.Regenerate {
		if ann, err := c.lookup(ctx, key); err != nil {
			return nil, err
		} else if ann != nil {
			return ann, nil
		}
	}

	result, err := c.provider.Synthesize(ctx, tts.Request{
		Text:    normalized,
		VoiceID: req.VoiceID,
		ModelID: req.ModelID,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}

	objectKey := "announcements/" + key + ".mp3"
	if err := c.store.Put(ctx, objectKey, result.Audio, result.MIMEType); err != nil {
		return nil, fmt.Errorf("failed to store announcement audio: %w", err)
	}

	record := &database.CachedAnnouncement{
		PhraseKey: key,
		PersonID:  req.PersonID,
		Text:      normalized,
		VoiceID:   req.VoiceID,
		ModelID:   req.ModelID,
		ObjectKey: objectKey,
		SizeBytes: int64(len(result.Audio)),
	}
	if err := c.records.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record announcement: %w", err)
	}

	url, err := c.store.URL(ctx, objectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build audio URL: %w", err)
	}
	return &Announcement{
		PhraseKey: key,
		ObjectKey: objectKey,
		URL:       url,
		SizeBytes: record.SizeBytes,
	}, nil
}
