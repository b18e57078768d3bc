package veille

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/referents-ia/portail/internal/cache"
	"github.com/referents-ia/portail/internal/llm"
	log "github.com/sirupsen/logrus"
)

const (
	keyQuestion = "veille:question:"
	keyNews     = "veille:news"
	keyExperts  = "veille:experts"
)

// Service answers veille requests with a web-search provider, caching
// results to limit provider calls.
type Service struct {
	provider llm.Provider
	cache    cache.Cache
	ttl      time.Duration
	loc      *time.Location
	now      func() time.Time
}

// NewService creates a veille service. timezone names the location whose
// calendar day keys the daily question.
func NewService(provider llm.Provider, c cache.Cache, ttl time.Duration, timezone string) (*Service, error) {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
		}
		loc = l
	}
	if c == nil {
		c = cache.NewMemory()
	}
	return &Service{provider: provider, cache: c, ttl: ttl, loc: loc, now: time.Now}, nil
}

func (s *Service) today() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

// ask sends prompt to the provider and returns the raw answer.
func (s *Service) ask(ctx context.Context, prompt string) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("no web-search provider configured")
	}
	req := llm.BuildRequest(systemPrompt, nil, prompt)
	req.Temperature = 0.2
	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.provider.Name(), err)
	}
	return resp.Content, nil
}

// cached returns the cached value under key, or calls fetch and caches a
// non-empty result for ttl.
func cached[T any](ctx context.Context, s *Service, key string, ttl time.Duration, empty func(T) bool, fetch func() (T, error)) (T, error) {
	var v T
	if b, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Warnf("veille: cache get %s: %v", key, err)
	} else if ok && json.Unmarshal(b, &v) == nil {
		return v, nil
	}

	v, err := fetch()
	if err != nil {
		return v, err
	}
	if !empty(v) {
		if b, err := json.Marshal(v); err == nil {
			if err := s.cache.Set(ctx, key, b, ttl); err != nil {
				log.Warnf("veille: cache set %s: %v", key, err)
			}
		}
	}
	return v, nil
}

// DailyQuestion returns the question of the day. It is cached until the
// end of the calendar day. A malformed answer yields nil without error.
func (s *Service) DailyQuestion(ctx context.Context) (*DailyQuestion, error) {
	day := s.today()
	return cached(ctx, s, keyQuestion+day, 24*time.Hour, func(q *DailyQuestion) bool { return q == nil },
		func() (*DailyQuestion, error) {
			text, err := s.ask(ctx, questionPrompt)
			if err != nil {
				return nil, err
			}
			var q DailyQuestion
			if !ExtractJSON(text, &q) || q.Question == "" {
				log.WithField("day", day).Debugf("veille: unparseable daily question: %.200q", text)
				return nil, nil
			}
			return &q, nil
		})
}

// News returns recent AI headlines. A malformed answer yields an empty
// list without error.
func (s *Service) News(ctx context.Context) ([]NewsItem, error) {
	return cached(ctx, s, keyNews, s.ttl, func(v []NewsItem) bool { return len(v) == 0 },
		func() ([]NewsItem, error) {
			text, err := s.ask(ctx, newsPrompt)
			if err != nil {
				return nil, err
			}
			items, ok := extractList[NewsItem](text)
			if !ok {
				log.Debugf("veille: unparseable news: %.200q", text)
				return []NewsItem{}, nil
			}
			return items, nil
		})
}

// Experts returns people to follow. A malformed answer yields an empty
// list without error.
func (s *Service) Experts(ctx context.Context) ([]Expert, error) {
	return cached(ctx, s, keyExperts, s.ttl, func(v []Expert) bool { return len(v) == 0 },
		func() ([]Expert, error) {
			text, err := s.ask(ctx, expertsPrompt)
			if err != nil {
				return nil, err
			}
			experts, ok := extractList[Expert](text)
			if !ok {
				log.Debugf("veille: unparseable experts: %.200q", text)
				return []Expert{}, nil
			}
			return experts, nil
		})
}

// Dashboard fetches the three widgets concurrently. A failing branch does
// not affect the others.
func (s *Service) Dashboard(ctx context.Context) Dashboard {
	var d Dashboard
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		q, err := s.DailyQuestion(ctx)
		d.Question = settle(q, err)
	}()
	go func() {
		defer wg.Done()
		news, err := s.News(ctx)
		d.News = settle(news, err)
	}()
	go func() {
		defer wg.Done()
		experts, err := s.Experts(ctx)
		d.Experts = settle(experts, err)
	}()
	wg.Wait()
	return d
}

// Refresh drops the cached widgets so the next calls query the provider.
func (s *Service) Refresh(ctx context.Context) error {
	return s.cache.Delete(ctx, keyQuestion+s.today(), keyNews, keyExperts)
}
