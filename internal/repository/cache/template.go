package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
)

// TemplateRepository is a read-through cache in front of another template
// store. Misses are not cached so a template seeded later is picked up on the
// next lookup.
type TemplateRepository struct {
	inner repository.NotificationTemplateRepository
	cache *gocache.Cache
}

var _ repository.NotificationTemplateRepository = (*TemplateRepository)(nil)

func NewTemplateRepository(inner repository.NotificationTemplateRepository, ttl time.Duration) *TemplateRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TemplateRepository{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (r *TemplateRepository) FindByKey(ctx context.Context, key string) (*model.NotificationTemplate, error) {
	if cached, found := r.cache.Get(key); found {
		return clone(cached.(*model.NotificationTemplate)), nil
	}

	tmpl, err := r.inner.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	r.cache.Set(key, clone(tmpl), gocache.DefaultExpiration)
	return tmpl, nil
}

func (r *TemplateRepository) CreateIfAbsent(ctx context.Context, tmpl *model.NotificationTemplate) (bool, error) {
	inserted, err := r.inner.CreateIfAbsent(ctx, tmpl)
	if err != nil {
		return false, err
	}
	if inserted {
		r.cache.Delete(tmpl.Key)
	}
	return inserted, nil
}

func clone(t *model.NotificationTemplate) *model.NotificationTemplate {
	c := *t
	c.WhoCanSend = append([]string(nil), t.WhoCanSend...)
	c.Recipients = append([]string(nil), t.Recipients...)
	c.Channels = append([]model.Channel(nil), t.Channels...)
	return &c
}
