package app

import (
	"context"

	"replydesk/internal/domain"
)

// TemplateService manages the reply template library.
type TemplateService struct {
	store domain.Repository
	cache domain.Cache
}

func NewTemplateService(store domain.Repository, cache domain.Cache) *TemplateService {
	return &TemplateService{store: store, cache: cache}
}

func (s *TemplateService) Create(ctx context.Context, t domain.Template) (domain.Template, error) {
	if err := t.Validate(); err != nil {
		return domain.Template{}, err
	}
	id, err := s.store.CreateTemplate(ctx, t)
	if err != nil {
		return domain.Template{}, err
	}
	s.invalidate(ctx)
	return s.store.GetTemplate(ctx, id)
}

func (s *TemplateService) Update(ctx context.Context, t domain.Template) (domain.Template, error) {
	if err := t.Validate(); err != nil {
		return domain.Template{}, err
	}
	if _, err := s.store.GetTemplate(ctx, t.ID); err != nil {
		return domain.Template{}, err
	}
	if err := s.store.UpdateTemplate(ctx, t); err != nil {
		return domain.Template{}, err
	}
	s.invalidate(ctx)
	return s.store.GetTemplate(ctx, t.ID)
}

func (s *TemplateService) Get(ctx context.Context, id int64) (domain.Template, error) {
	return s.store.GetTemplate(ctx, id)
}

func (s *TemplateService) List(ctx context.Context, activeOnly bool) ([]domain.Template, error) {
	return s.store.ListTemplates(ctx, activeOnly)
}

func (s *TemplateService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Preview renders a template body against a sample review without touching
// storage.
func (s *TemplateService) Preview(body, author string, rating int, comment string) (string, error) {
	if err := domain.CheckBody(body); err != nil {
		return "", err
	}
	if author == "" {
		author = "Customer"
	}
	if rating == 0 {
		rating = 5
	}
	sample := domain.Review{Author: author, Rating: rating}
	if comment != "" {
		sample.Comment = &comment
	}
	return domain.Render(body, sample), nil
}

func (s *TemplateService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, activeTemplatesKey)
}
