package qrcode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"qr-serverless/internal/observability"
	"qr-serverless/internal/render"
	"qr-serverless/internal/symbol"
)

var (
	ErrRender  = errors.New("render qr code")
	ErrPersist = errors.New("persist qr code")
)

type RecordStore interface {
	Create(ctx context.Context, record Record) error
	List(ctx context.Context, ownerID string) ([]Record, error)
	Get(ctx context.Context, ownerID, id string) (Record, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type ImageRenderer interface {
	Render(matrix symbol.Matrix, options render.Options) ([]byte, error)
}

type Service struct {
	store    RecordStore
	encoder  symbol.Encoder
	renderer ImageRenderer
	now      func() time.Time
}

func NewService(store RecordStore, encoder symbol.Encoder, renderer ImageRenderer) *Service {
	return &Service{
		store:    store,
		encoder:  encoder,
		renderer: renderer,
		now:      time.Now,
	}
}

// Create encodes and renders before touching the store, so a failed render
// leaves nothing behind. Failures wrap ErrRender or ErrPersist.
func (s *Service) Create(ctx context.Context, ownerID string, options StyleOptions) (Record, error) {
	image, err := s.render(options)
	observability.RecordRender(options.DotStyle, options.EyeStyle, err == nil)
	if err != nil {
		return Record{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Record{}, fmt.Errorf("%w: generate uuid v7: %w", ErrPersist, err)
	}

	record := Record{
		ID:        id.String(),
		OwnerID:   ownerID,
		URL:       options.URL,
		DotStyle:  options.DotStyle,
		EyeStyle:  options.EyeStyle,
		FillColor: options.FillColor,
		BackColor: options.BackColor,
		Image:     image,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, record); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	return record, nil
}

func (s *Service) render(options StyleOptions) ([]byte, error) {
	matrix, err := s.encoder.Encode(options.URL, symbol.DefaultLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	image, err := s.renderer.Render(matrix, render.Options{
		DotStyle:  render.Shape(options.DotStyle),
		EyeStyle:  render.Shape(options.EyeStyle),
		FillColor: options.FillColor,
		BackColor: options.BackColor,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return image, nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]Record, error) {
	records, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return records, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (Record, error) {
	record, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return record, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
