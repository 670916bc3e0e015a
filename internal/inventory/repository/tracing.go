package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/stockroom/internal/inventory/domain"
)

var tracer = otel.Tracer("inventory-repository")

// TracingItemStore wraps an ItemStore with a span per call
type TracingItemStore struct {
	next domain.ItemStore
}

// NewTracingItemStore creates a new store with tracing
func NewTracingItemStore(next domain.ItemStore) *TracingItemStore {
	return &TracingItemStore{next: next}
}

func (s *TracingItemStore) FetchAll(ctx context.Context) ([]domain.Item, error) {
	ctx, span := tracer.Start(ctx, "repository.FetchAll")
	defer span.End()

	items, err := s.next.FetchAll(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("items.count", len(items)))
	return items, nil
}

func (s *TracingItemStore) Get(ctx context.Context, id string) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "repository.Get",
		trace.WithAttributes(attribute.String("item.id", id)),
	)
	defer span.End()

	item, err := s.next.Get(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("item.name", item.Name),
		attribute.Int("item.stock", item.Stock),
	)
	return item, nil
}

func (s *TracingItemStore) FindByName(ctx context.Context, name string) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByName",
		trace.WithAttributes(attribute.String("item.name", name)),
	)
	defer span.End()

	item, err := s.next.FindByName(ctx, name)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("item.id", item.ID))
	return item, nil
}

func (s *TracingItemStore) Create(ctx context.Context, item *domain.Item) error {
	ctx, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.String("item.name", item.Name),
			attribute.Int("item.stock", item.Stock),
		),
	)
	defer span.End()

	if err := s.next.Create(ctx, item); err != nil {
		recordError(span, err)
		return err
	}

	span.SetAttributes(attribute.String("item.id", item.ID))
	return nil
}

func (s *TracingItemStore) SetStock(ctx context.Context, id string, stock int) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "repository.SetStock",
		trace.WithAttributes(
			attribute.String("item.id", id),
			attribute.Int("item.stock", stock),
		),
	)
	defer span.End()

	item, err := s.next.SetStock(ctx, id, stock)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return item, nil
}

func (s *TracingItemStore) CompareAndSetStock(ctx context.Context, id string, expected, stock int) (*domain.Item, bool, error) {
	ctx, span := tracer.Start(ctx, "repository.CompareAndSetStock",
		trace.WithAttributes(
			attribute.String("item.id", id),
			attribute.Int("item.expected_stock", expected),
			attribute.Int("item.stock", stock),
		),
	)
	defer span.End()

	item, swapped, err := s.next.CompareAndSetStock(ctx, id, expected, stock)
	if err != nil {
		recordError(span, err)
		return nil, false, err
	}

	span.SetAttributes(attribute.Bool("swapped", swapped))
	return item, swapped, nil
}

func (s *TracingItemStore) IncrementStock(ctx context.Context, id string, delta int) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "repository.IncrementStock",
		trace.WithAttributes(
			attribute.String("item.id", id),
			attribute.Int("item.delta", delta),
		),
	)
	defer span.End()

	item, err := s.next.IncrementStock(ctx, id, delta)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("item.stock", item.Stock))
	return item, nil
}

func (s *TracingItemStore) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "repository.Delete",
		trace.WithAttributes(attribute.String("item.id", id)),
	)
	defer span.End()

	if err := s.next.Delete(ctx, id); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
