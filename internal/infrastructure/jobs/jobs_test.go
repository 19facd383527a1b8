package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGenerator struct {
	ids []uuid.UUID
	err error
}

func (g *recordingGenerator) GeneratePDF(_ context.Context, id uuid.UUID) error {
	g.ids = append(g.ids, id)
	return g.err
}

func TestQuotationPDFTaskRoundTrip(t *testing.T) {
	id := uuid.New()
	task, err := NewQuotationPDFTask(id)
	require.NoError(t, err)
	assert.Equal(t, TaskQuotationPDF, task.Type())

	gen := &recordingGenerator{}
	require.NoError(t, HandleQuotationPDF(gen)(context.Background(), task))
	assert.Equal(t, []uuid.UUID{id}, gen.ids)
}

func TestHandleQuotationPDFSkipsRetryOnBadPayload(t *testing.T) {
	err := HandleQuotationPDF(&recordingGenerator{})(context.Background(), asynq.NewTask(TaskQuotationPDF, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestInlineDispatcher(t *testing.T) {
	d := NewInlineDispatcher()
	assert.Error(t, d.EnqueueQuotationPDF(context.Background(), uuid.New()))

	boom := errors.New("gotenberg down")
	gen := &recordingGenerator{err: boom}
	d.Bind(gen)

	id := uuid.New()
	assert.ErrorIs(t, d.EnqueueQuotationPDF(context.Background(), id), boom)
	assert.Equal(t, []uuid.UUID{id}, gen.ids)
}
