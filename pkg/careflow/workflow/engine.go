// Package workflow runs a case through the care-triage stage graph,
// checkpointing the whole record to the case store after every stage.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"care-triage-be/internal/entity"
	"care-triage-be/internal/pkg/logger"
	"care-triage-be/internal/repository/contract"
	"care-triage-be/pkg/careflow/lock"
	"care-triage-be/pkg/careflow/stage"
	"care-triage-be/pkg/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrCaseBusy is returned when another run already holds the case.
var ErrCaseBusy = errors.New("case is busy with another run")

type Engine struct {
	graph  *Graph
	store  contract.CaseRepository
	locker lock.Locker
	sink   events.Sink
	logger logger.ILogger
	tracer trace.Tracer
	now    func() time.Time
}

type Option func(*Engine)

func WithLocker(l lock.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

func WithEventSink(s events.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(graph *Graph, store contract.CaseRepository, log logger.ILogger, opts ...Option) *Engine {
	e := &Engine{
		graph:  graph,
		store:  store,
		locker: lock.NewLocalLocker(),
		logger: log,
		tracer: otel.Tracer("care-triage-be/workflow"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the graph for one utterance. A nil caseId creates a new
// case; otherwise the case is loaded and the utterance appended to its
// conversation.
//
// Stages run on a context detached from ctx so a reasoning call is never
// cut off midway. Cancellation of ctx is observed between stages, and the
// run then stops with the last checkpoint left as it was.
//
// Run fails only for storage problems, unknown case ids, a busy case or
// cancellation. Reasoning failures are absorbed by the stages.
func (e *Engine) Run(ctx context.Context, caseId uuid.UUID, utterance string) (*entity.CaseRecord, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.Run")
	defer span.End()

	// Storage and stages must not observe cancellation mid-operation.
	work := context.WithoutCancel(ctx)

	record, release, err := e.start(ctx, work, caseId, utterance)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer release()
	span.SetAttributes(attribute.String("case.id", record.CaseId.String()))

	snippets := []string{}
	stages := e.graph.Stages()
	for i := 0; i < len(stages); i++ {
		st := stages[i]
		if err := ctx.Err(); err != nil {
			e.logger.Warn("Workflow", "Run cancelled between stages", map[string]interface{}{
				"case_id":    record.CaseId.String(),
				"next_stage": st.Name(),
			})
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("workflow cancelled before %s: %w", st.Name(), err)
		}

		if err := e.step(work, st, record, utterance, &snippets); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		if terminal, ok := e.graph.next(st.Name(), record); ok {
			e.logger.Info("Workflow", "Routing to terminal stage", map[string]interface{}{
				"case_id":  record.CaseId.String(),
				"after":    st.Name(),
				"terminal": terminal.Name(),
			})
			if err := e.step(work, terminal, record, utterance, &snippets); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			break
		}
	}

	e.finish(work, record)
	return record.Clone(), nil
}

// start resolves the working copy and acquires the case lock.
func (e *Engine) start(ctx, work context.Context, caseId uuid.UUID, utterance string) (*entity.CaseRecord, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	resumed := caseId != uuid.Nil
	if !resumed {
		id, err := e.store.Create(work, utterance)
		if err != nil {
			return nil, nil, fmt.Errorf("create case: %w", err)
		}
		caseId = id
	}

	release, err := e.locker.TryLock(work, caseId.String())
	if err != nil {
		if errors.Is(err, lock.ErrLockHeld) {
			e.logger.Warn("Workflow", "Rejected run on busy case", map[string]interface{}{
				"case_id": caseId.String(),
			})
			return nil, nil, fmt.Errorf("%w: %s", ErrCaseBusy, caseId)
		}
		return nil, nil, fmt.Errorf("lock case %s: %w", caseId, err)
	}

	record, err := e.store.Load(work, caseId)
	if err != nil {
		release()
		return nil, nil, err
	}

	if resumed {
		record.Conversation = append(record.Conversation, utterance)
		if err := e.store.Save(work, caseId, record); err != nil {
			release()
			return nil, nil, err
		}
	}

	e.logger.Info("Workflow", "Run started", map[string]interface{}{
		"case_id": caseId.String(),
		"resumed": resumed,
		"turns":   len(record.Conversation),
		"stages":  e.graph.StageNames(),
	})
	return record, release, nil
}

// step executes one stage, merges its update into record and checkpoints.
func (e *Engine) step(ctx context.Context, st stage.Stage, record *entity.CaseRecord, utterance string, snippets *[]string) error {
	ctx, span := e.tracer.Start(ctx, "workflow.stage."+st.Name(),
		trace.WithAttributes(attribute.String("case.id", record.CaseId.String())))
	defer span.End()

	start := e.now()
	update, err := st.Execute(ctx, &stage.State{
		CaseId:          record.CaseId,
		Utterance:       utterance,
		ContextSnippets: append([]string(nil), (*snippets)...),
		Record:          record.Clone(),
	})
	if err != nil {
		span.RecordError(err)
		e.logger.Error("Workflow", "Stage failed", map[string]interface{}{
			"case_id": record.CaseId.String(),
			"stage":   st.Name(),
			"error":   err.Error(),
		})
		return fmt.Errorf("stage %s: %w", st.Name(), err)
	}

	merge(record, update, snippets)

	if err := e.store.Save(ctx, record.CaseId, record); err != nil {
		span.RecordError(err)
		e.logger.Error("Workflow", "Checkpoint failed", map[string]interface{}{
			"case_id": record.CaseId.String(),
			"stage":   st.Name(),
			"error":   err.Error(),
		})
		return fmt.Errorf("checkpoint after %s: %w", st.Name(), err)
	}

	e.logger.Info("Workflow", "Stage checkpointed", map[string]interface{}{
		"case_id":     record.CaseId.String(),
		"stage":       st.Name(),
		"duration_ms": e.now().Sub(start).Milliseconds(),
	})
	e.emit(ctx, events.NewCaseCheckpointed(record.CaseId.String(), st.Name(), e.now()))
	return nil
}

func (e *Engine) finish(ctx context.Context, record *entity.CaseRecord) {
	severity, action := string(entity.SeverityUnknown), entity.ActionManualReview
	if record.Triage != nil {
		severity, action = string(record.Triage.SeverityLevel), record.Triage.RecommendedAction
	}
	e.logger.Info("Workflow", "Run completed", map[string]interface{}{
		"case_id":            record.CaseId.String(),
		"severity_level":     severity,
		"recommended_action": action,
	})
	e.emit(ctx, events.NewCaseCompleted(record.CaseId.String(), severity, action, e.now()))
}

func (e *Engine) emit(ctx context.Context, event events.Event) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(ctx, event); err != nil {
		e.logger.Warn("Events", "Failed to publish workflow event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

// merge applies the fields a stage produced. Fields left nil keep their
// prior value; produced fields replace the old value wholesale.
func merge(record *entity.CaseRecord, update *stage.Update, snippets *[]string) {
	if update == nil {
		return
	}
	if update.Symptoms != nil {
		record.LastSymptoms = update.Symptoms.Clone()
	}
	if update.Triage != nil {
		record.Triage = update.Triage.Clone()
	}
	if update.Action != nil {
		record.Action = update.Action.Clone()
	}
	if update.Summary != nil {
		record.Summary = update.Summary.Clone()
	}
	if len(update.ContextSnippets) > 0 {
		*snippets = append(*snippets, update.ContextSnippets...)
	}
}
