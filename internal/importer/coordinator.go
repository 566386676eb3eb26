// Package importer coordinates one workbook import end to end: sheet
// recognition, row extraction, entity resolution, staged reconciliation and
// the final atomic commit.
package importer

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pulseboard/internal/merge"
	"pulseboard/internal/model"
	"pulseboard/internal/parser"
	"pulseboard/internal/resolver"
	"pulseboard/internal/store"
)

// ErrBusy another import batch is still running. Only one batch may be
// active at a time.
var ErrBusy = errors.New("an import is already in progress")

// Config import policy settings.
type Config struct {
	// ReasonKeywords project-cell values routed to the Internal project.
	ReasonKeywords []string
	// InternalProjectName display name for the synthetic Internal project.
	InternalProjectName string
}

// ProgressEvent one progress update, streamed to the client as SSE.
type ProgressEvent struct {
	Type      string    `json:"type"` // start/sheet_start/sheet_done/done/error
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Coordinator drives import batches against one store.
type Coordinator struct {
	store *store.Store
	recog *parser.Recognizer
	cfg   Config
	log   *logrus.Logger

	mu sync.Mutex // held for the duration of one batch
}

// NewCoordinator creates an import coordinator.
func NewCoordinator(st *store.Store, cfg Config, log *logrus.Logger) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{
		store: st,
		recog: parser.NewRecognizer(),
		cfg:   cfg,
		log:   log,
	}
}

// importContext everything one running batch carries between stages.
type importContext struct {
	workbook *parser.Workbook
	batch    *model.ImportBatch
	resolver *resolver.Resolver
	engine   *merge.Engine
	events   chan ProgressEvent
	log      *logrus.Entry
}

// Import starts a batch for an uploaded workbook and returns its progress
// channel. The channel is closed when the batch reaches a terminal state;
// the final report rides on the "done" event. ErrBusy if a batch is already
// running.
func (c *Coordinator) Import(r io.Reader, filename string) (<-chan ProgressEvent, error) {
	if !c.mu.TryLock() {
		return nil, ErrBusy
	}

	events := make(chan ProgressEvent, 100)
	go func() {
		defer c.mu.Unlock()
		defer close(events)
		c.run(r, filename, events)
	}()
	return events, nil
}

func (c *Coordinator) run(r io.Reader, filename string, events chan ProgressEvent) {
	batch := model.NewBatch(filename)
	log := c.log.WithFields(logrus.Fields{"batch": batch.ID.String(), "workbook": filename})

	send(events, ProgressEvent{
		Type:      "start",
		Message:   "import started",
		Data:      map[string]string{"batchId": batch.ID.String(), "workbook": filename},
		Timestamp: time.Now(),
	})

	wb, err := parser.OpenWorkbook(r)
	if err != nil {
		log.WithError(err).Error("failed to open workbook")
		c.abort(batch, events, fmt.Errorf("failed to open workbook: %w", err))
		return
	}
	defer wb.Close()

	snap, err := c.store.Snapshot()
	if err != nil {
		log.WithError(err).Error("failed to read canonical snapshot")
		c.abort(batch, events, err)
		return
	}
	known, err := c.store.KnownFactKeys()
	if err != nil {
		log.WithError(err).Error("failed to read stored fact keys")
		c.abort(batch, events, err)
		return
	}

	ctx := &importContext{
		workbook: wb,
		batch:    batch,
		resolver: resolver.New(snap, resolver.Config{
			ReasonKeywords:      c.cfg.ReasonKeywords,
			InternalProjectName: c.cfg.InternalProjectName,
		}),
		engine: merge.NewEngine(known),
		events: events,
		log:    log,
	}
	batch.State = model.BatchProcessing

	sheets := wb.Sheets()
	log.WithField("sheets", len(sheets)).Info("workbook opened")
	for _, sheet := range sheets {
		if err := c.processSheet(ctx, sheet); err != nil {
			log.WithError(err).WithField("sheet", sheet).Error("sheet processing failed")
			c.abort(batch, events, err)
			return
		}
	}

	// entities created from fact-row references, behind any staff-sheet rows
	createdEmployees, createdProjects := ctx.resolver.Created()
	for _, e := range createdEmployees {
		ctx.engine.EnsureEmployee(e)
	}
	for _, p := range createdProjects {
		ctx.engine.EnsureProject(p)
	}

	batch.State = model.BatchCommitted
	batch.FinishedAt = time.Now()
	if err := c.store.ApplyBatch(batch, ctx.engine.Staged()); err != nil {
		log.WithError(err).Error("commit failed")
		c.abort(batch, events, err)
		return
	}

	rep := batch.Report()
	log.WithFields(logrus.Fields{
		"accepted":  rep.Accepted,
		"created":   rep.Created,
		"corrected": rep.Corrected,
		"rejected":  len(rep.Rejected),
	}).Info("import committed")
	send(events, ProgressEvent{Type: "done", Message: "import committed", Data: rep, Timestamp: time.Now()})
}

// abort rolls the batch back: nothing staged reaches the store, only the
// audit log row is written (best effort).
func (c *Coordinator) abort(batch *model.ImportBatch, events chan ProgressEvent, cause error) {
	batch.State = model.BatchRolledBack
	batch.FinishedAt = time.Now()

	rep := batch.Report()
	rep.Error = cause.Error()
	if err := c.store.LogRolledBack(batch); err != nil {
		c.log.WithError(err).Warn("failed to record rolled-back batch")
	}

	send(events, ProgressEvent{Type: "error", Message: cause.Error(), Timestamp: time.Now()})
	send(events, ProgressEvent{Type: "done", Message: "import rolled back", Data: rep, Timestamp: time.Now()})
}

func (c *Coordinator) processSheet(ctx *importContext, sheet string) error {
	header, err := ctx.workbook.Header(sheet)
	if err != nil {
		// an unreadable or empty sheet is skipped, not fatal
		ctx.batch.RecordSheet(sheet, string(parser.SheetUnknown))
		send(ctx.events, ProgressEvent{
			Type:      "sheet_done",
			Message:   fmt.Sprintf("sheet %q skipped: %v", sheet, err),
			Timestamp: time.Now(),
		})
		return nil
	}

	rec := c.recog.Recognize(sheet, header)
	ctx.batch.RecordSheet(sheet, string(rec.Type))
	send(ctx.events, ProgressEvent{
		Type:      "sheet_start",
		Message:   fmt.Sprintf("processing sheet %q", sheet),
		Data:      rec,
		Timestamp: time.Now(),
	})

	if rec.Type == parser.SheetUnknown {
		ctx.log.WithFields(logrus.Fields{"sheet": sheet, "confidence": rec.Confidence}).
			Warn("unrecognized sheet skipped")
		send(ctx.events, ProgressEvent{
			Type:      "sheet_done",
			Message:   fmt.Sprintf("sheet %q not recognized, skipped", sheet),
			Timestamp: time.Now(),
		})
		return nil
	}

	handler := c.rowHandler(rec.Type)
	if err := ctx.workbook.ForEachRow(sheet, func(row parser.Row) error {
		if err := handler(ctx, sheet, row); err != nil {
			c.rejectRow(ctx, sheet, row.Number, err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	send(ctx.events, ProgressEvent{
		Type:      "sheet_done",
		Message:   fmt.Sprintf("sheet %q processed", sheet),
		Timestamp: time.Now(),
	})
	return nil
}

// rowHandler picks the row builder for a recognized sheet type. A builder
// error rejects the row only; store failures abort the batch elsewhere.
func (c *Coordinator) rowHandler(t parser.SheetType) func(*importContext, string, parser.Row) error {
	switch t {
	case parser.SheetStaffSOT:
		return c.staffRow
	case parser.SheetJobStatus:
		return c.jobStatusRow
	case parser.SheetPipelineRevenue:
		return c.pipelineRow
	case parser.SheetOpenOpportunities:
		return c.openOpportunityRow
	case parser.SheetGrossProfit:
		return c.grossProfitRow
	case parser.SheetPersonalHours:
		return c.personalHoursRow
	case parser.SheetProjectHours:
		return c.projectHoursRow
	case parser.SheetCxMasterList:
		return c.cxRow
	case parser.SheetResourceCost:
		return func(ctx *importContext, sheet string, row parser.Row) error {
			return c.resourceCostRow(ctx, sheet, row, model.StreamDelivery)
		}
	case parser.SheetResourceCostAF:
		return func(ctx *importContext, sheet string, row parser.Row) error {
			return c.resourceCostRow(ctx, sheet, row, model.StreamAF)
		}
	default:
		return func(*importContext, string, parser.Row) error { return nil }
	}
}

func send(ch chan ProgressEvent, ev ProgressEvent) {
	select {
	case ch <- ev:
	default:
		// channel full, drop the event
	}
}
