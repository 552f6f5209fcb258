package handlers

import (
	"context"
	"encoding/hex"
	"errors"
	"image"
	"time"

	"qlweb/internal/brotherql"
	"qlweb/internal/config"
	"qlweb/internal/domain"
	"qlweb/internal/infra/logging"
	"qlweb/internal/render"
)

// Journal persists print attempts.
type Journal interface {
	Record(ctx context.Context, rec domain.PrintRecord) error
	Recent(ctx context.Context, limit int) ([]domain.PrintRecord, error)
}

// EventPublisher announces print attempts.
type EventPublisher interface {
	PublishPrint(rec domain.PrintRecord) error
}

// OpenBackend creates the transport for a printer identifier.
type OpenBackend func(identifier string) (brotherql.Backend, error)

// PrintResult is the JSON body of the print endpoints.
type PrintResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Data    string `json:"data,omitempty"`
}

// ErrTransport wraps failures while talking to the printer.
var ErrTransport = errors.New("printer transport failed")

// PrintService converts rendered labels to raster data and sends them to
// the configured printer.
type PrintService struct {
	cfg     config.Config
	open    OpenBackend
	journal Journal
	events  EventPublisher
	debug   func() bool
}

// NewPrintService wires a PrintService. Nil journal and events are skipped.
func NewPrintService(cfg config.Config, open OpenBackend, journal Journal, events EventPublisher, debug func() bool) *PrintService {
	if open == nil {
		open = brotherql.Open
	}
	if debug == nil {
		debug = logging.IsDebug
	}
	return &PrintService{cfg: cfg, open: open, journal: journal, events: events, debug: debug}
}

// Raster builds the command stream for img.
func (s *PrintService) Raster(lc *domain.LabelContext, img image.Image) (*brotherql.Raster, error) {
	r, err := brotherql.NewRaster(s.cfg.Printer.Model)
	if err != nil {
		return nil, err
	}
	err = brotherql.Convert(r, img, lc.LabelSize, brotherql.ConvertOptions{
		Threshold: float64(lc.Threshold),
		Cut:       true,
		Red:       lc.Red,
		Rotate:    lc.PrintRotation(),
		Compress:  s.cfg.Printer.Compress && r.Model().Compression,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Print sends img to the printer. In debug mode nothing is sent: the image
// is saved to the debug output file and the raster bytes are returned hex
// encoded. Errors wrapping ErrTransport are printer failures; other errors
// are conversion failures.
func (s *PrintService) Print(ctx context.Context, kind domain.PrintKind, requestID string, lc *domain.LabelContext, img image.Image) (PrintResult, error) {
	rec := domain.PrintRecord{
		RequestID: requestID,
		Kind:      kind,
		LabelSize: lc.LabelSize,
		Model:     s.cfg.Printer.Model,
		Printer:   s.cfg.Printer.Printer,
		CreatedAt: time.Now().UTC(),
	}

	r, err := s.Raster(lc, img)
	if err != nil {
		return PrintResult{Success: false, Error: err.Error()}, err
	}
	data := r.Data()
	rec.Rows = r.Rows()
	rec.Bytes = len(data)

	if s.debug() {
		rec.DryRun = true
		if err := render.Save(img, s.cfg.Server.DebugOutput); err != nil {
			logging.Warn("Saving debug image failed", "path", s.cfg.Server.DebugOutput, "error", err)
		}
		rec.Success = true
		s.record(ctx, rec)
		return PrintResult{Success: true, Data: hex.EncodeToString(data)}, nil
	}

	if err := s.send(ctx, data); err != nil {
		logging.Warn("Exception happened while printing", "printer", s.cfg.Printer.Printer, "error", err)
		rec.Error = err.Error()
		s.record(ctx, rec)
		return PrintResult{Success: false, Message: err.Error()}, errors.Join(ErrTransport, err)
	}

	rec.Success = true
	s.record(ctx, rec)
	logging.Info("Label printed", "label_size", lc.LabelSize, "kind", string(kind), "bytes", len(data))
	return PrintResult{Success: true}, nil
}

func (s *PrintService) send(ctx context.Context, data []byte) error {
	backend, err := s.open(s.cfg.Printer.Printer)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			logging.Warn("Closing printer backend failed", "error", cerr)
		}
	}()

	if timeout := s.cfg.Server.PrintTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return backend.Write(ctx, data)
}

func (s *PrintService) record(ctx context.Context, rec domain.PrintRecord) {
	if s.journal != nil {
		if err := s.journal.Record(ctx, rec); err != nil {
			logging.Warn("Writing print journal failed", "error", err)
		}
	}
	if s.events != nil {
		if err := s.events.PublishPrint(rec); err != nil {
			logging.Warn("Publishing print event failed", "error", err)
		}
	}
}
