package compiler

import (
	"context"
	"time"

	hosterrors "github.com/conneroisu/imprint/internal/errors"
	"github.com/conneroisu/imprint/internal/logging"
)

// Result is the outcome of a successful compilation.
type Result struct {
	PDF      []byte
	Pages    int
	Warnings []hosterrors.Diagnostic
	Duration time.Duration
}

// CompileToPDF compiles the world's main source with engine and serializes
// the document. Any error-severity diagnostic fails the compilation with a
// CompilationFailed error whose message joins all of them; the individual
// diagnostics remain available through errors.Diagnostics. A serializer
// failure is returned as ExportFailed.
func CompileToPDF(ctx context.Context, b Backend, w World, opts PDFOptions, logger logging.Logger) (*Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.WithComponent("compiler")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	perf := logging.StartOperation(logger, "compile")

	doc, diags := b.Engine.Compile(ctx, w)
	errs := hosterrors.Errors(diags)
	if doc == nil && len(errs) == 0 {
		errs = []hosterrors.Diagnostic{{
			Severity: hosterrors.SeverityError,
			Message:  "compiler produced no document",
			Path:     w.MainID().String(),
		}}
	}
	if len(errs) > 0 {
		err := hosterrors.NewCompilationError(errs)
		perf.EndWithError(ctx, err)
		return nil, err
	}

	if opts.Timestamp == nil {
		if today, ok := w.Today(nil); ok {
			opts.Timestamp = &today
		}
	}

	pdf, err := b.Serializer.Serialize(doc, opts)
	if err != nil {
		exportErr := hosterrors.NewExportError(err)
		perf.EndWithError(ctx, exportErr)
		return nil, exportErr
	}
	perf.End(ctx)

	result := &Result{
		PDF:      pdf,
		Pages:    doc.Pages(),
		Warnings: warnings(diags),
		Duration: time.Since(start),
	}
	logger.Info(ctx, "Compiled document",
		"main", w.MainID().String(),
		"pages", result.Pages,
		"bytes", len(pdf),
		"warnings", len(result.Warnings))
	return result, nil
}

func warnings(diags []hosterrors.Diagnostic) []hosterrors.Diagnostic {
	var out []hosterrors.Diagnostic
	for _, d := range diags {
		if d.Severity == hosterrors.SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}
