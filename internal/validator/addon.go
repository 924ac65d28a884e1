package validator

import (
	"context"
	"encoding/json"

	apiwasm "github.com/streamhaus/flink-sql-lsp/api/wasm"
	"github.com/streamhaus/flink-sql-lsp/internal/addon"
	"github.com/streamhaus/flink-sql-lsp/internal/wasm"
	"go.uber.org/zap"
)

// NewAddonAcquire returns an AcquireFunc that locates a parser add-on for
// engine with the diagnostics capability and adapts its Wasm instance into
// a Validator.
func NewAddonAcquire(mgr *addon.Manager, engine string, logger *zap.Logger) AcquireFunc {
	return func(ctx context.Context) (Validator, error) {
		ad, err := mgr.FindAddonFor(engine, addon.CapabilityDiagnostics)
		if err != nil {
			return nil, err
		}

		inst, err := mgr.Instantiate(ctx, ad.Name())
		if err != nil {
			return nil, err
		}

		return &addonValidator{
			name:     ad.Name(),
			instance: inst,
			logger:   logger.With(zap.String("component", "addon-validator")),
		}, nil
	}
}

// addonValidator adapts a Wasm parser instance to the Validator interface.
type addonValidator struct {
	name     string
	instance *wasm.Instance
	logger   *zap.Logger
}

func (v *addonValidator) Validate(ctx context.Context, text string) ([]ParserError, error) {
	out, err := v.instance.Invoke(ctx, "validate", []byte(text))
	if err != nil {
		return nil, err
	}

	var result apiwasm.ValidationResult
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, &ResultDecodeError{AddonName: v.name, Err: err}
	}

	errs := make([]ParserError, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, ParserError{
			StartLine:   e.StartLine,
			StartColumn: e.StartColumn,
			EndLine:     e.EndLine,
			EndColumn:   e.EndColumn,
			Message:     e.Message,
		})
	}

	v.logger.Debug("Validation complete",
		zap.Int("input_bytes", len(text)),
		zap.Int("errors", len(errs)),
	)

	return errs, nil
}
