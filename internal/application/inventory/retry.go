package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jhoicas/inventory-movements/internal/domain"
	"github.com/jhoicas/inventory-movements/internal/domain/entity"
)

// casMutation lee la celda, valida y aplica un compare-and-add con la versión leída.
type casMutation func(ctx context.Context) (*entity.StockCell, error)

// retryCAS reintenta mutation mientras el ledger reporte conflicto de versión, hasta
// MaxRetries intentos en total. Cualquier otro error corta el ciclo de inmediato.
func (uc *TransferUseCase) retryCAS(ctx context.Context, op string, key entity.StockKey, mutation casMutation) (*entity.StockCell, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = uc.cfg.RetryBase
	eb.MaxInterval = 50 * uc.cfg.RetryBase
	eb.MaxElapsedTime = 0

	maxRetries := uc.cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxRetries-1)), ctx)

	var cell *entity.StockCell
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		c, err := mutation(ctx)
		if err == nil {
			cell = c
			return nil
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			uc.metrics.ConflictRetry(op)
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if err == nil {
		return cell, nil
	}
	if errors.Is(err, domain.ErrVersionConflict) {
		uc.metrics.ConflictExhausted(op)
		uc.log.Warn().Str("op", op).Str("cell", key.String()).Int("attempts", attempts).Msg("reintentos agotados")
		return nil, &domain.ConflictError{Op: op, Key: key.String(), Attempts: attempts}
	}
	return nil, err
}

// DefaultRetryBase espera inicial entre reintentos de compare-and-set.
const DefaultRetryBase = 5 * time.Millisecond
