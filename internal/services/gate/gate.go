// Package gate is the last stop before money moves: it asks the user to
// confirm the computed trades and submits the prepared transaction through
// the wallet.
package gate

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/folio/internal/domain"
)

// ErrDeclined is returned when the user cancels at the confirmation step.
// Callers abort silently: a declined rebalance is not a failure.
var ErrDeclined = errors.New("rebalance declined")

type wallet interface {
	RequestAccounts() (common.Address, error)
	SendTransaction(ctx context.Context, tx domain.PreparedTransaction, gasLimit uint64) (string, error)
}

// Confirmer blocks until the user accepts or cancels the trade list.
type Confirmer interface {
	Confirm(trades []domain.TradeInstruction) (bool, error)
}

// Gate couples a confirmer with the wallet's signing capability.
type Gate struct {
	wallet    wallet
	confirmer Confirmer
	gasLimit  uint64
	logger    *zap.Logger
}

// New creates a gate submitting with the given fixed gas limit.
func New(w wallet, c Confirmer, gasLimit uint64, logger *zap.Logger) *Gate {
	return &Gate{wallet: w, confirmer: c, gasLimit: gasLimit, logger: logger}
}

// Confirm presents the trades and returns ErrDeclined on cancel. It is
// called before any network round-trip, so cancelling has no side effects.
func (g *Gate) Confirm(trades []domain.TradeInstruction) error {
	ok, err := g.confirmer.Confirm(trades)
	if err != nil {
		return errors.Wrap(err, "confirmation failed")
	}
	if !ok {
		return ErrDeclined
	}
	return nil
}

// Submit requests account access and sends the prepared transaction,
// returning the transaction hash. The hash is a submission receipt only;
// on-chain execution is not tracked here.
func (g *Gate) Submit(ctx context.Context, tx domain.PreparedTransaction) (string, error) {
	account, err := g.wallet.RequestAccounts()
	if err != nil {
		return "", errors.Wrap(err, "wallet access denied")
	}

	txHash, err := g.wallet.SendTransaction(ctx, tx, g.gasLimit)
	if err != nil {
		return "", errors.Wrap(err, "failed to submit transaction")
	}

	g.logger.Info("transaction submitted",
		zap.String("from", account.Hex()),
		zap.String("to", tx.To),
		zap.String("tx_hash", txHash))

	return txHash, nil
}
