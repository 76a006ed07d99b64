package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ronin-scraper/internal/ronin"
)

// Mirror writes every batch of records in a single transaction.
type Mirror struct {
	makeTx MakeTx
	now    func() time.Time
}

func NewMirror(database *sql.DB) Mirror {
	return Mirror{
		makeTx: NewMakeTx(database),
		now:    time.Now,
	}
}

func (m Mirror) inTx(ctx context.Context, fn func(qry *Queries) error) error {
	qry, discard, commit, err := m.makeTx(ctx)
	if err != nil {
		return err
	}
	err = fn(qry)
	if err != nil {
		discard()
		return err
	}
	return commit()
}

func (m Mirror) SaveTransfers(ctx context.Context, batch int, records []ronin.TransferRecord) error {
	collectedAt := m.now().Unix()
	err := m.inTx(ctx, func(qry *Queries) error {
		for _, r := range records {
			err := qry.AddTransfer(ctx, AddTransferParams{
				Batch:       int64(batch),
				Identifier:  r.Identifier,
				TxHash:      r.TxHash,
				CollectedAt: collectedAt,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save transfers: %w", err)
	}
	return nil
}

func (m Mirror) SaveDated(ctx context.Context, batch int, records []ronin.DatedRecord) error {
	collectedAt := m.now().Unix()
	err := m.inTx(ctx, func(qry *Queries) error {
		for _, r := range records {
			params := AddTxDateParams{
				Batch:       int64(batch),
				TxHash:      r.TxHash,
				Identifier:  r.Identifier,
				Status:      r.Status.String(),
				RawText:     r.Text,
				CollectedAt: collectedAt,
			}
			if r.HasDate() {
				params.DateText = sql.NullString{String: r.Date, Valid: true}
			}
			if day, ok := r.Time(); ok {
				params.Day = sql.NullString{String: day.Format(time.DateOnly), Valid: true}
			}

			err := qry.AddTxDate(ctx, params)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save dates: %w", err)
	}
	return nil
}
