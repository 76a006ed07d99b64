package db

import (
	"context"
	"database/sql"
)

type AddTransferParams struct {
	Batch       int64
	Identifier  string
	TxHash      string
	CollectedAt int64
}

const addTransfer = `insert into transfers (batch, identifier, tx_hash, collected_at) values (?, ?, ?, ?)`

func (q *Queries) AddTransfer(ctx context.Context, arg AddTransferParams) error {
	_, err := q.db.ExecContext(ctx, addTransfer,
		arg.Batch,
		arg.Identifier,
		arg.TxHash,
		arg.CollectedAt,
	)
	return err
}

type AddTxDateParams struct {
	Batch       int64
	TxHash      string
	Identifier  string
	DateText    sql.NullString
	Day         sql.NullString
	Status      string
	RawText     string
	CollectedAt int64
}

const addTxDate = `insert into tx_dates (batch, tx_hash, identifier, date_text, day, status, raw_text, collected_at)
values (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) AddTxDate(ctx context.Context, arg AddTxDateParams) error {
	_, err := q.db.ExecContext(ctx, addTxDate,
		arg.Batch,
		arg.TxHash,
		arg.Identifier,
		arg.DateText,
		arg.Day,
		arg.Status,
		arg.RawText,
		arg.CollectedAt,
	)
	return err
}

type Transfer struct {
	Batch      int64
	Identifier string
	TxHash     string
}

const getBatchTransfers = `select batch, identifier, tx_hash from transfers where batch = ? order by id`

func (q *Queries) GetBatchTransfers(ctx context.Context, batch int64) ([]Transfer, error) {
	rows, err := q.db.QueryContext(ctx, getBatchTransfers, batch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Transfer
	for rows.Next() {
		var i Transfer
		if err := rows.Scan(&i.Batch, &i.Identifier, &i.TxHash); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type TxDate struct {
	TxHash     string
	Identifier string
	DateText   sql.NullString
	Day        sql.NullString
	Status     string
}

const getTxDates = `select tx_hash, identifier, date_text, day, status from tx_dates where tx_hash = ? order by id`

func (q *Queries) GetTxDates(ctx context.Context, txHash string) ([]TxDate, error) {
	rows, err := q.db.QueryContext(ctx, getTxDates, txHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TxDate
	for rows.Next() {
		var i TxDate
		if err := rows.Scan(&i.TxHash, &i.Identifier, &i.DateText, &i.Day, &i.Status); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
