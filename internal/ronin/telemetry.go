package ronin

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("ronin-scraper/internal/ronin")

var meter = otel.Meter("ronin-scraper/internal/ronin")

var transfersCounter, _ = meter.Int64Counter(
	"ronin.transfers.collected",
	metric.WithDescription("transaction hashes read from listing pages"),
)
var skippedCounter, _ = meter.Int64Counter(
	"ronin.rows.skipped",
	metric.WithDescription("listing rows, identifiers and records skipped after a failure"),
)
var datesCounter, _ = meter.Int64Counter(
	"ronin.dates.collected",
	metric.WithDescription("detail pages visited, by date status"),
)
