package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	"github.com/KaramelBytes/salescluster-cli/internal/pipeline"
)

const bigQueryBatch = 500

// Inserter is the streaming insert surface of a BigQuery table.
type Inserter interface {
	Put(ctx context.Context, src interface{}) error
}

// AssignmentRow is one labelled row streamed to BigQuery.
type AssignmentRow struct {
	RunID    string
	Source   string
	Row      int
	Label    int
	Features map[string]float64
	Inserted time.Time
}

// Save implements bigquery.ValueSaver. The insert ID makes retried inserts idempotent.
func (r *AssignmentRow) Save() (map[string]bigquery.Value, string, error) {
	m := map[string]bigquery.Value{
		"run_id":      r.RunID,
		"source":      r.Source,
		"row_index":   r.Row,
		"label":       r.Label,
		"inserted_at": r.Inserted,
	}
	for k, v := range r.Features {
		m[k] = v
	}
	return m, r.RunID + ":" + strconv.Itoa(r.Row), nil
}

// BigQuery streams assignments into project.dataset.table.
type BigQuery struct {
	ins    Inserter
	client *bigquery.Client
}

// NewBigQuery connects to BigQuery.
func NewBigQuery(ctx context.Context, project, dataset, table, credentialsFile string) (*BigQuery, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	return &BigQuery{ins: client.Dataset(dataset).Table(table).Inserter(), client: client}, nil
}

// NewBigQueryWithInserter wraps an existing inserter.
func NewBigQueryWithInserter(ins Inserter) *BigQuery { return &BigQuery{ins: ins} }

func (b *BigQuery) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// Write streams one row per assignment with the unscaled feature values, in batches.
func (b *BigQuery) Write(ctx context.Context, res *pipeline.Result) error {
	cols := make(map[string][]float64, len(res.Config.Features))
	for _, c := range res.Config.Features {
		v, err := res.Table.Floats(c)
		if err != nil {
			return err
		}
		cols[c] = v
	}
	now := time.Now().UTC()
	batch := make([]*AssignmentRow, 0, bigQueryBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := b.ins.Put(ctx, batch); err != nil {
			return fmt.Errorf("insert assignments: %w", err)
		}
		batch = make([]*AssignmentRow, 0, bigQueryBatch)
		return nil
	}
	for i, l := range res.Labels {
		feat := make(map[string]float64, len(cols))
		for c, v := range cols {
			feat[c] = v[i]
		}
		batch = append(batch, &AssignmentRow{RunID: res.RunID, Source: res.Source, Row: i, Label: l, Features: feat, Inserted: now})
		if len(batch) == bigQueryBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
