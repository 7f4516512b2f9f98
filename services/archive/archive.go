package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sjsage522/paperworker/internal/crawler"
	"sjsage522/paperworker/logger"
	"sjsage522/paperworker/pkg/errors"
)

// Result describes one persisted batch update
type Result struct {
	Key      string
	Existing int
	Total    int
	Added    []crawler.Paper
}

// Archiver merges freshly extracted papers into the day's log batch
type Archiver struct {
	store LogStore
	log   *logger.Logger
}

// NewArchiver creates an archiver backed by store
func NewArchiver(store LogStore) *Archiver {
	return &Archiver{
		store: store,
		log:   logger.ForArchive(),
	}
}

// BatchKey names the batch for the given day
func BatchKey(day time.Time) string {
	return fmt.Sprintf("papers_log_%s.json", day.Format("2006-01-02"))
}

// Persist loads the day's batch, appends the papers it does not have yet and writes it back.
// A batch that cannot be read is never overwritten, and existing records are written back unchanged.
func (a *Archiver) Persist(ctx context.Context, day time.Time, papers []crawler.Paper) (*Result, error) {
	key := BatchKey(day)
	log := a.log.WithField("key", key)

	content, found, err := a.store.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	batch, err := a.decode(log, content, found)
	if err != nil {
		return nil, err
	}
	merged := Merge(batch.papers, papers)

	result := &Result{
		Key:      key,
		Existing: len(batch.papers),
		Total:    len(merged),
		Added:    merged[len(batch.papers):],
	}

	if batch.papers != nil {
		log.Info().
			Int("existing", result.Existing).
			Int("added", len(result.Added)).
			Msg("Merging into existing batch")
	} else {
		log.Info().Int("papers", result.Total).Msg("Creating new batch")
	}

	encoded, err := encode(batch.records, result.Added)
	if err != nil {
		return nil, errors.NewParsing("archive", "encode batch", err)
	}

	version, err := a.store.Version(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read batch version: %w", err)
	}

	message := fmt.Sprintf("Update papers log for %s - %d papers", day.Format("2006-01-02"), len(merged))
	if err := a.store.Write(ctx, key, encoded, version, message); err != nil {
		return nil, fmt.Errorf("write batch: %w", err)
	}

	log.Info().Int("total", result.Total).Bool("updated", version != "").Msg("Batch persisted")
	return result, nil
}

// storedBatch is a decoded batch. records holds each stored record as written,
// papers its decoded view used for deduplication.
type storedBatch struct {
	records []json.RawMessage
	papers  []crawler.Paper
}

// decode returns an empty batch when there is none or it is not valid JSON.
// Valid JSON that is not a list of records is refused so it is never replaced.
func (a *Archiver) decode(log *logger.Logger, content []byte, found bool) (storedBatch, error) {
	content = bytes.TrimSpace(content)
	if !found || len(content) == 0 || bytes.Equal(content, []byte("null")) {
		return storedBatch{}, nil
	}
	if !json.Valid(content) {
		log.Warn().Err(errors.NewParsing("archive", "decode batch", nil)).Msg("Treating unparsable batch as absent")
		return storedBatch{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(content, &records); err != nil {
		return storedBatch{}, errors.NewParsing("archive", "batch is not a list of records", err)
	}

	batch := storedBatch{
		records: records,
		papers:  make([]crawler.Paper, len(records)),
	}
	for i, record := range records {
		if err := json.Unmarshal(record, &batch.papers[i]); err != nil {
			log.Warn().Err(err).Int("record", i).Msg("Keeping undecodable record as is")
		}
	}
	return batch, nil
}

// encode writes the stored records unchanged followed by the added papers
func encode(records []json.RawMessage, added []crawler.Paper) ([]byte, error) {
	out := make([]json.RawMessage, 0, len(records)+len(added))
	out = append(out, records...)
	for _, p := range added {
		data, err := marshal(p, "")
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return marshal(out, "  ")
}

func marshal(v interface{}, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
