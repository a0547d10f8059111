package assets

import "database/sql"

const assetColumns = "id, source_type, source_path, filename, title, duration_sec, recorded_at, file_format, file_size_bytes, audio_digest, has_gps, lat, lon, place, transcript_status, transcript_model, transcript_lang, transcript_at, transcript_path, transcript_error, summary, topics, people, sentiment, enriched_at, enrich_error, note_path, published_at, note_hash, scanned_at, updated_at"

type assetRow struct {
	ID              string          `db:"id"`
	SourceType      string          `db:"source_type"`
	SourcePath      string          `db:"source_path"`
	Filename        string          `db:"filename"`
	Title           sql.NullString  `db:"title"`
	DurationSec     sql.NullFloat64 `db:"duration_sec"`
	RecordedAt      sql.NullString  `db:"recorded_at"`
	FileFormat      sql.NullString  `db:"file_format"`
	FileSize        sql.NullInt64   `db:"file_size_bytes"`
	AudioDigest     []byte          `db:"audio_digest"`
	HasGPS          sql.NullInt64   `db:"has_gps"`
	Lat             sql.NullFloat64 `db:"lat"`
	Lon             sql.NullFloat64 `db:"lon"`
	Place           sql.NullString  `db:"place"`
	Status          string          `db:"transcript_status"`
	TranscriptModel sql.NullString  `db:"transcript_model"`
	TranscriptLang  sql.NullString  `db:"transcript_lang"`
	TranscriptAt    sql.NullString  `db:"transcript_at"`
	TranscriptPath  sql.NullString  `db:"transcript_path"`
	TranscriptError sql.NullString  `db:"transcript_error"`
	Summary         sql.NullString  `db:"summary"`
	Topics          sql.NullString  `db:"topics"`
	People          sql.NullString  `db:"people"`
	Sentiment       sql.NullString  `db:"sentiment"`
	EnrichedAt      sql.NullString  `db:"enriched_at"`
	EnrichError     sql.NullString  `db:"enrich_error"`
	NotePath        sql.NullString  `db:"note_path"`
	PublishedAt     sql.NullString  `db:"published_at"`
	NoteHash        sql.NullString  `db:"note_hash"`
	ScannedAt       string          `db:"scanned_at"`
	UpdatedAt       string          `db:"updated_at"`
}

func (r assetRow) toAsset() *Asset {
	asset := &Asset{
		ID:              r.ID,
		SourceType:      SourceType(r.SourceType),
		SourcePath:      r.SourcePath,
		Filename:        r.Filename,
		Title:           r.Title.String,
		DurationSec:     floatPtr(r.DurationSec),
		RecordedAt:      r.RecordedAt.String,
		FileFormat:      r.FileFormat.String,
		FileSize:        r.FileSize.Int64,
		HasGPS:          r.HasGPS.Valid && r.HasGPS.Int64 != 0,
		Lat:             floatPtr(r.Lat),
		Lon:             floatPtr(r.Lon),
		Place:           r.Place.String,
		Status:          Status(r.Status),
		TranscriptModel: r.TranscriptModel.String,
		TranscriptLang:  r.TranscriptLang.String,
		TranscriptAt:    r.TranscriptAt.String,
		TranscriptPath:  r.TranscriptPath.String,
		TranscriptError: r.TranscriptError.String,
		Summary:         r.Summary.String,
		Topics:          r.Topics.String,
		People:          r.People.String,
		Sentiment:       r.Sentiment.String,
		EnrichedAt:      r.EnrichedAt.String,
		EnrichError:     r.EnrichError.String,
		NotePath:        r.NotePath.String,
		PublishedAt:     r.PublishedAt.String,
		NoteHash:        r.NoteHash.String,
		ScannedAt:       r.ScannedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if len(r.AudioDigest) > 0 {
		asset.AudioDigest = append([]byte(nil), r.AudioDigest...)
	}
	return asset
}

func rowsToAssets(rows []assetRow) []*Asset {
	out := make([]*Asset, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toAsset())
	}
	return out
}

// stateRow is the slice of an asset a transition needs to validate itself.
type stateRow struct {
	Status         string         `db:"transcript_status"`
	TranscriptPath sql.NullString `db:"transcript_path"`
	UpdatedAt      string         `db:"updated_at"`
}

type actionRow struct {
	ID        int64          `db:"id"`
	Timestamp string         `db:"timestamp"`
	Command   string         `db:"command"`
	AssetID   sql.NullString `db:"asset_id"`
	Action    string         `db:"action"`
	Detail    sql.NullString `db:"detail"`
	RunID     sql.NullString `db:"run_id"`
}

func (r actionRow) toAction() Action {
	return Action{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Command:   r.Command,
		AssetID:   r.AssetID.String,
		Action:    r.Action,
		Detail:    r.Detail.String,
		RunID:     r.RunID.String,
	}
}
