package assets

import (
	"strings"
)

// SourceType identifies where an asset was captured.
type SourceType string

const (
	SourceVoiceMemo   SourceType = "voice_memo"
	SourceVideo       SourceType = "video"
	SourceAudioImport SourceType = "audio_import"
)

// UpsertResult reports what a scan upsert did to the stored row.
type UpsertResult string

const (
	UpsertInserted UpsertResult = "insert"
	UpsertUpdated  UpsertResult = "update"
	UpsertSkipped  UpsertResult = "skip"
)

// Audit action names recorded in action_log.
const (
	ActionStart        = "start"
	ActionComplete     = "complete"
	ActionError        = "error"
	ActionRunning      = "running"
	ActionDone         = "done"
	ActionFailed       = "failed"
	ActionSkipped      = "skipped"
	ActionEnriched     = "enriched"
	ActionEnrichFailed = "enrich_failed"
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionRequeue      = "requeue"
)

// Failure reasons shared between the runners and the store.
const (
	InterruptedReason   = "interrupted"
	MissingSourceReason = "source file missing"
)

// Origin names the command and batch run responsible for a mutation.
type Origin struct {
	Command string
	RunID   string
}

// Candidate is a source-derived record produced by a scan.
type Candidate struct {
	ID          string
	SourceType  SourceType
	SourcePath  string
	Filename    string
	Title       string
	DurationSec *float64
	RecordedAt  string
	FileFormat  string
	FileSize    int64
	AudioDigest []byte
}

// Asset is a tracked recording with its per-stage lifecycle fields.
type Asset struct {
	ID          string
	SourceType  SourceType
	SourcePath  string
	Filename    string
	Title       string
	DurationSec *float64
	RecordedAt  string
	FileFormat  string
	FileSize    int64
	AudioDigest []byte

	HasGPS bool
	Lat    *float64
	Lon    *float64
	Place  string

	Status          Status
	TranscriptModel string
	TranscriptLang  string
	TranscriptAt    string
	TranscriptPath  string
	TranscriptError string

	Summary     string
	Topics      string
	People      string
	Sentiment   string
	EnrichedAt  string
	EnrichError string

	NotePath    string
	PublishedAt string
	NoteHash    string

	ScannedAt string
	UpdatedAt string
}

// Transcribed reports whether the transcript stage completed.
func (a Asset) Transcribed() bool {
	return a.Status == StatusDone
}

// Enriched reports whether enrichment metadata is present.
func (a Asset) Enriched() bool {
	return a.Summary != ""
}

// Published reports whether the publisher has written a note for the asset.
func (a Asset) Published() bool {
	return a.NotePath != ""
}

// Duration returns the duration in seconds, or zero when unknown.
func (a Asset) Duration() float64 {
	if a.DurationSec == nil {
		return 0
	}
	return *a.DurationSec
}

// DisplayTitle returns the title or a fallback for untitled recordings.
func (a Asset) DisplayTitle() string {
	if title := strings.TrimSpace(a.Title); title != "" {
		return title
	}
	return "Untitled"
}

// TranscriptOutput carries the stage payload written on a successful transcription.
type TranscriptOutput struct {
	Model    string
	Language string
	Path     string
}

// Enrichment carries the four structured fields produced by the enrichment stage.
type Enrichment struct {
	Summary   string
	Topics    string
	People    string
	Sentiment string
}

// Action is a single action_log row.
type Action struct {
	ID        int64
	Timestamp string
	Command   string
	AssetID   string
	Action    string
	Detail    string
	RunID     string
}

// Stats aggregates catalogue counts for status reporting and the vault index.
type Stats struct {
	Total       int
	TotalHours  float64
	Published   int
	Transcribed int
	Enriched    int
	ByStatus    map[Status]int
}

// DatabaseHealth captures diagnostic information about the asset database.
type DatabaseHealth struct {
	DBPath         string
	DatabaseExists bool
	SchemaVersion  int
	MissingColumns []string
	IntegrityCheck bool
	TotalAssets    int
	Error          string
}
