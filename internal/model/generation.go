package model

import (
	"time"
)

// Generation statuses. A generation only moves forward:
// pending -> queued -> processing -> processed | failed
const (
	StatusPending    = "pending"
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusFailed     = "failed"
)

// Style modes
const (
	StyleModePreset = "preset"
	StyleModeCustom = "custom"
)

type Generation struct {
	ID        string `db:"id"`
	OwnerID   string `db:"owner_id"`
	Status    string `db:"status"`
	InputText string `db:"input_text"`

	// Ordered blob keys. URLs are derived on read, never stored.
	InputFiles StringList `db:"input_files"`

	// Style: "preset" references a catalog entry, "custom" carries its own
	// prompt. SnapshotTitle/SnapshotPrompt are captured when the style is
	// set, so later catalog edits never change an in-flight generation.
	StyleMode      string `db:"style_mode"`
	PresetID       string `db:"preset_id"`
	CustomPrompt   string `db:"custom_prompt"`
	SnapshotTitle  string `db:"snapshot_title"`
	SnapshotPrompt string `db:"snapshot_prompt"`

	OutputFiles   StringList `db:"output_files"`
	PreviewImages StringList `db:"preview_images"`
	Error         string     `db:"error"` // set only when status = failed

	IsFavourite  bool `db:"is_favourite"`
	IsDownloaded bool `db:"is_downloaded"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Terminal reports whether the worker is done with this generation.
func (g *Generation) Terminal() bool {
	return g.Status == StatusProcessed || g.Status == StatusFailed
}

// BlobKeys returns every blob key the generation references, in order.
func (g *Generation) BlobKeys() []string {
	keys := make([]string, 0, len(g.InputFiles)+len(g.OutputFiles)+len(g.PreviewImages))
	keys = append(keys, g.InputFiles...)
	keys = append(keys, g.OutputFiles...)
	keys = append(keys, g.PreviewImages...)
	return keys
}
