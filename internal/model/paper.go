package model

import "time"

// Paper is an uploaded document. FullText is extracted once at upload time and
// only ever used to build chat context, so it is not serialized.
type Paper struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:512;not null" json:"title"`
	Authors     string     `gorm:"size:1024" json:"authors"`
	Abstract    string     `gorm:"type:text" json:"abstract"`
	FullText    string     `json:"-"`
	SourceURL   string     `gorm:"size:1024" json:"source_url"`
	FilePath    string     `gorm:"size:1024" json:"file_path"`
	WorkspaceID uint       `gorm:"not null;index" json:"workspace_id"`
	Workspace   *Workspace `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
}
