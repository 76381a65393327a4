package model

import "time"

// SheetRow is one data row read from the roster spreadsheet
type SheetRow struct {
	Index         int // 1-based, header excluded
	Name          string
	Course        string
	Birthday      string // Free text, parsed into a month during conversion
	Phone         string
	Residence     string
	Email         string
	Participation string
	PhotoURL      string
	VideoURL      string // Optional
}

// MemberRecord is the persisted member entity derived from a sheet row
type MemberRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Course        string `json:"course"`
	Birthday      string `json:"birthday"`
	Month         string `json:"month"`
	Phone         string `json:"phone"`
	Residence     string `json:"residence"`
	Email         string `json:"email"`
	Participation string `json:"participation"`
	PhotoURL      string `json:"photoUrl"`
	VideoURL      string `json:"videoUrl,omitempty"`
	RowIndex      int    `json:"rowIndex"`
}

// MemberMetadata is the metadata document written next to a member's photo
type MemberMetadata struct {
	MemberRecord
	PhotoPath  string `json:"photoPath,omitempty"`
	UploadedAt string `json:"uploadedAt"`
}

// MediaBlob holds downloaded media bytes in memory until they are uploaded
type MediaBlob struct {
	Data        []byte
	ContentType string
	SourceURL   string
}

// FamilyMember is an entry of the app-facing community roster
type FamilyMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Role      string    `json:"role,omitempty"`
	Course    string    `json:"course,omitempty"`
	Birthday  string    `json:"birthday,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty" validate:"omitempty,email"`
	PhotoURL  string    `json:"photoUrl,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserProfile is the signed-in user's editable profile
type UserProfile struct {
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string    `json:"phone,omitempty"`
	Course    string    `json:"course,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	PhotoURL  string    `json:"photoUrl,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppSettings holds user preferences shared across devices
type AppSettings struct {
	DarkMode             bool      `json:"darkMode"`
	NotificationsEnabled bool      `json:"notificationsEnabled"`
	Language             string    `json:"language"`
	LastSpreadsheetURL   string    `json:"lastSpreadsheetUrl,omitempty"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// DefaultAppSettings returns the settings used before any have been saved
func DefaultAppSettings() AppSettings {
	return AppSettings{
		NotificationsEnabled: true,
		Language:             "en",
	}
}
