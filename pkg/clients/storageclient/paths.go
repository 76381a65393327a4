package storageclient

import (
	"path"
	"regexp"
	"strings"
)

const (
	studentsPrefix    = "students/"
	FamilyMembersPath = "family-members/family_members.json"
	ProfilePath       = "user-profile/profile.json"
	SettingsPath      = "app-settings/settings.json"
	mediaPrefix       = "media/"

	photoFileName    = "photo.jpg"
	metadataFileName = "metadata.json"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// StudentPhotoPath is students/<month>/<id>/photo.jpg
func StudentPhotoPath(month, id string) string {
	return studentsPrefix + month + "/" + id + "/" + photoFileName
}

// StudentMetadataPath is students/<month>/<id>/metadata.json
func StudentMetadataPath(month, id string) string {
	return studentsPrefix + month + "/" + id + "/" + metadataFileName
}

// MonthPrefix is the prefix of every student object for a month
func MonthPrefix(month string) string {
	return studentsPrefix + month + "/"
}

// IsMetadataPath reports whether name is a student metadata document
func IsMetadataPath(name string) bool {
	return strings.HasPrefix(name, studentsPrefix) && path.Base(name) == metadataFileName
}

// MediaPath returns media/<filename> with the filename reduced to a safe base name
func MediaPath(filename string) (string, bool) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	base = unsafeFileChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "", false
	}
	return mediaPrefix + base, true
}
