package asset

import "strings"

const (
	megabyte = 1024 * 1024

	ResumeSlot       = "resume"
	ProfileImageSlot = "profile-image"
)

// Kind describes one single-slot asset: what it accepts and where it lives.
type Kind struct {
	Slot        string
	Label       string
	MaxSize     int64
	TypeMessage string
	SizeMessage string
	// CountPages records the PDF page count on upload.
	CountPages bool
	allow      func(contentType string) bool
}

// Allows reports whether a normalized content type is accepted.
func (k Kind) Allows(contentType string) bool {
	return k.allow(contentType)
}

var Resume = Kind{
	Slot:        ResumeSlot,
	Label:       "Resume",
	MaxSize:     10 * megabyte,
	TypeMessage: "Only PDF files are allowed",
	SizeMessage: "File size must be less than 10MB",
	CountPages:  true,
	allow: func(ct string) bool {
		return ct == "application/pdf"
	},
}

var ProfileImage = Kind{
	Slot:        ProfileImageSlot,
	Label:       "Image",
	MaxSize:     5 * megabyte,
	TypeMessage: "Only image files are allowed",
	SizeMessage: "Image size must be less than 5MB",
	allow: func(ct string) bool {
		return strings.HasPrefix(ct, "image/")
	},
}

// normalizeContentType strips parameters and case from a declared type.
func normalizeContentType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// needsSniffing is true when the client did not say what it sent.
func needsSniffing(ct string) bool {
	return ct == "" || ct == "application/octet-stream"
}
